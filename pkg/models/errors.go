package models

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

var ErrBadRequest = errors.New("bad request")

type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("bad request: %s", e.Message)
}

func (e *BadRequestError) Unwrap() error {
	return ErrBadRequest
}

func NewBadRequestError(message string) error {
	return &BadRequestError{Message: message}
}

var ErrConflict = errors.New("conflict")

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Message)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

func NewConflictError(message string) error {
	return &ConflictError{Message: message}
}

var ErrBusy = errors.New("resource busy")

type BusyError struct {
	Resource string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("%s is busy", e.Resource)
}

func (e *BusyError) Unwrap() error {
	return ErrBusy
}

func NewBusyError(resource string) error {
	return &BusyError{Resource: resource}
}

var ErrUnavailable = errors.New("unavailable")

type UnavailableError struct {
	Message string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("unavailable: %s", e.Message)
}

func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

func NewUnavailableError(message string) error {
	return &UnavailableError{Message: message}
}
