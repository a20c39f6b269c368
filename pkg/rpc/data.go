package rpc

import (
	"errors"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/parleybot/parley/pkg/models"
)

// Method names of the RPC surface.
const (
	MethodPostCustomDict = "postCustomDict"
	MethodDelCustomDict  = "delCustomDict"
	MethodPutDictWord    = "putDictWord"
	MethodPutDictPattern = "putDictPattern"
	MethodRefSysDict     = "refSysDict"
	MethodUnrefSysDict   = "unrefSysDict"
	MethodMySysdicts     = "mySysdicts"
	MethodPostIntent     = "postIntent"
	MethodDelIntent      = "delIntent"
	MethodGetIntents     = "getIntents"
	MethodPostSlot       = "postSlot"
	MethodPostUtter      = "postUtter"
	MethodTrain          = "train"
	MethodStatus         = "status"
	MethodPutSession     = "putSession"
	MethodChat           = "chat"
)

// Return codes. 0 is success; non-zero is an error or, for status, a job
// still in progress. Every response is self-describing by rc alone.
const (
	RcOK         = 0
	RcInProgress = 1
	RcNotFound   = 2
	RcConflict   = 3
	RcInvalid    = 4
	RcBusy       = 5
	RcTransient  = 6
	RcInternal   = 7
)

// RcForError maps the error taxonomy onto return codes.
func RcForError(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return RcNotFound
	case errors.Is(err, models.ErrConflict):
		return RcConflict
	case errors.Is(err, models.ErrBadRequest):
		return RcInvalid
	case errors.Is(err, models.ErrBusy):
		return RcBusy
	case errors.Is(err, models.ErrUnavailable):
		return RcTransient
	default:
		return RcInternal
	}
}

// Request is the tagged envelope carried in every frame: a method name
// plus that method's typed body. One body type per operation, so there is
// no reasoning about which optional fields are meaningful for a call.
type Request struct {
	Method string             `msgpack:"method"`
	Body   msgpack.RawMessage `msgpack:"body"`
}

// Response carries rc plus the operation's result object.
type Response struct {
	Rc    int                `msgpack:"rc"`
	Error string             `msgpack:"error,omitempty"`
	Body  msgpack.RawMessage `msgpack:"body,omitempty"`
}

/* Request bodies */

type PostCustomDictRequest struct {
	ChatbotID string `msgpack:"chatbotID" validate:"required"`
	Name      string `msgpack:"name"      validate:"required"`
	Kind      string `msgpack:"kind,omitempty"`
}

type DelCustomDictRequest struct {
	ChatbotID string `msgpack:"chatbotID" validate:"required"`
	Name      string `msgpack:"name"      validate:"required"`
}

type PutDictWordRequest struct {
	ChatbotID string `msgpack:"chatbotID" validate:"required"`
	DictName  string `msgpack:"dictname"  validate:"required"`
	Word      string `msgpack:"word"      validate:"required"`
	// Synonyms is a `;`-separated list, e.g. "狼桃;柿子;番茄".
	Synonyms string `msgpack:"synonyms,omitempty"`
}

type PutDictPatternRequest struct {
	ChatbotID string   `msgpack:"chatbotID" validate:"required"`
	DictName  string   `msgpack:"dictname"  validate:"required"`
	Patterns  []string `msgpack:"patterns"  validate:"required,min=1"`
}

type RefSysDictRequest struct {
	ChatbotID string `msgpack:"chatbotID" validate:"required"`
	Name      string `msgpack:"name"      validate:"required"`
}

type UnrefSysDictRequest struct {
	ChatbotID string `msgpack:"chatbotID" validate:"required"`
	Name      string `msgpack:"name"      validate:"required"`
}

type MySysdictsRequest struct {
	ChatbotID string `msgpack:"chatbotID" validate:"required"`
}

type PostIntentRequest struct {
	ChatbotID string `msgpack:"chatbotID" validate:"required"`
	Name      string `msgpack:"name"      validate:"required"`
}

type DelIntentRequest struct {
	ChatbotID string `msgpack:"chatbotID" validate:"required"`
	Name      string `msgpack:"name"      validate:"required"`
}

type GetIntentsRequest struct {
	ChatbotID string `msgpack:"chatbotID" validate:"required"`
}

type SlotData struct {
	Name     string `msgpack:"name"     validate:"required"`
	Requires bool   `msgpack:"requires"`
	Question string `msgpack:"question"`
	DictName string `msgpack:"dictname" validate:"required"`
}

type PostSlotRequest struct {
	ChatbotID  string   `msgpack:"chatbotID"  validate:"required"`
	IntentName string   `msgpack:"intentName" validate:"required"`
	Slot       SlotData `msgpack:"slot"       validate:"required"`
}

type PostUtterRequest struct {
	ChatbotID  string `msgpack:"chatbotID"  validate:"required"`
	IntentName string `msgpack:"intentName" validate:"required"`
	Utterance  string `msgpack:"utterance"  validate:"required"`
}

type TrainRequest struct {
	ChatbotID string `msgpack:"chatbotID" validate:"required"`
}

type StatusRequest struct {
	ChatbotID string `msgpack:"chatbotID" validate:"required"`
}

type PutSessionRequest struct {
	ChatbotID string `msgpack:"chatbotID" validate:"required"`
	UID       string `msgpack:"uid"       validate:"required"`
	Channel   string `msgpack:"channel"   validate:"required"`
	Branch    string `msgpack:"branch"    validate:"required"`
}

type ChatRequest struct {
	SessionID   string `msgpack:"sessionID"   validate:"required"`
	TextMessage string `msgpack:"textMessage" validate:"required"`
}

/* Result bodies */

type DictData struct {
	ChatbotID string `msgpack:"chatbotID"`
	Name      string `msgpack:"name"`
	Kind      string `msgpack:"kind"`
}

type SysDictsResult struct {
	SysDicts []string `msgpack:"sysdicts"`
}

type IntentData struct {
	ID         string     `msgpack:"id"`
	Name       string     `msgpack:"name"`
	Slots      []SlotData `msgpack:"slots"`
	Utterances []string   `msgpack:"utterances"`
}

type IntentsResult struct {
	Intents []IntentData `msgpack:"intents"`
}

type StatusResult struct {
	ChatbotID  string `msgpack:"chatbotID"`
	State      string `msgpack:"state"`
	Error      string `msgpack:"error,omitempty"`
	StartedAt  string `msgpack:"startedAt,omitempty"`
	FinishedAt string `msgpack:"finishedAt,omitempty"`
}

type EntityData struct {
	Name     string `msgpack:"name"`
	Val      string `msgpack:"val"`
	Requires bool   `msgpack:"requires"`
	DictName string `msgpack:"dictname"`
}

type SessionData struct {
	ID         string       `msgpack:"id"`
	ChatbotID  string       `msgpack:"chatbotID"`
	UID        string       `msgpack:"uid"`
	Channel    string       `msgpack:"channel"`
	Branch     string       `msgpack:"branch"`
	IntentName string       `msgpack:"intent_name"`
	Resolved   bool         `msgpack:"resolved"`
	Entities   []EntityData `msgpack:"entities"`
	CreateDate string       `msgpack:"createdate"`
	UpdateDate string       `msgpack:"updatedate"`
}

type SessionResult struct {
	Session SessionData `msgpack:"session"`
}

type MessageData struct {
	Receiver    string `msgpack:"receiver"`
	TextMessage string `msgpack:"textMessage"`
	IsFallback  bool   `msgpack:"is_fallback"`
	IsProactive bool   `msgpack:"is_proactive"`
}

type ChatResult struct {
	Session SessionData `msgpack:"session"`
	Message MessageData `msgpack:"message"`
}
