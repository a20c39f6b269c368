package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/vmihailenco/msgpack/v5"
)

// Error is a non-zero rc reported by the server.
type Error struct {
	Rc      int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error rc=%d: %s", e.Rc, e.Message)
}

// Client speaks the framed-msgpack protocol over one persistent TCP
// connection. Calls are serialized; use one client per concurrent caller.
type Client struct {
	mu       sync.Mutex
	conn     net.Conn
	maxFrame int
}

func Dial(addr string) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	return &Client{conn: conn, maxFrame: DefaultMaxFrameSize}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// call performs one request/response exchange. The returned rc is the
// server's verdict; err reports transport or encoding failures only.
func (c *Client) call(method string, in, out any) (int, error) {
	body, err := msgpack.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := writeMessage(c.conn, &Request{Method: method, Body: body}); err != nil {
		return 0, fmt.Errorf("failed to send %s request: %w", method, err)
	}
	var resp Response
	if err := readMessage(c.conn, c.maxFrame, &resp); err != nil {
		return 0, fmt.Errorf("failed to read %s response: %w", method, err)
	}

	if out != nil && len(resp.Body) > 0 {
		if err := msgpack.Unmarshal(resp.Body, out); err != nil {
			return resp.Rc, fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	if resp.Rc != RcOK && resp.Error != "" {
		return resp.Rc, &Error{Rc: resp.Rc, Message: resp.Error}
	}
	return resp.Rc, nil
}

// callOK is call for operations where any non-zero rc is a failure.
func (c *Client) callOK(method string, in, out any) error {
	rc, err := c.call(method, in, out)
	if err != nil {
		return err
	}
	if rc != RcOK {
		return &Error{Rc: rc, Message: "unexpected rc"}
	}
	return nil
}

func (c *Client) PostCustomDict(chatbotID, name, kind string) (*DictData, error) {
	var out DictData
	err := c.callOK(MethodPostCustomDict, &PostCustomDictRequest{ChatbotID: chatbotID, Name: name, Kind: kind}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DelCustomDict(chatbotID, name string) error {
	return c.callOK(MethodDelCustomDict, &DelCustomDictRequest{ChatbotID: chatbotID, Name: name}, nil)
}

// PutDictWord upserts a vocabulary entry. synonyms is `;`-separated.
func (c *Client) PutDictWord(chatbotID, dictName, word, synonyms string) error {
	return c.callOK(MethodPutDictWord, &PutDictWordRequest{
		ChatbotID: chatbotID,
		DictName:  dictName,
		Word:      word,
		Synonyms:  synonyms,
	}, nil)
}

func (c *Client) PutDictPattern(chatbotID, dictName string, patterns []string) error {
	return c.callOK(MethodPutDictPattern, &PutDictPatternRequest{
		ChatbotID: chatbotID,
		DictName:  dictName,
		Patterns:  patterns,
	}, nil)
}

func (c *Client) RefSysDict(chatbotID, name string) error {
	return c.callOK(MethodRefSysDict, &RefSysDictRequest{ChatbotID: chatbotID, Name: name}, nil)
}

func (c *Client) UnrefSysDict(chatbotID, name string) error {
	return c.callOK(MethodUnrefSysDict, &UnrefSysDictRequest{ChatbotID: chatbotID, Name: name}, nil)
}

func (c *Client) MySysdicts(chatbotID string) ([]string, error) {
	var out SysDictsResult
	if err := c.callOK(MethodMySysdicts, &MySysdictsRequest{ChatbotID: chatbotID}, &out); err != nil {
		return nil, err
	}
	return out.SysDicts, nil
}

func (c *Client) PostIntent(chatbotID, name string) (*IntentData, error) {
	var out IntentData
	err := c.callOK(MethodPostIntent, &PostIntentRequest{ChatbotID: chatbotID, Name: name}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DelIntent(chatbotID, name string) error {
	return c.callOK(MethodDelIntent, &DelIntentRequest{ChatbotID: chatbotID, Name: name}, nil)
}

func (c *Client) GetIntents(chatbotID string) ([]IntentData, error) {
	var out IntentsResult
	if err := c.callOK(MethodGetIntents, &GetIntentsRequest{ChatbotID: chatbotID}, &out); err != nil {
		return nil, err
	}
	return out.Intents, nil
}

func (c *Client) PostSlot(chatbotID, intentName string, slot SlotData) error {
	return c.callOK(MethodPostSlot, &PostSlotRequest{
		ChatbotID:  chatbotID,
		IntentName: intentName,
		Slot:       slot,
	}, nil)
}

func (c *Client) PostUtter(chatbotID, intentName, utterance string) error {
	return c.callOK(MethodPostUtter, &PostUtterRequest{
		ChatbotID:  chatbotID,
		IntentName: intentName,
		Utterance:  utterance,
	}, nil)
}

func (c *Client) Train(chatbotID string) error {
	return c.callOK(MethodTrain, &TrainRequest{ChatbotID: chatbotID}, nil)
}

// Status reports the current training job. rc is RcInProgress while the
// job runs; the result carries the state and any failure reason.
func (c *Client) Status(chatbotID string) (*StatusResult, int, error) {
	var out StatusResult
	rc, err := c.call(MethodStatus, &StatusRequest{ChatbotID: chatbotID}, &out)
	var rpcErr *Error
	if err != nil && !errors.As(err, &rpcErr) {
		return nil, rc, err
	}
	return &out, rc, nil
}

// WaitTrained polls status with backoff until the running job leaves the
// running state, then reports its outcome. ctx bounds the wait.
func (c *Client) WaitTrained(ctx context.Context, chatbotID string) error {
	retry := retrypolicy.Builder[int]().
		HandleIf(func(rc int, _ error) bool { return rc == RcInProgress }).
		WithBackoff(100*time.Millisecond, 2*time.Second).
		WithMaxRetries(-1).
		Build()

	rc, err := failsafe.NewExecutor[int](retry).WithContext(ctx).Get(func() (int, error) {
		result, rc, err := c.Status(chatbotID)
		if err != nil {
			return rc, err
		}
		if rc != RcOK && rc != RcInProgress {
			return rc, &Error{Rc: rc, Message: result.Error}
		}
		return rc, nil
	})
	if err != nil {
		return err
	}
	if rc == RcInProgress {
		return &Error{Rc: RcInProgress, Message: "training still running"}
	}
	return nil
}

func (c *Client) PutSession(chatbotID, uid, channel, branch string) (*SessionData, error) {
	var out SessionResult
	err := c.callOK(MethodPutSession, &PutSessionRequest{
		ChatbotID: chatbotID,
		UID:       uid,
		Channel:   channel,
		Branch:    branch,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out.Session, nil
}

func (c *Client) Chat(sessionID, textMessage string) (*ChatResult, error) {
	var out ChatResult
	err := c.callOK(MethodChat, &ChatRequest{SessionID: sessionID, TextMessage: textMessage}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
