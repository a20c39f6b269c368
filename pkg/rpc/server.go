package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/parleybot/parley/internal"
	"github.com/parleybot/parley/pkg/models"
)

var log = internal.GetLogger()

type handlerFunc func(ctx context.Context, body msgpack.RawMessage) (result any, rc int, err error)

// Server is the framed-msgpack TCP front end. Each accepted connection is
// served by its own goroutine; requests on a connection are handled in
// order, matching the request/response framing.
type Server struct {
	appState *models.AppState
	validate *validator.Validate
	maxFrame int
	handlers map[string]handlerFunc

	mu    sync.Mutex
	ln    net.Listener
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// Create returns a server configured from appState but not yet listening.
func Create(appState *models.AppState) *Server {
	maxFrame := appState.Config.RPC.MaxFrameSize
	if maxFrame <= 0 {
		maxFrame = DefaultMaxFrameSize
	}
	s := &Server{
		appState: appState,
		validate: validator.New(),
		maxFrame: maxFrame,
		conns:    make(map[net.Conn]struct{}),
	}
	s.handlers = map[string]handlerFunc{
		MethodPostCustomDict: s.postCustomDict,
		MethodDelCustomDict:  s.delCustomDict,
		MethodPutDictWord:    s.putDictWord,
		MethodPutDictPattern: s.putDictPattern,
		MethodRefSysDict:     s.refSysDict,
		MethodUnrefSysDict:   s.unrefSysDict,
		MethodMySysdicts:     s.mySysdicts,
		MethodPostIntent:     s.postIntent,
		MethodDelIntent:      s.delIntent,
		MethodGetIntents:     s.getIntents,
		MethodPostSlot:       s.postSlot,
		MethodPostUtter:      s.postUtter,
		MethodTrain:          s.train,
		MethodStatus:         s.status,
		MethodPutSession:     s.putSession,
		MethodChat:           s.chat,
	}
	return s
}

// Listen binds the configured address and starts serving in the
// background. Use Addr to discover the bound port when the configured
// port is 0.
func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.appState.Config.RPC.Host, s.appState.Config.RPC.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	log.Infof("rpc server listening on %s", ln.Addr())
	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Close stops accepting, closes every live connection and waits for the
// per-connection goroutines to drain.
func (s *Server) Close() error {
	s.mu.Lock()
	ln := s.ln
	s.ln = nil
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	var err error
	if ln != nil {
		err = ln.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Errorf("rpc accept failed: %v", err)
			}
			return
		}

		s.mu.Lock()
		if s.ln == nil {
			s.mu.Unlock()
			_ = conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	ctx := context.Background()
	for {
		var req Request
		if err := readMessage(conn, s.maxFrame, &req); err != nil {
			// Client hangups are routine; anything else means the stream
			// is out of sync and the connection cannot be reused.
			return
		}
		resp := s.dispatch(ctx, &req)
		if err := writeMessage(conn, resp); err != nil {
			log.Errorf("rpc write failed: %v", err)
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	handler, ok := s.handlers[req.Method]
	if !ok {
		return &Response{Rc: RcInvalid, Error: "unknown method " + req.Method}
	}

	result, rc, err := handler(ctx, req.Body)
	if err != nil {
		log.Debugf("rpc %s failed: %v", req.Method, err)
		return &Response{Rc: RcForError(err), Error: err.Error()}
	}

	resp := &Response{Rc: rc}
	if result != nil {
		body, err := msgpack.Marshal(result)
		if err != nil {
			log.Errorf("rpc %s: failed to encode result: %v", req.Method, err)
			return &Response{Rc: RcInternal, Error: "failed to encode result"}
		}
		resp.Body = body
	}
	return resp
}

// decode unmarshals and validates a request body. Both failure modes are
// client mistakes and map to RcInvalid.
func (s *Server) decode(body msgpack.RawMessage, v any) error {
	if err := msgpack.Unmarshal(body, v); err != nil {
		return models.NewBadRequestError("malformed request body: " + err.Error())
	}
	if err := s.validate.Struct(v); err != nil {
		return models.NewBadRequestError(err.Error())
	}
	return nil
}
