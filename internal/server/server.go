// Package server exposes daemon control as newline-delimited JSON over
// TCP. Each request line yields exactly one response line; malformed
// input produces a failure response without closing the connection.
package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"gantry/internal/logging"
	"gantry/internal/protocol"
)

// maxLineBytes bounds a single request line. Command payloads are small;
// anything larger is a misbehaving client.
const maxLineBytes = 1 << 20

// Handler executes one command request and produces its response.
type Handler interface {
	Handle(ctx context.Context, req protocol.Request) protocol.Response
}

// Server accepts command connections and dispatches request lines to a
// Handler.
type Server struct {
	addr     string
	handler  Handler
	logger   *slog.Logger
	listener net.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer binds the command listener at the given TCP address.
func NewServer(ctx context.Context, addr string, handler Handler, logger *slog.Logger) (*Server, error) {
	if handler == nil {
		return nil, errors.New("command server requires a handler")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		addr:     addr,
		handler:  handler,
		logger:   logging.NewComponentLogger(logger, "server"),
		listener: listener,
		ctx:      serverCtx,
		cancel:   cancel,
	}, nil
}

// Addr returns the bound listen address, useful when the configured
// address used port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Serve starts accepting connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Info("command server listening", logging.String("addr", s.Addr()))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "accept_failed"),
					logging.String(logging.FieldImpact, "clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check that no other process holds the port"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.handleConn(c)
			}(conn)
		}
	}()
}

// Close stops accepting and waits for in-flight connections to drain.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
}

func (s *Server) handleConn(conn net.Conn) {
	done := make(chan struct{})
	defer close(done)
	defer conn.Close()

	// Unblock the pending read on shutdown. The done channel lets this
	// watcher exit when the connection closes normally.
	go func() {
		select {
		case <-s.ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var resp protocol.Response
		var req protocol.Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("malformed request",
				logging.Error(err),
				logging.String(logging.FieldEventType, "malformed_request"),
				logging.String("remote", conn.RemoteAddr().String()))
			resp = protocol.Errorf("invalid request: %v", err)
		} else {
			resp = s.handler.Handle(s.ctx, req)
		}

		if err := writeResponse(conn, resp); err != nil {
			s.logger.Warn("response write failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "response_write_failed"),
				logging.String("remote", conn.RemoteAddr().String()))
			return
		}
	}

	if err := scanner.Err(); errors.Is(err, bufio.ErrTooLong) {
		s.logger.Warn("request line too long",
			logging.String(logging.FieldEventType, "malformed_request"),
			logging.Int("limit_bytes", maxLineBytes),
			logging.String("remote", conn.RemoteAddr().String()))
		_ = writeResponse(conn, protocol.Errorf("request line exceeds %d bytes", maxLineBytes))
	}
}

func writeResponse(conn net.Conn, resp protocol.Response) error {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(protocol.Errorf("encode response: %v", err))
	}
	_, err = conn.Write(append(data, '\n'))
	return err
}
