package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	kerrors "github.com/vango-dev/kinetic/internal/errors"
	"github.com/vango-dev/kinetic/pkg/host"
	"github.com/vango-dev/kinetic/pkg/host/wirehost"
	"github.com/vango-dev/kinetic/pkg/loop"
	"github.com/vango-dev/kinetic/pkg/protocol"
	"github.com/vango-dev/kinetic/pkg/reactive"
	"github.com/vango-dev/kinetic/pkg/renderer"
	"github.com/vango-dev/kinetic/pkg/scheduler"
	"github.com/vango-dev/kinetic/pkg/telemetry"
)

// Session is one connected client with its own runtime.
type Session struct {
	id     uint64
	conn   *websocket.Conn
	srv    *Server
	logger *slog.Logger

	loop *loop.Loop
	rt   *reactive.Runtime
	host *wirehost.Host
	app  *renderer.App

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newSession(id uint64, conn *websocket.Conn, srv *Server) *Session {
	sess := &Session{
		id:     id,
		conn:   conn,
		srv:    srv,
		logger: srv.logger.With("session", id),
		send:   make(chan []byte, srv.config.SendQueue),
		done:   make(chan struct{}),
	}

	sess.loop = loop.New(
		loop.WithLogger(sess.logger),
		loop.WithPanicHandler(sess.handlerPanicked))

	schedOpts := []scheduler.Option{
		scheduler.WithLogger(sess.logger),
		scheduler.WithTracer(srv.tracer),
	}
	renderOpts := []renderer.Option{
		renderer.WithLogger(sess.logger),
		renderer.WithTracer(srv.tracer),
	}
	sess.host = wirehost.New(wirehost.WithLogger(sess.logger))
	var adapter host.Adapter = sess.host
	if srv.metrics != nil {
		schedOpts = append(schedOpts, scheduler.WithObserver(srv.metrics))
		renderOpts = append(renderOpts, renderer.WithObserver(srv.metrics))
		adapter = host.Instrument(sess.host, srv.metrics)
	}

	sess.rt = reactive.New(scheduler.New(sess.loop, schedOpts...), reactive.WithLogger(sess.logger))
	r := renderer.New(adapter, sess.rt, renderOpts...)
	sess.app = r.CreateApp(srv.root, srv.props)
	sess.loop.AfterTurn(sess.flushFrames)
	return sess
}

// ID returns the session id.
func (s *Session) ID() uint64 { return s.id }

// serve runs the session until the connection drops or Close is called.
func (s *Session) serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.logger.Info("session started", "remote", s.conn.RemoteAddr().String())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.writeLoop()
	}()
	go func() {
		defer wg.Done()
		s.loop.Run(ctx)
		// Run has returned, so this goroutine is the only one touching the
		// runtime.
		s.app.Unmount()
	}()

	if err := s.loop.Submit(s.mount); err != nil {
		s.Close()
	}
	s.readLoop()
	s.Close()
	wg.Wait()

	s.logger.Info("session closed")
}

func (s *Session) mount() {
	if !s.app.Mount(s.host.Root()) {
		s.logger.Error("root mount failed", "code", kerrors.CodeContainerUnresolved)
		s.Close()
	}
}

// Close stops the session. It is safe to call more than once and from any
// goroutine.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.loop.Close()
		s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		s.conn.Close()
	})
}

// readLoop decodes client frames and submits events to the loop.
func (s *Session) readLoop() {
	cfg := s.srv.config
	s.conn.SetReadLimit(cfg.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.reject(kerrors.New(kerrors.CodeInvalidFrame).Wrap(err), protocol.ErrInvalidFrame)
			continue
		}
		if frame.Type != protocol.FrameEvent {
			s.reject(kerrors.New(kerrors.CodeInvalidFrame).
				WithDetail(fmt.Sprintf("unexpected %s frame", frame.Type)), protocol.ErrInvalidFrame)
			continue
		}
		ev, err := protocol.DecodeEvent(frame.Payload)
		if err != nil {
			s.reject(kerrors.New(kerrors.CodeInvalidEvent).Wrap(err), protocol.ErrInvalidEvent)
			continue
		}
		if err := s.loop.Submit(func() { s.dispatch(ev) }); err != nil {
			return
		}
	}
}

// dispatch runs on the loop goroutine.
func (s *Session) dispatch(ev *protocol.Event) {
	_, span := s.srv.tracer.Start(context.Background(), "session.event")
	defer span.End()

	if err := s.host.Dispatch(ev); err != nil {
		ke := kerrors.New(kerrors.CodeHandlerNotFound).Wrap(err)
		telemetry.RecordError(span, ke)
		code := protocol.ErrHandlerNotFound
		if em, ok := err.(*protocol.ErrorMessage); ok {
			code = em.Code
		}
		s.reject(ke, code)
	}
}

// handlerPanicked runs after the loop recovered a panicking turn.
func (s *Session) handlerPanicked(v any) {
	s.sendError(protocol.NewError(protocol.ErrHandlerPanic, fmt.Sprint(v)))
}

// reject logs and counts a refused client frame and reports it to the
// client.
func (s *Session) reject(err *kerrors.Error, code protocol.ErrorCode) {
	s.logger.Warn("client frame rejected", "code", err.Code, "error", err)
	if s.srv.metrics != nil {
		s.srv.metrics.ProtocolError(err)
	}
	s.sendError(protocol.NewError(code, err.Message))
}

func (s *Session) sendError(em *protocol.ErrorMessage) {
	s.enqueue(protocol.NewFrame(protocol.FrameError, protocol.EncodeErrorMessage(em)).Encode())
}

// flushFrames runs after every loop turn and hands the turn's patches to the
// writer.
func (s *Session) flushFrames() {
	for _, f := range s.host.TakeFrames() {
		s.enqueue(f.Encode())
	}
}

// enqueue blocks while the send queue is full.
func (s *Session) enqueue(b []byte) {
	select {
	case s.send <- b:
	case <-s.done:
	}
}

func (s *Session) writeLoop() {
	cfg := s.srv.config
	ticker := time.NewTicker(cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case b := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, b); err != nil {
				s.logger.Error("write failed", "code", kerrors.CodeWriteFailed, "error", err)
				s.Close()
				return
			}
			if s.srv.metrics != nil {
				s.srv.metrics.FrameSent(len(b))
			}

		case <-ticker.C:
			deadline := time.Now().Add(cfg.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.Close()
				return
			}

		case <-s.done:
			return
		}
	}
}
