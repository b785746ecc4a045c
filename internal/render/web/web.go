// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package web serves the two viewports to a browser. The pipeline draws into
// a pair of render.Recorders; every completed pair is pushed as JSON to the
// connected viewer over a websocket.
package web

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/quat_visualizer/internal/render"
)

const writeWait = 5 * time.Second

//go:embed index.html
var indexHTML []byte

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // viewer is served on the bench network
	},
}

// Frame is one rendered pair as sent to the browser.
type Frame struct {
	Seq         uint64       `json:"seq"`
	GroundTruth render.Scene `json:"ground_truth"`
	Estimated   render.Scene `json:"estimated"`
}

// Server owns the recorders the pipeline draws into and the single viewer
// connection. A new viewer replaces the previous one.
type Server struct {
	log zerolog.Logger
	gt  *render.Recorder
	est *render.Recorder

	mu      sync.Mutex
	pending render.Scene
	latest  *Frame
	seq     uint64
	viewer  *viewer
}

func New(log zerolog.Logger) *Server {
	s := &Server{
		log: log,
		gt:  render.NewRecorder(),
		est: render.NewRecorder(),
	}
	s.gt.OnPresent = s.presentGroundTruth
	s.est.OnPresent = s.presentEstimated
	return s
}

func (s *Server) GroundTruth() render.Surface { return s.gt }
func (s *Server) Estimated() render.Surface   { return s.est }

// Latest returns the last complete pair, if any.
func (s *Server) Latest() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.latest == nil {
		return Frame{}, false
	}
	return *s.latest, true
}

func (s *Server) presentGroundTruth(scene render.Scene) {
	s.mu.Lock()
	s.pending = scene
	s.mu.Unlock()
}

// presentEstimated completes the pair; the loop always draws ground truth
// first.
func (s *Server) presentEstimated(scene render.Scene) {
	s.mu.Lock()
	s.seq++
	f := Frame{Seq: s.seq, GroundTruth: s.pending, Estimated: scene}
	s.latest = &f
	v := s.viewer
	s.mu.Unlock()

	if v != nil {
		v.offer(f)
	}
}

// Handler routes "/", "/api/frame" and "/ws".
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/frame", s.handleFrame)
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

// ListenAndServe serves on port until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Msg("web: listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.dropViewer("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	f, ok := s.Latest()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(f); err != nil {
		s.log.Warn().Err(err).Msg("web: json encode error")
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("web: websocket upgrade error")
		return
	}

	v := newViewer(conn)
	log := s.log.With().Str("session", v.id).Logger()

	s.mu.Lock()
	old := s.viewer
	s.viewer = v
	latest := s.latest
	s.mu.Unlock()

	if old != nil {
		old.close("replaced by a new viewer")
		log.Info().Str("replaced", old.id).Msg("web: viewer replaced")
	} else {
		log.Info().Str("remote", r.RemoteAddr).Msg("web: viewer connected")
	}
	if latest != nil {
		v.offer(*latest)
	}

	go v.writeLoop(log)

	// reads only detect the browser going away
	for {
		if _, _, err := conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("web: websocket read error")
			}
			break
		}
	}

	s.mu.Lock()
	if s.viewer == v {
		s.viewer = nil
	}
	s.mu.Unlock()
	v.close("")
}

func (s *Server) dropViewer(reason string) {
	s.mu.Lock()
	v := s.viewer
	s.viewer = nil
	s.mu.Unlock()
	if v != nil {
		v.close(reason)
	}
}

// Close disconnects the viewer. The HTTP server stops with its context.
func (s *Server) Close() error {
	s.dropViewer("server shutting down")
	return nil
}

// viewer is one browser connection. Only writeLoop writes data frames; the
// channel holds at most the newest frame.
type viewer struct {
	id     string
	conn   *websocket.Conn
	frames chan Frame
	done   chan struct{}
	once   sync.Once
}

func newViewer(conn *websocket.Conn) *viewer {
	return &viewer{
		id:     uuid.NewString(),
		conn:   conn,
		frames: make(chan Frame, 1),
		done:   make(chan struct{}),
	}
}

// offer queues f, discarding a frame the writer has not picked up yet.
func (v *viewer) offer(f Frame) {
	for {
		select {
		case v.frames <- f:
			return
		case <-v.done:
			return
		default:
		}
		select {
		case <-v.frames:
		default:
		}
	}
}

func (v *viewer) writeLoop(log zerolog.Logger) {
	for {
		select {
		case <-v.done:
			return
		case f := <-v.frames:
			if err := v.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				v.close("")
				return
			}
			if err := v.conn.WriteJSON(f); err != nil {
				log.Debug().Err(err).Msg("web: websocket write error")
				v.close("")
				return
			}
		}
	}
}

func (v *viewer) close(reason string) {
	v.once.Do(func() {
		close(v.done)
		if reason != "" {
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, reason)
			_ = v.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		}
		_ = v.conn.Close()
	})
}
