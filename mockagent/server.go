// ABOUTME: Mock analysis backend serving the upload route and per-dataset websocket channels behind a chi router.
// ABOUTME: Streams node log lines then a canned result for each question; used for demos and integration tests.
package mockagent

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/2389-research/datachat/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait = 10 * time.Second
	wsPongWait  = 60 * time.Second
	wsPingEvery = (wsPongWait * 9) / 10

	maxUploadBytes = 32 << 20

	// SessionNotFound is the error content sent for an unknown file id.
	SessionNotFound = "Session not found. Please upload a file first."
)

// Nodes are the pipeline stages reported in log frames for each question.
var Nodes = []string{"planner", "executor"}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// Config holds the configuration for the mock agent.
type Config struct {
	MaxDatasets int           // default 100
	TTL         time.Duration // default 1h
	StepDelay   time.Duration // pause between streamed frames
	Logger      *log.Logger
}

// Server is the mock analysis backend.
type Server struct {
	store     *Store
	router    chi.Router
	stepDelay time.Duration
	logger    *log.Logger
}

// NewServer creates a Server with the given configuration.
func NewServer(cfg Config) *Server {
	if cfg.MaxDatasets <= 0 {
		cfg.MaxDatasets = 100
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	s := &Server{
		store:     NewStore(cfg.MaxDatasets, cfg.TTL),
		stepDelay: cfg.StepDelay,
		logger:    cfg.Logger,
	}
	s.router = s.buildRouter()
	return s
}

// Store exposes the dataset registry.
func (s *Server) Store() *Store { return s.store }

// ServeHTTP delegates to the chi router, satisfying http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// buildRouter constructs the chi router with all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Post("/api/v1/upload", s.handleUpload)
	r.Get("/ws/{fileID}", s.handleChannel)

	return r
}

// handleHealth returns a JSON health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "datasets": s.store.Len()})
}

// handleUpload accepts a multipart "file" field and registers a dataset.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "missing file field: " + err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}

	ds := s.store.Create(header.Filename, data)
	s.logger.Printf("mockagent upload file_id=%s filename=%q bytes=%d", ds.ID, ds.Filename, ds.Size)
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "File uploaded successfully",
		"file_id":  ds.ID,
		"filename": ds.Filename,
	})
}

// handleChannel runs one dataset channel: summary on connect, then one
// streamed answer per inbound message.
func (s *Server) handleChannel(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("mockagent upgrade file_id=%s err=%v", fileID, err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(wsPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	// The handler is the only sender on writeCh and closes it on exit; the
	// writer drains what is queued, sends a close frame, and stops.
	writeCh := make(chan session.Event, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		ticker := time.NewTicker(wsPingEvery)
		defer ticker.Stop()

		for {
			select {
			case out, ok := <-writeCh:
				if !ok {
					msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
					_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
					return
				}
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()
	defer func() {
		close(writeCh)
		<-writerDone
	}()

	push := func(evt session.Event) bool {
		select {
		case writeCh <- evt:
		case <-ctx.Done():
			return false
		}
		if s.stepDelay > 0 {
			select {
			case <-time.After(s.stepDelay):
			case <-ctx.Done():
				return false
			}
		}
		return true
	}

	ds, ok := s.store.Get(fileID)
	if !ok {
		s.logger.Printf("mockagent channel file_id=%s err=not_found", fileID)
		push(session.Event{Type: session.EventError, Content: SessionNotFound})
		return
	}
	s.logger.Printf("mockagent channel file_id=%s action=open", fileID)

	if ds.Summary == nil {
		if !push(session.Event{Type: session.EventLog, Node: "System", Message: "Analyzing your data..."}) {
			return
		}
		summary := summaryEvent(ds)
		s.store.Update(fileID, func(d *Dataset) { d.Summary = &summary })
		if !push(summary) {
			return
		}
	} else if !push(*ds.Summary) {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			s.logger.Printf("mockagent channel file_id=%s action=close err=%v", fileID, err)
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var req session.Outbound
		if err := json.Unmarshal(data, &req); err != nil {
			push(session.Event{Type: session.EventError, Content: "invalid request: " + err.Error()})
			continue
		}
		if !s.answer(fileID, req.Message, push) {
			return
		}
	}
}

// answer streams the node log lines and the terminal frame for one question.
func (s *Server) answer(fileID, question string, push func(session.Event) bool) bool {
	var turn int
	var ds Dataset
	if !s.store.Update(fileID, func(d *Dataset) {
		d.Turns++
		turn = d.Turns
		ds = *d
	}) {
		return push(session.Event{Type: session.EventError, Content: SessionNotFound})
	}

	if strings.Contains(strings.ToLower(question), "fail") {
		if !push(session.Event{Type: session.EventLog, Node: Nodes[0], Message: "Starting..."}) {
			return false
		}
		return push(session.Event{Type: session.EventError, Content: "analysis failed for question: " + question})
	}

	for _, node := range Nodes {
		if !push(session.Event{Type: session.EventLog, Node: node, Message: "Starting..."}) {
			return false
		}
		if !push(session.Event{Type: session.EventLog, Node: node, Message: "Completed."}) {
			return false
		}
	}
	s.logger.Printf("mockagent answer file_id=%s turn=%d", fileID, turn)
	return push(answerEvent(ds, question, turn))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("mockagent encode response err=%v", err)
	}
}
