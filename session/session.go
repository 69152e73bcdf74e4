// ABOUTME: Session state machine for one dataset channel: connection status, busy flag, log lines, transcript.
// ABOUTME: Every transition runs under one mutex so a submit can never interleave with another submit or event.
package session

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

var (
	// ErrBusy indicates a request is already in flight; the submission was dropped.
	ErrBusy = errors.New("a request is already in progress")

	// ErrEmptyInput indicates the submitted text was blank.
	ErrEmptyInput = errors.New("empty input")

	// ErrNotConnected indicates the channel was not open at submit time.
	ErrNotConnected = errors.New("channel not connected")

	// ErrSendFailed wraps the transport error returned by a Sender.
	ErrSendFailed = errors.New("send failed")

	// ErrUnknownEvent indicates an inbound event with an unrecognized type.
	ErrUnknownEvent = errors.New("unknown event type")

	// ErrClosed indicates the session has been closed.
	ErrClosed = errors.New("session closed")

	// ErrAlreadyOpen indicates Open was called on a session that is not connecting.
	ErrAlreadyOpen = errors.New("session already open")
)

const (
	// ConnectedLine is the local log line recorded when the channel opens.
	ConnectedLine = "Connected"

	// ProcessingLine is the synthetic log line shown as soon as a request is sent.
	ProcessingLine = "Processing..."

	// ErrorPrefix starts the text of every agent error entry.
	ErrorPrefix = "❌ Error: "

	// NotConnectedText is the agent entry recorded for a submit on a closed channel.
	NotConnectedText = "❌ WebSocket not connected"

	maxNotices = 200
)

// Status is the connection state of a session.
type Status string

const (
	StatusConnecting Status = "connecting"
	StatusOpen       Status = "open"
	StatusClosed     Status = "closed"
)

// Sender transmits an outbound payload on the session's channel.
type Sender interface {
	Send(Outbound) error
}

// State is a snapshot of a session. Slices are copies.
type State struct {
	FileID          string
	Filename        string
	Status          Status
	Busy            bool
	PendingLogLines []string
	Transcript      []Entry
	Notices         []string
}

// Option configures a Session.
type Option func(*Session)

// WithFilename records the display name of the uploaded dataset.
func WithFilename(name string) Option {
	return func(s *Session) { s.filename = name }
}

// WithInitialAnalysis marks the session busy as soon as it opens, for
// backends that push a dataset summary right after connect.
func WithInitialAnalysis() Option {
	return func(s *Session) { s.initialAnalysis = true }
}

// WithClock overrides the time source used for entry timestamps and IDs.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger for transition logging.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithEntryHook registers fn to be called with every appended entry, in
// transcript order. fn runs while the session lock is held and must not
// call back into the session.
func WithEntryHook(fn func(Entry)) Option {
	return func(s *Session) { s.onEntry = fn }
}

// Session owns the state of one dataset channel.
type Session struct {
	mu sync.Mutex

	fileID          string
	filename        string
	initialAnalysis bool
	now             func() time.Time
	logger          *log.Logger
	onEntry         func(Entry)

	status     Status
	sender     Sender
	busy       bool
	pending    []string
	transcript []Entry
	notices    []string
}

// New creates a session for fileID in the connecting state.
func New(fileID string, opts ...Option) *Session {
	s := &Session{
		fileID: fileID,
		status: StatusConnecting,
		now:    time.Now,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileID returns the dataset handle the session is bound to.
func (s *Session) FileID() string { return s.fileID }

// Open moves a connecting session to open and records the connected line.
func (s *Session) Open(sender Sender) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.status {
	case StatusClosed:
		return ErrClosed
	case StatusOpen:
		return ErrAlreadyOpen
	}

	s.status = StatusOpen
	s.sender = sender
	if s.initialAnalysis {
		s.busy = true
	}
	s.recordLog(ConnectedLine)
	s.logger.Printf("component=session action=open file_id=%s busy=%t", s.fileID, s.busy)
	return nil
}

// Submit records a user message and sends it. See the package errors for
// the ways a submission can be refused.
func (s *Session) Submit(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrBusy
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyInput
	}

	s.appendEntry(Entry{Origin: OriginUser, Text: text})

	if s.status != StatusOpen || s.sender == nil {
		s.appendEntry(Entry{Origin: OriginAgent, Text: NotConnectedText, IsError: true})
		s.logger.Printf("component=session action=submit file_id=%s status=%s err=not_connected", s.fileID, s.status)
		return ErrNotConnected
	}

	s.busy = true
	s.pending = []string{ProcessingLine}

	if err := s.sender.Send(Outbound{Message: text}); err != nil {
		s.appendEntry(Entry{Origin: OriginAgent, Text: ErrorPrefix + err.Error(), IsError: true})
		s.busy = false
		s.pending = nil
		s.logger.Printf("component=session action=submit file_id=%s err=%v", s.fileID, err)
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	s.logger.Printf("component=session action=submit file_id=%s chars=%d", s.fileID, len(text))
	return nil
}

// Apply folds one inbound event into the session.
func (s *Session) Apply(evt Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusClosed {
		return ErrClosed
	}

	switch evt.Type {
	case EventLog:
		s.recordLog(evt.Message)
	case EventResult:
		s.appendEntry(Entry{
			Origin:  OriginAgent,
			Text:    evt.Content,
			Figures: evt.Figures,
			Image:   evt.Image,
		})
		s.settle()
		s.logger.Printf("component=session action=result file_id=%s figures=%d image_bytes=%d", s.fileID, len(evt.Figures), len(evt.Image))
	case EventError:
		s.appendEntry(Entry{Origin: OriginAgent, Text: ErrorPrefix + evt.Content, IsError: true})
		s.settle()
		s.logger.Printf("component=session action=error file_id=%s content=%q", s.fileID, evt.Content)
	default:
		s.logger.Printf("component=session action=ignore file_id=%s type=%q", s.fileID, evt.Type)
		return fmt.Errorf("%w: %q", ErrUnknownEvent, evt.Type)
	}
	return nil
}

// Close ends the session locally. It is idempotent and leaves the
// transcript untouched; an in-flight request is abandoned.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == StatusClosed {
		return
	}
	s.status = StatusClosed
	s.sender = nil
	s.settle()
	s.logger.Printf("component=session action=close file_id=%s entries=%d", s.fileID, len(s.transcript))
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		FileID:          s.fileID,
		Filename:        s.filename,
		Status:          s.status,
		Busy:            s.busy,
		PendingLogLines: append([]string(nil), s.pending...),
		Notices:         append([]string(nil), s.notices...),
		Transcript:      make([]Entry, len(s.transcript)),
	}
	for i, e := range s.transcript {
		st.Transcript[i] = e.clone()
	}
	return st
}

// Busy reports whether a request is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Status reports the connection state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// recordLog adds a log line to the pending list while busy, otherwise to notices.
func (s *Session) recordLog(line string) {
	if s.busy {
		s.pending = append(s.pending, line)
		return
	}
	s.notices = append(s.notices, line)
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}

// settle marks the current request finished.
func (s *Session) settle() {
	s.busy = false
	s.pending = nil
}

func (s *Session) appendEntry(e Entry) {
	e.At = s.now().UTC()
	e.ID = NewULID(e.At)
	e = e.clone()
	s.transcript = append(s.transcript, e)
	if s.onEntry != nil {
		s.onEntry(e.clone())
	}
}

