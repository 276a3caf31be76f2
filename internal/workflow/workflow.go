// Package workflow ties validation, generation, saving and the daily log
// into the single state machine a UI drives.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/pbaille/tailor/internal/clipboard"
	"github.com/pbaille/tailor/internal/domain"
	"github.com/pbaille/tailor/internal/generation"
)

// User-facing messages
const (
	MsgFillAllFields  = "Please fill in all fields"
	MsgGenerateFailed = "Failed to generate documents"
)

// ErrBusy is returned when a generation is requested while one is in flight
var ErrBusy = errors.New("a generation is already in progress")

// Generator produces an archive for a request
type Generator interface {
	Generate(ctx context.Context, req domain.JobRequest) (*generation.Payload, error)
}

// Saver offers a payload to the user as a file
type Saver interface {
	Save(payload []byte, filename string) (string, error)
}

// History is the daily application log
type History interface {
	LoadToday(ctx context.Context) ([]domain.ApplicationRecord, error)
	Append(ctx context.Context, title string, t domain.GenerationType) (domain.ApplicationRecord, error)
}

// State is everything a UI renders besides the form fields
type State struct {
	LoadingType domain.GenerationType      `json:"loading_type,omitempty"`
	Error       string                     `json:"error,omitempty"`
	Copied      string                     `json:"copied,omitempty"`
	SidebarOpen bool                       `json:"sidebar_open"`
	Today       []domain.ApplicationRecord `json:"today"`
}

// Loading reports whether any generation is pending
func (s State) Loading() bool { return s.LoadingType != "" }

// Outcome describes a successful generation
type Outcome struct {
	Filename string                   `json:"filename"`
	Path     string                   `json:"path"`
	Record   domain.ApplicationRecord `json:"record"`
}

// Controller owns the workflow state for one session
type Controller struct {
	gen     Generator
	saver   Saver
	history History
	clip    *clipboard.Helper
	logger  *log.Logger

	mu    sync.Mutex
	state State
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the diagnostics logger
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClipboard replaces the system clipboard helper
func WithClipboard(h *clipboard.Helper) Option {
	return func(c *Controller) { c.clip = h }
}

// New creates a Controller and loads today's log
func New(ctx context.Context, gen Generator, saver Saver, history History, opts ...Option) (*Controller, error) {
	c := &Controller{
		gen:     gen,
		saver:   saver,
		history: history,
		logger:  log.New(os.Stderr, "workflow: ", log.LstdFlags),
		state:   State{Today: []domain.ApplicationRecord{}},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clip == nil {
		c.clip = clipboard.New(clipboard.System{}, clipboard.WithLogger(c.logger))
	}

	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	s := c.state
	c.mu.Unlock()

	s.Today = append([]domain.ApplicationRecord(nil), s.Today...)
	s.Copied = c.clip.Copied()
	return s
}

// Refresh reloads today's log into the state
func (c *Controller) Refresh(ctx context.Context) error {
	today, err := c.history.LoadToday(ctx)
	if err != nil {
		return fmt.Errorf("load today: %w", err)
	}
	c.mu.Lock()
	c.state.Today = today
	c.mu.Unlock()
	return nil
}

// ToggleSidebar flips the history sidebar and returns its new state
func (c *Controller) ToggleSidebar() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SidebarOpen = !c.state.SidebarOpen
	return c.state.SidebarOpen
}

// Copy copies text and shows label as copied; failures are not reported
func (c *Controller) Copy(ctx context.Context, text, label string) {
	c.clip.Copy(ctx, text, label)
}

// Generate validates the form, requests the archive, saves it and logs it.
// Returned errors are the typed causes; State.Error holds the user-facing text.
func (c *Controller) Generate(ctx context.Context, title, description string, t domain.GenerationType) (*Outcome, error) {
	c.mu.Lock()
	// a pending generation owns the state until it settles
	if c.state.Loading() {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	req, err := domain.Validate(title, description, t)
	if err != nil {
		c.state.Error = MsgFillAllFields
		c.mu.Unlock()
		return nil, err
	}
	c.state.LoadingType = t
	c.state.Error = ""
	c.mu.Unlock()

	outcome, err := c.run(ctx, req)
	if err != nil {
		c.logger.Printf("generate %q (%s): %s: %v", req.Title, req.Type, cause(err), err)
		c.mu.Lock()
		c.state.LoadingType = ""
		c.state.Error = MsgGenerateFailed
		c.mu.Unlock()
		return nil, err
	}

	// reload rather than prepend: the day may have rolled over since the last load
	today, lerr := c.history.LoadToday(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.LoadingType = ""
	if lerr != nil {
		c.state.Today = append([]domain.ApplicationRecord{outcome.Record}, c.state.Today...)
	} else {
		c.state.Today = today
	}
	return outcome, nil
}

func (c *Controller) run(ctx context.Context, req domain.JobRequest) (*Outcome, error) {
	payload, err := c.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	path, err := c.saver.Save(payload.Data, payload.Filename)
	if err != nil {
		return nil, fmt.Errorf("save archive: %w", err)
	}

	rec, err := c.history.Append(ctx, req.Title, req.Type)
	if err != nil {
		// the archive is already on disk; only the log entry is missing
		return nil, fmt.Errorf("record application (archive saved at %s): %w", path, err)
	}

	return &Outcome{Filename: payload.Filename, Path: path, Record: rec}, nil
}

func cause(err error) string {
	var (
		nerr *generation.NetworkError
		serr *generation.ServerError
	)
	switch {
	case errors.As(err, &serr):
		return "server error"
	case errors.As(err, &nerr):
		return "network error"
	case errors.Is(err, generation.ErrInFlight):
		return "busy"
	default:
		return "local error"
	}
}
