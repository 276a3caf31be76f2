package clipboard

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	sysclip "github.com/atotto/clipboard"
)

// FeedbackWindow is how long a "copied" label stays visible
const FeedbackWindow = 2 * time.Second

// Writer puts text on a clipboard
type Writer interface {
	WriteAll(text string) error
}

// System writes to the OS clipboard
type System struct{}

// WriteAll copies text to the system clipboard
func (System) WriteAll(text string) error {
	if sysclip.Unsupported {
		return fmt.Errorf("no clipboard utility available")
	}
	return sysclip.WriteAll(text)
}

// Error records a failed copy; it is logged, never returned
type Error struct {
	Label string
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("copy %q: %v", e.Label, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Helper copies text and tracks which label was copied last
type Helper struct {
	writer Writer
	window time.Duration
	logger *log.Logger

	mu     sync.Mutex
	label  string
	timer  *time.Timer
	armed  uint64
	onFail func(*Error)
}

// Option configures a Helper
type Option func(*Helper)

// WithWindow overrides FeedbackWindow
func WithWindow(d time.Duration) Option {
	return func(h *Helper) { h.window = d }
}

// WithLogger sets the diagnostics logger
func WithLogger(l *log.Logger) Option {
	return func(h *Helper) { h.logger = l }
}

// OnFailure registers a hook invoked with each swallowed copy error
func OnFailure(fn func(*Error)) Option {
	return func(h *Helper) { h.onFail = fn }
}

// New creates a Helper writing through w
func New(w Writer, opts ...Option) *Helper {
	h := &Helper{
		writer: w,
		window: FeedbackWindow,
		logger: log.New(os.Stderr, "clipboard: ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Copy writes text to the clipboard and shows label until the window passes.
// Failures are logged and otherwise ignored.
func (h *Helper) Copy(ctx context.Context, text, label string) {
	errc := make(chan error, 1)
	go func() { errc <- h.writer.WriteAll(text) }()

	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err != nil {
		cerr := &Error{Label: label, Err: err}
		h.logger.Printf("%v", cerr)
		if h.onFail != nil {
			h.onFail(cerr)
		}
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.timer != nil {
		h.timer.Stop()
	}
	h.armed++
	gen := h.armed
	h.label = label
	h.timer = time.AfterFunc(h.window, func() { h.expire(gen) })
}

func (h *Helper) expire(gen uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	// a later copy re-armed the slot
	if gen != h.armed {
		return
	}
	h.label = ""
	h.timer = nil
}

// Copied returns the label currently shown as copied, or ""
func (h *Helper) Copied() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.label
}
