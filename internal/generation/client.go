package generation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/pbaille/tailor/internal/domain"
)

// DefaultEndpoint is where a locally running generation service listens
const DefaultEndpoint = "http://localhost:8000/generate"

// Phase is the lifecycle position of the client
type Phase string

const (
	Idle    Phase = "idle"
	Pending Phase = "pending"
)

// State reports whether a generation is in flight and for which type
type State struct {
	Phase Phase                 `json:"phase"`
	Type  domain.GenerationType `json:"type,omitempty"`
}

var (
	// ErrGeneration is matched by NetworkError and ServerError
	ErrGeneration = errors.New("generation failed")
	// ErrInFlight is returned when Generate is called while another call is pending
	ErrInFlight = errors.New("generation already in progress")
)

// NetworkError wraps a transport failure talking to the service
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }
func (e *NetworkError) Is(target error) bool { return target == ErrGeneration }

// ServerError is a non-2xx answer from the service
type ServerError struct {
	StatusCode int
	Body       string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server error (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("server error (status %d): %s", e.StatusCode, e.Body)
}

func (e *ServerError) Is(target error) bool { return target == ErrGeneration }

// Payload is the archive returned by the service
type Payload struct {
	Data        []byte
	Filename    string
	ContentType string
	RequestID   string
}

// Client posts job requests to the generation service
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *log.Logger

	mu    sync.Mutex
	state State
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the diagnostics logger
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client for endpoint.
// No timeout is set: a call ends when the service answers, the transport fails or ctx is done.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{},
		logger:     log.New(os.Stderr, "generation: ", log.LstdFlags),
		state:      State{Phase: Idle},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) begin(t domain.GenerationType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Phase == Pending {
		return false
	}
	c.state = State{Phase: Pending, Type: t}
	return true
}

func (c *Client) settle() {
	c.mu.Lock()
	c.state = State{Phase: Idle}
	c.mu.Unlock()
}

// Generate sends req and waits for the archive
func (c *Client) Generate(ctx context.Context, req domain.JobRequest) (*Payload, error) {
	if !c.begin(req.Type) {
		return nil, ErrInFlight
	}
	defer c.settle()

	requestID := uuid.NewString()
	payload, err := c.do(ctx, req, requestID)
	if err != nil {
		c.logger.Printf("request %s (%s) failed: %v", requestID, req.Type, err)
		return nil, err
	}

	c.logger.Printf("request %s (%s) ok: %d bytes", requestID, req.Type, len(payload.Data))
	return payload, nil
}

func (c *Client) do(ctx context.Context, req domain.JobRequest, requestID string) (*Payload, error) {
	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, fmt.Errorf("encode form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &ServerError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("read body: %w", err)}
	}

	return &Payload{
		Data:        data,
		Filename:    domain.ArtifactName(req.Title, req.Type),
		ContentType: resp.Header.Get("Content-Type"),
		RequestID:   requestID,
	}, nil
}

func encodeForm(req domain.JobRequest) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"job_title", req.Title},
		{"job_description", req.Description},
		{"type", string(req.Type)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}
