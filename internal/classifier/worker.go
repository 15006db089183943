package classifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/dvloznov/expense-analyzer/internal/logger"
)

// DefaultTimeout is the silence window after which a call is abandoned. Any
// progress message restarts it.
const DefaultTimeout = 120 * time.Second

// MessageType tags worker messages.
type MessageType string

const (
	MsgClassify MessageType = "classify"
	MsgProgress MessageType = "progress"
	MsgResult   MessageType = "result"
	MsgError    MessageType = "error"
)

// Request is the payload of a classify message.
type Request struct {
	ID     string   `json:"id"`
	Text   string   `json:"text"`
	Labels []string `json:"labels"`
	Model  string   `json:"model"`
}

// Progress is relayed from the oracle while it loads a model or infers.
type Progress struct {
	Status   string  `json:"status"`
	Name     string  `json:"name,omitempty"`
	File     string  `json:"file,omitempty"`
	Progress float64 `json:"progress"`
	Loaded   int64   `json:"loaded,omitempty"`
	Total    int64   `json:"total,omitempty"`
}

// Message is one reply from the oracle.
type Message struct {
	Type     MessageType `json:"type"`
	ID       string      `json:"id,omitempty"`
	Progress *Progress   `json:"progress,omitempty"`
	Result   *Result     `json:"result,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Backend runs one classify request and writes its replies to out. It must
// stop sending once ctx is done.
type Backend interface {
	Run(ctx context.Context, req Request, out chan<- Message)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, req Request, out chan<- Message)

// Run implements Backend.
func (f BackendFunc) Run(ctx context.Context, req Request, out chan<- Message) { f(ctx, req, out) }

// Send delivers msg unless ctx is done first.
func Send(ctx context.Context, out chan<- Message, msg Message) bool {
	select {
	case out <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// Worker speaks the classify/progress/result/error protocol with a Backend
// and turns it into a blocking Classify call with a resettable timeout.
// One call is outstanding at a time. Cancelling the call's context is how a
// user stops it: the outstanding request is rejected with ErrCancelled and the
// backend's context is cancelled with it.
type Worker struct {
	backend    Backend
	clock      clockwork.Clock
	timeout    time.Duration
	onProgress func(Progress)

	mu   sync.Mutex
	busy bool
}

// WorkerOption customises a Worker.
type WorkerOption func(*Worker)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clockwork.Clock) WorkerOption { return func(w *Worker) { w.clock = c } }

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) WorkerOption { return func(w *Worker) { w.timeout = d } }

// WithProgress registers a callback for relayed progress messages.
func WithProgress(fn func(Progress)) WorkerOption { return func(w *Worker) { w.onProgress = fn } }

// NewWorker creates a Worker over backend.
func NewWorker(backend Backend, opts ...WorkerOption) *Worker {
	w := &Worker{
		backend: backend,
		clock:   clockwork.NewRealClock(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Classify posts a classify request and waits for the matching result or
// error. Replies carrying another request ID are ignored.
func (w *Worker) Classify(ctx context.Context, text string, labels []string, model string) (*Result, error) {
	log := logger.FromContext(ctx)

	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		return nil, fmt.Errorf("Worker.Classify: another classification is in flight")
	}
	w.busy = true
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.busy = false
		w.mu.Unlock()
	}()

	callCtx, stop := context.WithCancel(ctx)
	defer stop()

	req := Request{ID: uuid.NewString(), Text: text, Labels: labels, Model: model}
	out := make(chan Message, 8)
	go w.backend.Run(callCtx, req, out)

	timer := w.clock.NewTimer(w.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil, fmt.Errorf("Worker.Classify: %w: %w", ErrCancelled, ctx.Err())
			}
			return nil, ctx.Err()
		case <-timer.Chan():
			log.Warn().Str("request_id", req.ID).Dur("timeout", w.timeout).Msg("Classification timed out")
			return nil, ErrTimeout
		case msg := <-out:
			switch msg.Type {
			case MsgProgress:
				timer.Reset(w.timeout)
				if w.onProgress != nil && msg.Progress != nil {
					w.onProgress(*msg.Progress)
				}
			case MsgResult:
				if msg.ID != req.ID {
					continue
				}
				if msg.Result == nil {
					return nil, fmt.Errorf("Worker.Classify: empty result for %s", req.ID)
				}
				return msg.Result, nil
			case MsgError:
				if msg.ID != req.ID {
					continue
				}
				return nil, fmt.Errorf("Worker.Classify: %s", msg.Error)
			}
		}
	}
}

// OracleBackend runs a synchronous Classifier behind the worker protocol,
// reporting a loading and a ready progress message around the call.
type OracleBackend struct {
	Oracle Classifier
}

// Run implements Backend.
func (b OracleBackend) Run(ctx context.Context, req Request, out chan<- Message) {
	if !Send(ctx, out, Message{Type: MsgProgress, Progress: &Progress{Status: "loading", Name: req.Model}}) {
		return
	}

	res, err := b.Oracle.Classify(ctx, req.Text, req.Labels, req.Model)
	if err != nil {
		Send(ctx, out, Message{Type: MsgError, ID: req.ID, Error: err.Error()})
		return
	}

	if !Send(ctx, out, Message{Type: MsgProgress, Progress: &Progress{Status: "ready", Name: req.Model, Progress: 100}}) {
		return
	}
	Send(ctx, out, Message{Type: MsgResult, ID: req.ID, Result: res})
}
