package classifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

type callResult struct {
	res *Result
	err error
}

func startClassify(w *Worker) <-chan callResult {
	return startClassifyCtx(context.Background(), w)
}

func startClassifyCtx(ctx context.Context, w *Worker) <-chan callResult {
	done := make(chan callResult, 1)
	go func() {
		res, err := w.Classify(ctx, "Dmart", []string{"Food & Drink"}, "m")
		done <- callResult{res, err}
	}()
	return done
}

func waitTimer(t *testing.T, clock *clockwork.FakeClock) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("timer was never armed: %v", err)
	}
}

func await(t *testing.T, done <-chan callResult) callResult {
	t.Helper()
	select {
	case r := <-done:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("Classify did not return")
		return callResult{}
	}
}

func silentBackend() Backend {
	return BackendFunc(func(ctx context.Context, req Request, out chan<- Message) {
		<-ctx.Done()
	})
}

func TestWorker_Result(t *testing.T) {
	backend := BackendFunc(func(ctx context.Context, req Request, out chan<- Message) {
		Send(ctx, out, Message{Type: MsgResult, ID: "someone-else", Result: &Result{Labels: []string{"Tax"}, Scores: []float64{1}}})
		Send(ctx, out, Message{Type: MsgResult, ID: req.ID, Result: &Result{Labels: []string{"Food & Drink"}, Scores: []float64{0.9}}})
	})

	w := NewWorker(backend, WithClock(clockwork.NewFakeClock()))
	r := await(t, startClassify(w))
	if r.err != nil {
		t.Fatalf("unexpected error: %v", r.err)
	}
	if label, _, _ := r.res.Top(); label != "Food & Drink" {
		t.Errorf("result for another request leaked through: %v", r.res.Labels)
	}
	if r := await(t, startClassify(w)); r.err != nil {
		t.Errorf("worker should accept a second call once idle: %v", r.err)
	}
}

func TestWorker_ErrorMessage(t *testing.T) {
	backend := BackendFunc(func(ctx context.Context, req Request, out chan<- Message) {
		Send(ctx, out, Message{Type: MsgError, ID: req.ID, Error: "model exploded"})
	})

	w := NewWorker(backend, WithClock(clockwork.NewFakeClock()))
	r := await(t, startClassify(w))
	if r.err == nil || errors.Is(r.err, ErrTimeout) || errors.Is(r.err, ErrCancelled) {
		t.Fatalf("expected a plain worker error, got %v", r.err)
	}
}

func TestWorker_Timeout(t *testing.T) {
	clock := clockwork.NewFakeClock()
	w := NewWorker(silentBackend(), WithClock(clock))

	done := startClassify(w)
	waitTimer(t, clock)
	clock.Advance(DefaultTimeout)

	if r := await(t, done); !errors.Is(r.err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", r.err)
	}
}

func TestWorker_ProgressResetsTimeout(t *testing.T) {
	clock := clockwork.NewFakeClock()
	tick := make(chan struct{})
	finish := make(chan struct{})
	backend := BackendFunc(func(ctx context.Context, req Request, out chan<- Message) {
		<-tick
		Send(ctx, out, Message{Type: MsgProgress, Progress: &Progress{Status: "progress", Progress: 50}})
		<-finish
		Send(ctx, out, Message{Type: MsgResult, ID: req.ID, Result: &Result{Labels: []string{"Tax"}, Scores: []float64{0.7}}})
	})

	seen := make(chan Progress, 1)
	w := NewWorker(backend, WithClock(clock), WithProgress(func(p Progress) { seen <- p }))

	done := startClassify(w)
	waitTimer(t, clock)
	clock.Advance(100 * time.Second)

	close(tick)
	select {
	case p := <-seen:
		if p.Progress != 50 {
			t.Errorf("unexpected progress %+v", p)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("progress was not relayed")
	}

	// 200s since the call started but only 100s since the last progress.
	clock.Advance(100 * time.Second)
	close(finish)

	r := await(t, done)
	if r.err != nil {
		t.Fatalf("expected success after progress reset the timer, got %v", r.err)
	}
}

func TestWorker_Cancel(t *testing.T) {
	clock := clockwork.NewFakeClock()
	backendDone := make(chan struct{})
	backend := BackendFunc(func(ctx context.Context, req Request, out chan<- Message) {
		<-ctx.Done()
		close(backendDone)
	})
	w := NewWorker(backend, WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	done := startClassifyCtx(ctx, w)
	waitTimer(t, clock)

	if _, err := w.Classify(context.Background(), "x", nil, "m"); err == nil {
		t.Error("a second call must be refused while one is in flight")
	}
	cancel()

	r := await(t, done)
	if !errors.Is(r.err, ErrCancelled) || !errors.Is(r.err, context.Canceled) {
		t.Fatalf("expected ErrCancelled wrapping context.Canceled, got %v", r.err)
	}
	select {
	case <-backendDone:
	case <-time.After(2 * time.Second):
		t.Fatal("backend context was not cancelled")
	}
}

func TestWorker_DeadlineIsNotCancel(t *testing.T) {
	w := NewWorker(silentBackend(), WithClock(clockwork.NewFakeClock()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	r := await(t, startClassifyCtx(ctx, w))
	if !errors.Is(r.err, context.DeadlineExceeded) || errors.Is(r.err, ErrCancelled) {
		t.Fatalf("expected DeadlineExceeded only, got %v", r.err)
	}
}

func TestOracleBackend(t *testing.T) {
	oracle := Func(func(ctx context.Context, text string, labels []string, model string) (*Result, error) {
		return &Result{Labels: []string{"Shopping"}, Scores: []float64{0.8}}, nil
	})

	var statuses []string
	w := NewWorker(OracleBackend{Oracle: oracle},
		WithClock(clockwork.NewFakeClock()),
		WithProgress(func(p Progress) { statuses = append(statuses, p.Status) }),
	)

	res, err := w.Classify(context.Background(), "Myntra", CandidateLabels, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label, score, _ := res.Top(); label != "Shopping" || score != 0.8 {
		t.Errorf("unexpected top %s/%v", label, score)
	}
	if len(statuses) != 2 || statuses[0] != "loading" || statuses[1] != "ready" {
		t.Errorf("unexpected progress statuses %v", statuses)
	}
}
