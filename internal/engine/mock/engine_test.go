package mock

import (
	"context"
	"testing"
	"time"

	"live-dictation-service/internal/engine"
)

func collect(t *testing.T, e *Engine, n int) []engine.Event {
	t.Helper()
	out := make([]engine.Event, 0, n)
	timeout := time.After(5 * time.Second)
	for len(out) < n {
		select {
		case ev, ok := <-e.Events():
			if !ok {
				t.Fatalf("event channel closed after %d events, wanted %d", len(out), n)
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out after %d events, wanted %d", len(out), n)
		}
	}
	return out
}

func TestEngine_LoadEmitsProgressThenReady(t *testing.T) {
	e := New(Options{})
	defer e.Close()

	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	events := collect(t, e, 5)
	wantPct := []int{25, 50, 75, 100}
	for i, pct := range wantPct {
		p, ok := events[i].(engine.Progress)
		if !ok {
			t.Fatalf("expected Progress at position %d, got %T", i, events[i])
		}
		if p.Percent != pct {
			t.Errorf("expected progress %d, got %d", pct, p.Percent)
		}
	}
	if _, ok := events[4].(engine.Ready); !ok {
		t.Errorf("expected Ready last, got %T", events[4])
	}
}

func TestEngine_LoadFailure(t *testing.T) {
	e := New(Options{LoadFailure: "weights corrupt"})
	defer e.Close()

	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	events := collect(t, e, 5)
	f, ok := events[4].(engine.Failure)
	if !ok {
		t.Fatalf("expected Failure last, got %T", events[4])
	}
	if f.Op != engine.OpConfigure {
		t.Errorf("expected configure failure, got op %v", f.Op)
	}
	if f.Reason != "weights corrupt" {
		t.Errorf("unexpected reason %q", f.Reason)
	}
}

func TestEngine_TranscribeCyclesTexts(t *testing.T) {
	texts := []string{"one", "two"}
	e := New(Options{Texts: texts})
	defer e.Close()

	for seq := uint64(0); seq < 3; seq++ {
		if err := e.Transcribe(context.Background(), engine.Request{Sequence: seq}); err != nil {
			t.Fatalf("Transcribe returned error: %v", err)
		}
	}

	events := collect(t, e, 3)
	want := []string{"one", "two", "one"}
	for i, ev := range events {
		res, ok := ev.(engine.Result)
		if !ok {
			t.Fatalf("expected Result, got %T", ev)
		}
		if res.Text != want[i] {
			t.Errorf("expected text %q, got %q", want[i], res.Text)
		}
	}
}

func TestEngine_FailSequences(t *testing.T) {
	e := New(Options{
		Texts:         []string{"fine"},
		FailSequences: map[uint64]string{7: "inference blew up"},
	})
	defer e.Close()

	if err := e.Transcribe(context.Background(), engine.Request{Sequence: 7}); err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}

	events := collect(t, e, 1)
	f, ok := events[0].(engine.Failure)
	if !ok {
		t.Fatalf("expected Failure, got %T", events[0])
	}
	if f.Op != engine.OpTranscribe || f.Sequence != 7 {
		t.Errorf("unexpected failure %+v", f)
	}
}

func TestEngine_SegmentsEvery(t *testing.T) {
	e := New(Options{Texts: []string{"split me in two"}, SegmentsEvery: 1})
	defer e.Close()

	if err := e.Transcribe(context.Background(), engine.Request{Sequence: 0}); err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}

	events := collect(t, e, 1)
	res, ok := events[0].(engine.Result)
	if !ok {
		t.Fatalf("expected Result, got %T", events[0])
	}
	if len(res.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(res.Segments))
	}
	if res.JoinedText() != "split me in two" {
		t.Errorf("expected joined text preserved, got %q", res.JoinedText())
	}
}

func TestEngine_ClosedOperationsFail(t *testing.T) {
	e := New(Options{})
	if err := e.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	if err := e.Load(context.Background()); err != ErrClosed {
		t.Errorf("expected ErrClosed from Load, got %v", err)
	}
	if err := e.Transcribe(context.Background(), engine.Request{}); err != ErrClosed {
		t.Errorf("expected ErrClosed from Transcribe, got %v", err)
	}
	if err := e.Close(); err != nil {
		t.Errorf("second Close returned error: %v", err)
	}
}
