package service

import (
	"context"
	"sync"
	"testing"

	"github.com/erodriguezln/keyrank/pkg/kafka"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []kafka.Event
}

func (p *capturePublisher) Publish(ctx context.Context, event kafka.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func TestHandleJob(t *testing.T) {
	svc := New(Deps{Engine: &stubEngine{result: okResult()}, DefaultWorkers: 2})
	pub := &capturePublisher{}
	handle := HandleJob(svc, pub)

	err := handle(context.Background(), []byte("j1"),
		[]byte(`{"job_id":"j1","corpus_path":"corpus.txt","workers":3}`))
	if err != nil {
		t.Fatal(err)
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	result, ok := pub.events[0].Value.(JobResult)
	if !ok {
		t.Fatalf("event value is %T", pub.events[0].Value)
	}
	if result.JobID != "j1" || result.Status != "ok" || result.Workers != 3 {
		t.Errorf("result = %+v", result)
	}
}

// Malformed or incomplete messages are skipped, never retried forever.
func TestHandleJobSkipsBadMessages(t *testing.T) {
	svc := New(Deps{Engine: &stubEngine{result: okResult()}})
	pub := &capturePublisher{}
	handle := HandleJob(svc, pub)

	if err := handle(context.Background(), nil, []byte(`not json`)); err != nil {
		t.Errorf("malformed message returned error: %v", err)
	}
	if err := handle(context.Background(), nil, []byte(`{"job_id":"j2"}`)); err != nil {
		t.Errorf("missing corpus returned error: %v", err)
	}
	if len(pub.events) != 0 {
		t.Errorf("published %d events for bad messages, want 0", len(pub.events))
	}
}

// A failing job still publishes its result so the requester learns about it.
func TestHandleJobPublishesFailure(t *testing.T) {
	svc := New(Deps{Engine: &stubEngine{err: context.DeadlineExceeded}})
	pub := &capturePublisher{}
	handle := HandleJob(svc, pub)

	if err := handle(context.Background(), nil, []byte(`{"job_id":"j3","corpus_path":"corpus.txt"}`)); err != nil {
		t.Fatal(err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	result := pub.events[0].Value.(JobResult)
	if result.Status != "error" || result.Error == "" {
		t.Errorf("result = %+v, want error status", result)
	}
}
