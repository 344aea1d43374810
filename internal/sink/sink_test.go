package sink

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/dopamind/internal/engine"
	"github.com/verte-zerg/dopamind/internal/model"
)

type fakeWriter struct {
	mu      sync.Mutex
	calls   []model.Delta
	plays   []model.PlayRecord
	block   chan struct{}
	failErr error
}

func (f *fakeWriter) ApplyResult(ctx context.Context, profileID string, delta model.Delta, play model.PlayRecord) (model.Profile, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return model.Profile{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return model.Profile{}, f.failErr
	}
	f.calls = append(f.calls, delta)
	f.plays = append(f.plays, play)
	return model.Profile{ID: profileID, Score: delta.Score}, nil
}

func (f *fakeWriter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func TestLocalDropsWithoutIdentity(t *testing.T) {
	w := &fakeWriter{}
	s := NewLocal(w, "", LocalOptions{Logger: zerolog.Nop()})
	s.Submit(engine.Result{GameID: "bubble-popper", Score: 10})
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if w.count() != 0 {
		t.Fatalf("expected no write without a profile")
	}
}

func TestLocalClampsNegativeDeltas(t *testing.T) {
	w := &fakeWriter{}
	updates := make(chan Update, 2)
	s := NewLocal(w, "p1", LocalOptions{Logger: zerolog.Nop(), Notify: func(u Update) { updates <- u }})
	s.Submit(engine.Result{SessionID: "s1", GameID: "calm-orbs", Score: -15, XP: -15, Elapsed: 1500 * time.Millisecond})
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if w.count() != 1 {
		t.Fatalf("expected one write, got %d", w.count())
	}
	if w.calls[0].Score != 0 || w.calls[0].XP != 0 {
		t.Fatalf("expected clamped delta, got %+v", w.calls[0])
	}
	if w.plays[0].Score != -15 || w.plays[0].ElapsedMs != 1500 {
		t.Fatalf("expected the play row to keep the raw score, got %+v", w.plays[0])
	}
	u := <-updates
	if u.Err != nil || u.Result.SessionID != "s1" {
		t.Fatalf("unexpected update: %+v", u)
	}
}

func TestLocalPersistNegative(t *testing.T) {
	w := &fakeWriter{}
	s := NewLocal(w, "p1", LocalOptions{Logger: zerolog.Nop(), PersistNegative: true})
	s.Submit(engine.Result{SessionID: "s1", Score: -5, XP: -5})
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if w.calls[0].Score != -5 {
		t.Fatalf("expected negative delta to pass through, got %+v", w.calls[0])
	}
}

func TestLocalSubmitDoesNotBlock(t *testing.T) {
	w := &fakeWriter{block: make(chan struct{})}
	s := NewLocal(w, "p1", LocalOptions{Logger: zerolog.Nop()})
	done := make(chan struct{})
	go func() {
		s.Submit(engine.Result{SessionID: "s1", Score: 3})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected Submit to return while the write is pending")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := s.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected close deadline while write is blocked, got %v", err)
	}
	close(w.block)
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("close after unblock: %v", err)
	}
	if w.count() != 1 {
		t.Fatalf("expected the pending write to finish")
	}
	s.Submit(engine.Result{SessionID: "s2", Score: 3})
	if w.count() != 1 {
		t.Fatalf("expected submissions after close to be dropped")
	}
}

func TestLocalReportsFailures(t *testing.T) {
	w := &fakeWriter{failErr: errors.New("disk full")}
	updates := make(chan Update, 1)
	s := NewLocal(w, "p1", LocalOptions{Logger: zerolog.Nop(), Notify: func(u Update) { updates <- u }})
	s.Submit(engine.Result{SessionID: "s1", Score: 3})
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if u := <-updates; u.Err == nil {
		t.Fatalf("expected failure to be reported")
	}
}

type fakeSQS struct {
	mu     sync.Mutex
	inputs []*sqs.SendMessageInput
}

func (f *fakeSQS) SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inputs = append(f.inputs, params)
	return &sqs.SendMessageOutput{}, nil
}

func TestSQSPublishFIFO(t *testing.T) {
	client := &fakeSQS{}
	s := NewSQS(client, "https://sqs.eu-west-1.amazonaws.com/1/scores.fifo", "p1", false, zerolog.Nop())
	ended := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	if err := s.Publish(context.Background(), engine.Result{SessionID: "s1", GameID: "bubble-rush", Score: -3, XP: 40, EndedAt: ended}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(client.inputs) != 1 {
		t.Fatalf("expected one message, got %d", len(client.inputs))
	}
	in := client.inputs[0]
	if in.MessageGroupId == nil || *in.MessageGroupId != "p1" {
		t.Fatalf("expected group id p1, got %v", in.MessageGroupId)
	}
	if in.MessageDeduplicationId == nil || *in.MessageDeduplicationId != "s1" {
		t.Fatalf("expected dedup id s1, got %v", in.MessageDeduplicationId)
	}
	var body sqsBody
	if err := json.Unmarshal([]byte(*in.MessageBody), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ScoreDelta != 0 || body.XPDelta != 40 || body.GameID != "bubble-rush" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestSQSStandardQueueOmitsFIFOFields(t *testing.T) {
	client := &fakeSQS{}
	s := NewSQS(client, "https://sqs.eu-west-1.amazonaws.com/1/scores", "p1", false, zerolog.Nop())
	s.Submit(engine.Result{SessionID: "s1", Score: 1})
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(client.inputs) != 1 {
		t.Fatalf("expected one message, got %d", len(client.inputs))
	}
	if client.inputs[0].MessageGroupId != nil || client.inputs[0].MessageDeduplicationId != nil {
		t.Fatalf("expected no FIFO fields on a standard queue")
	}
}

func TestFanoutSubmitsToAll(t *testing.T) {
	var got []string
	f := Fanout{
		engine.SinkFunc(func(r engine.Result) { got = append(got, "a:"+r.GameID) }),
		nil,
		engine.SinkFunc(func(r engine.Result) { got = append(got, "b:"+r.GameID) }),
	}
	f.Submit(engine.Result{GameID: "g"})
	if len(got) != 2 || got[0] != "a:g" || got[1] != "b:g" {
		t.Fatalf("unexpected fanout order: %v", got)
	}
	if err := f.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}
