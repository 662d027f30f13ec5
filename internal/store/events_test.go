package store

import (
	"context"
	"testing"
	"time"

	"github.com/consentlab/studyctl/internal/event"
)

func TestAppendEvent_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := event.Record{
		SessionID:     "sess-1",
		DesignVariant: event.DesignBaseline,
		SiteName:      "zalando",
		StepIndex:     0,
		Type:          event.TypeCMPShown,
		Target:        event.TargetCMPFirstLayer,
	}
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	if err := s.AppendEvent(ctx, rec, at); err != nil {
		t.Fatalf("AppendEvent() failed: %v", err)
	}

	got, err := s.ListEvents(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ListEvents() failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("ListEvents() returned %d events, want 1", len(got))
	}
	if got[0].Record != rec {
		t.Errorf("round-tripped record = %+v, want %+v", got[0].Record, rec)
	}
	if !got[0].CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", got[0].CreatedAt, at)
	}
}

func TestListEvents_InsertionOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	types := []event.Type{
		event.TypeSessionStarted,
		event.TypePageLoaded,
		event.TypeCMPShown,
		event.TypeButtonClick,
		event.TypeCMPClosed,
	}
	at := time.Now()
	for _, typ := range types {
		if err := s.AppendEvent(ctx, event.Record{SessionID: "sess-1", Type: typ}, at); err != nil {
			t.Fatalf("AppendEvent(%s) failed: %v", typ, err)
		}
	}

	got, err := s.ListEvents(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ListEvents() failed: %v", err)
	}
	if len(got) != len(types) {
		t.Fatalf("ListEvents() returned %d events, want %d", len(got), len(types))
	}
	for i, ev := range got {
		if ev.Record.Type != types[i] {
			t.Errorf("event %d type = %s, want %s", i, ev.Record.Type, types[i])
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].ID <= got[i-1].ID {
			t.Errorf("ids not strictly increasing: %d then %d", got[i-1].ID, got[i].ID)
		}
	}
}

func TestListEvents_SessionFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	at := time.Now()

	for _, sess := range []string{"a", "b", "a"} {
		if err := s.AppendEvent(ctx, event.Record{SessionID: sess, Type: event.TypeClick}, at); err != nil {
			t.Fatalf("AppendEvent() failed: %v", err)
		}
	}

	got, err := s.ListEvents(ctx, "a")
	if err != nil {
		t.Fatalf("ListEvents() failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("filtered ListEvents() returned %d events, want 2", len(got))
	}

	all, err := s.ListEvents(ctx, "")
	if err != nil {
		t.Fatalf("ListEvents() failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unfiltered ListEvents() returned %d events, want 3", len(all))
	}
}
