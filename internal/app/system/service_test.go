package system

import (
	"context"
	"errors"
	"testing"
)

type recordingService struct {
	name    string
	events  *[]string
	failure error
}

func (s recordingService) Name() string { return s.name }

func (s recordingService) Start(context.Context) error {
	*s.events = append(*s.events, "start:"+s.name)
	return s.failure
}

func (s recordingService) Stop(context.Context) error {
	*s.events = append(*s.events, "stop:"+s.name)
	return nil
}

func TestManagerStartStopOrder(t *testing.T) {
	var events []string
	m := NewManager()
	for _, name := range []string{"a", "b"} {
		if err := m.Register(recordingService{name: name, events: &events}); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	ctx := context.Background()
	if err := m.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	want := []string{"start:a", "start:b", "stop:b", "stop:a"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events, want)
		}
	}
}

func TestManagerStartFailureUnwinds(t *testing.T) {
	var events []string
	m := NewManager()
	boom := errors.New("boom")
	_ = m.Register(recordingService{name: "a", events: &events})
	_ = m.Register(recordingService{name: "b", events: &events, failure: boom})

	if err := m.Start(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("got %v, want %v", err, boom)
	}
	// Service a was started before b failed, so it must be stopped again.
	if len(events) != 3 || events[2] != "stop:a" {
		t.Fatalf("events = %v, want unwind of a", events)
	}
}

func TestManagerRejectsDuplicateNames(t *testing.T) {
	m := NewManager()
	var events []string
	_ = m.Register(recordingService{name: "a", events: &events})
	if err := m.Register(recordingService{name: "a", events: &events}); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
}
