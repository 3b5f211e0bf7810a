package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

type fakeChannel struct {
	name    string
	sent    []*models.TriggeredAlert
	sendErr error
	closed  bool
}

func (f *fakeChannel) Name() string { return f.name }

func (f *fakeChannel) Send(ctx context.Context, trigger *models.TriggeredAlert) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, trigger)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

type fakeSettings struct {
	settings models.Settings
}

func (f *fakeSettings) Settings() models.Settings { return f.settings }

func testTrigger(priority models.Priority) *models.TriggeredAlert {
	return &models.TriggeredAlert{
		ID:          "t1",
		AlertID:     "a1",
		ItemName:    "Tritanium",
		Type:        models.AlertTypeMarginThreshold,
		Priority:    priority,
		Message:     "Tritanium: margin-threshold above 20.00 (current 25.00)",
		TriggeredAt: time.Now(),
	}
}

func TestDispatcherFanOut(t *testing.T) {
	settings := &fakeSettings{settings: models.DefaultSettings()}
	d := NewDispatcher(settings)

	ch1 := &fakeChannel{name: "one"}
	ch2 := &fakeChannel{name: "two"}
	d.Register(ch1)
	d.Register(ch2)

	if err := d.Notify(context.Background(), testTrigger(models.PriorityMedium)); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(ch1.sent) != 1 || len(ch2.sent) != 1 {
		t.Errorf("sent = %d/%d, want 1/1", len(ch1.sent), len(ch2.sent))
	}
}

func TestDispatcherChannelErrorDoesNotStopFanOut(t *testing.T) {
	settings := &fakeSettings{settings: models.DefaultSettings()}
	d := NewDispatcher(settings)

	failing := &fakeChannel{name: "bad", sendErr: errors.New("boom")}
	working := &fakeChannel{name: "good"}
	d.Register(failing)
	d.Register(working)

	err := d.Notify(context.Background(), testTrigger(models.PriorityMedium))
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	if len(working.sent) != 1 {
		t.Errorf("working channel sent = %d, want 1", len(working.sent))
	}
}

func TestDispatcherHighPriorityOnly(t *testing.T) {
	s := models.DefaultSettings()
	s.HighPriorityOnly = true
	d := NewDispatcher(&fakeSettings{settings: s})

	ch := &fakeChannel{name: "one"}
	d.Register(ch)

	if err := d.Notify(context.Background(), testTrigger(models.PriorityMedium)); err != nil {
		t.Fatalf("notify medium: %v", err)
	}
	if len(ch.sent) != 0 {
		t.Errorf("medium priority delivered despite high-priority-only")
	}

	if err := d.Notify(context.Background(), testTrigger(models.PriorityCritical)); err != nil {
		t.Fatalf("notify critical: %v", err)
	}
	if len(ch.sent) != 1 {
		t.Errorf("critical sent = %d, want 1", len(ch.sent))
	}
}

func TestDispatcherRateLimit(t *testing.T) {
	settings := &fakeSettings{settings: models.DefaultSettings()}
	d := NewDispatcherWithRateLimit(settings, RateLimitConfig{
		MaxPerWindow: 1,
		Window:       time.Minute,
		Enabled:      true,
	})

	ch := &fakeChannel{name: "one"}
	d.Register(ch)

	trigger := testTrigger(models.PriorityMedium)
	if err := d.Notify(context.Background(), trigger); err != nil {
		t.Fatalf("first notify: %v", err)
	}
	if err := d.Notify(context.Background(), trigger); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second notify error = %v, want ErrRateLimited", err)
	}
	if len(ch.sent) != 1 {
		t.Errorf("sent = %d, want 1", len(ch.sent))
	}
	if d.RateLimitStats().Dropped != 1 {
		t.Errorf("dropped = %d, want 1", d.RateLimitStats().Dropped)
	}
}

func TestDispatcherUnregister(t *testing.T) {
	d := NewDispatcher(&fakeSettings{settings: models.DefaultSettings()})

	ch := &fakeChannel{name: "one"}
	d.Register(ch)
	if _, ok := d.Get("one"); !ok {
		t.Fatal("channel not registered")
	}
	d.Unregister("one")
	if _, ok := d.Get("one"); ok {
		t.Fatal("channel still registered")
	}
}

func TestDispatcherClose(t *testing.T) {
	d := NewDispatcher(&fakeSettings{settings: models.DefaultSettings()})

	ch := &fakeChannel{name: "one"}
	d.Register(ch)

	if err := d.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !ch.closed {
		t.Error("channel not closed")
	}
}
