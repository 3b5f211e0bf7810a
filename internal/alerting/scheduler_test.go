package alerting

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/good-yellow-bee/marketwatch/internal/models"
)

func TestAckSchedulerFires(t *testing.T) {
	sched := NewAckScheduler()
	defer sched.CancelAll()

	var fired atomic.Int32
	sched.Schedule("a", 10*time.Millisecond, func() { fired.Add(1) })

	deadline := time.Now().Add(time.Second)
	for fired.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if fired.Load() != 1 {
		t.Fatalf("fired = %d, want 1", fired.Load())
	}
	if sched.Pending() != 0 {
		t.Errorf("pending = %d, want 0 after fire", sched.Pending())
	}
}

func TestAckSchedulerCancel(t *testing.T) {
	sched := NewAckScheduler()
	defer sched.CancelAll()

	var fired atomic.Int32
	sched.Schedule("a", 20*time.Millisecond, func() { fired.Add(1) })
	sched.Cancel("a")

	time.Sleep(60 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatalf("fired = %d, want 0 after cancel", fired.Load())
	}
	if sched.Pending() != 0 {
		t.Errorf("pending = %d, want 0", sched.Pending())
	}
}

func TestAckSchedulerReplace(t *testing.T) {
	sched := NewAckScheduler()
	defer sched.CancelAll()

	var first, second atomic.Int32
	sched.Schedule("a", 20*time.Millisecond, func() { first.Add(1) })
	sched.Schedule("a", 20*time.Millisecond, func() { second.Add(1) })

	time.Sleep(80 * time.Millisecond)
	if first.Load() != 0 {
		t.Error("replaced task still fired")
	}
	if second.Load() != 1 {
		t.Errorf("replacement fired = %d, want 1", second.Load())
	}
}

func TestAutoAcknowledgeRevalidates(t *testing.T) {
	store := NewStore(nil)

	id, _ := store.Add(models.AlertDefinition{
		ItemName: "Tritanium", Type: models.AlertTypeBuyPriceBelow, Threshold: 10,
	})
	store.RecordTrigger(id, 5, models.TradeSnapshot{TypeName: "Tritanium"}, "msg", time.Now())

	// Removing the alert before the timer fires must not resurrect it.
	store.ScheduleAutoAcknowledge(id, 10*time.Millisecond)
	store.Remove(id)

	time.Sleep(50 * time.Millisecond)
	if _, ok := store.Get(id); ok {
		t.Fatal("removed alert reappeared")
	}
}

func TestAutoAcknowledgeMarksAlert(t *testing.T) {
	store := NewStore(nil)

	id, _ := store.Add(models.AlertDefinition{
		ItemName: "Tritanium", Type: models.AlertTypeBuyPriceBelow, Threshold: 10,
	})
	store.RecordTrigger(id, 5, models.TradeSnapshot{TypeName: "Tritanium"}, "msg", time.Now())
	store.ScheduleAutoAcknowledge(id, 10*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if def, _ := store.Get(id); def.Acknowledged {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("alert never auto-acknowledged")
}
