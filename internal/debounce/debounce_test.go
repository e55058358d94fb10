package debounce

import (
	"testing"
	"time"

	"github.com/xaenox/supportlens/internal/clock"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type emission struct {
	value string
	at    time.Duration
}

func setup(t *testing.T) (*clock.FakeClock, *Debouncer[string], *[]emission) {
	t.Helper()
	c := clock.Fake(epoch)
	var got []emission
	d := New(c, 300*time.Millisecond, func(v string) {
		got = append(got, emission{value: v, at: c.Now().Sub(epoch)})
	})
	return c, d, &got
}

func TestDebouncerCoalescesKeystrokes(t *testing.T) {
	c, d, got := setup(t)

	d.Update("a")
	c.Advance(100 * time.Millisecond)
	d.Update("ab")
	c.Advance(50 * time.Millisecond)
	d.Update("abc")

	// t=449ms
	c.Advance(299 * time.Millisecond)
	if len(*got) != 0 {
		t.Fatalf("emitted before the quiet period ended: %+v", *got)
	}

	// t=450ms
	c.Advance(time.Millisecond)
	if len(*got) != 1 {
		t.Fatalf("emissions = %+v, want exactly one", *got)
	}
	if e := (*got)[0]; e.value != "abc" || e.at != 450*time.Millisecond {
		t.Fatalf("emission = %+v, want abc at 450ms", e)
	}

	c.Advance(time.Second)
	if len(*got) != 1 {
		t.Fatalf("extra emissions after settling: %+v", *got)
	}
}

func TestDebouncerEmitsEachSettledValue(t *testing.T) {
	c, d, got := setup(t)

	d.Update("refund")
	c.Advance(300 * time.Millisecond)
	d.Update("billing")
	c.Advance(300 * time.Millisecond)

	if len(*got) != 2 || (*got)[0].value != "refund" || (*got)[1].value != "billing" {
		t.Fatalf("emissions = %+v", *got)
	}
}

func TestDebouncerStopCancelsPending(t *testing.T) {
	c, d, got := setup(t)

	d.Update("abc")
	if !d.Pending() {
		t.Fatal("Pending should be true after Update")
	}
	d.Stop()
	if c.PendingCount() != 0 {
		t.Fatalf("timer still armed after Stop: %d", c.PendingCount())
	}

	c.Advance(time.Second)
	d.Update("late")
	c.Advance(time.Second)

	if len(*got) != 0 {
		t.Fatalf("emitted after Stop: %+v", *got)
	}
}

func TestDebouncerDefaultsDelay(t *testing.T) {
	c := clock.Fake(epoch)
	var got []string
	d := New(c, 0, func(v string) { got = append(got, v) })

	d.Update("x")
	c.Advance(DefaultDelay - time.Millisecond)
	if len(got) != 0 {
		t.Fatal("fired before the default delay")
	}
	c.Advance(time.Millisecond)
	if len(got) != 1 {
		t.Fatalf("got %v, want one emission", got)
	}
}

func TestDebouncerStopFromCallback(t *testing.T) {
	c := clock.Fake(epoch)
	var d *Debouncer[string]
	var got []string
	d = New(c, 300*time.Millisecond, func(v string) {
		got = append(got, v)
		d.Stop()
	})

	d.Update("refund")
	c.Advance(300 * time.Millisecond)
	if len(got) != 1 || got[0] != "refund" {
		t.Fatalf("got %v, want the in-flight emission", got)
	}

	d.Update("billing")
	c.Advance(time.Second)
	if len(got) != 1 {
		t.Fatalf("emitted after Stop: %v", got)
	}
	if d.Pending() || c.PendingCount() != 0 {
		t.Fatal("timer armed after Stop")
	}
}
