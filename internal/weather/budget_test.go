package weather

import (
	"sync"
	"testing"
	"time"
)

func TestRateBudget_EnforcesLimit(t *testing.T) {
	b := NewRateBudget(3)

	for i := 0; i < 3; i++ {
		if !b.Reserve() {
			t.Fatalf("reserve %d should succeed", i+1)
		}
	}
	if b.Reserve() {
		t.Error("reserve past the limit should fail")
	}
	if b.Used() != 3 {
		t.Errorf("expected 3 used, got %d", b.Used())
	}
}

func TestRateBudget_ConcurrentNoOvershoot(t *testing.T) {
	const limit = 50
	b := NewRateBudget(limit)

	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0

	for i := 0; i < limit*3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if b.Reserve() {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if granted != limit {
		t.Errorf("expected exactly %d grants, got %d", limit, granted)
	}
	if b.Used() > limit {
		t.Errorf("callsUsed %d exceeds limit %d", b.Used(), limit)
	}
}

func TestRateBudget_ResetsOnNewUTCDay(t *testing.T) {
	now := time.Date(2026, 6, 1, 23, 50, 0, 0, time.UTC)
	b := NewRateBudget(1)
	b.now = func() time.Time { return now }

	if !b.Reserve() {
		t.Fatal("first reserve should succeed")
	}
	if b.Reserve() {
		t.Fatal("budget should be spent")
	}

	day1 := b.WindowStart()

	// Cross midnight UTC: the window rolls and the counter resets.
	now = time.Date(2026, 6, 2, 0, 5, 0, 0, time.UTC)
	if !b.Reserve() {
		t.Error("budget should reset on the new UTC calendar day")
	}
	if !b.WindowStart().After(day1) {
		t.Errorf("window start should advance: %v -> %v", day1, b.WindowStart())
	}
}

func TestRateBudget_Remaining(t *testing.T) {
	b := NewRateBudget(2)
	if b.Remaining() != 2 {
		t.Errorf("expected 2 remaining, got %d", b.Remaining())
	}
	b.Reserve()
	b.Reserve()
	if b.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %d", b.Remaining())
	}
}
