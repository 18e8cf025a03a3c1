package input

import (
	"testing"
	"time"

	"cosmic-adventure/internal/game"
)

func TestKeyFromName(t *testing.T) {
	tests := []struct {
		name string
		want Key
	}{
		{"ArrowLeft", KeyLeft},
		{"ArrowRight", KeyRight},
		{"ArrowUp", KeyUp},
		{"ArrowDown", KeyDown},
		{"Space", KeyFire},
		{" ", KeyFire},
		{"KeyW", KeyUp},
		{"Enter", KeyNone},
		{"", KeyNone},
	}
	for _, tt := range tests {
		if got := KeyFromName(tt.name); got != tt.want {
			t.Errorf("KeyFromName(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestTrackerDownUp(t *testing.T) {
	tr := NewTracker(0)
	now := time.Now()

	tr.KeyDown(KeyLeft)
	tr.KeyDown(KeyFire)
	if got := tr.Intent(now); got != game.MoveLeft|game.Fire {
		t.Errorf("intent = %s, want L---F", got)
	}

	// Held keys do not time out.
	if got := tr.Intent(now.Add(time.Hour)); got != game.MoveLeft|game.Fire {
		t.Errorf("intent after an hour = %s, want L---F", got)
	}

	tr.KeyUp(KeyFire)
	if got := tr.Intent(now); got != game.MoveLeft {
		t.Errorf("intent = %s, want L----", got)
	}
}

func TestTrackerPressTimeout(t *testing.T) {
	tr := NewTracker(100 * time.Millisecond)
	t0 := time.Unix(1000, 0)

	tr.Press(KeyUp, t0)
	if !tr.Held(KeyUp, t0.Add(50*time.Millisecond)) {
		t.Error("key should be held inside the timeout")
	}
	if tr.Held(KeyUp, t0.Add(100*time.Millisecond)) {
		t.Error("key should be released at the timeout")
	}

	// A repeat extends the hold.
	tr.Press(KeyUp, t0.Add(90*time.Millisecond))
	if got := tr.Intent(t0.Add(150 * time.Millisecond)); got != game.MoveUp {
		t.Errorf("intent = %s, want --U--", got)
	}

	tr.KeyUp(KeyUp)
	if tr.Held(KeyUp, t0.Add(100*time.Millisecond)) {
		t.Error("KeyUp should cancel a pending press")
	}
}

func TestTrackerIgnoresUnknownKeys(t *testing.T) {
	tr := NewTracker(0)
	tr.KeyDown(KeyNone)
	tr.KeyDown(Key(99))
	tr.Press(Key(42), time.Now())

	if got := tr.Intent(time.Now()); got != game.NoIntent {
		t.Errorf("intent = %s, want none", got)
	}
	if tr.Held(Key(99), time.Now()) {
		t.Error("unknown key reported held")
	}
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker(0)
	now := time.Now()
	tr.KeyDown(KeyRight)
	tr.Press(KeyDown, now)

	tr.Reset()
	if got := tr.Intent(now); got != game.NoIntent {
		t.Errorf("intent after reset = %s, want none", got)
	}
}
