package risk

import "github.com/SNMiguel/cryptobot/internal/domain"

// TrailingStop tracks a protective stop that follows price in the favorable
// direction only. For a long position the stop ratchets up as new highs
// print; it never moves back down. Shorts mirror the behavior.
type TrailingStop struct {
	dir      domain.Direction
	trailPct float64
	stop     float64
	extreme  float64
}

// NewTrailingStop seeds the trail at entry. trailPct is the distance kept
// between the running extreme and the stop.
func NewTrailingStop(entry, trailPct float64, dir domain.Direction) *TrailingStop {
	t := &TrailingStop{dir: dir, trailPct: trailPct, extreme: entry}
	if dir == domain.DirectionShort {
		t.stop = entry * (1 + trailPct)
	} else {
		t.stop = entry * (1 - trailPct)
	}
	return t
}

// Update advances the trail with a new price and returns the current stop.
// The stop only tightens; prices moving against the position leave it
// unchanged.
func (t *TrailingStop) Update(price float64) float64 {
	if t.dir == domain.DirectionShort {
		if price < t.extreme {
			t.extreme = price
			if s := price * (1 + t.trailPct); s < t.stop {
				t.stop = s
			}
		}
		return t.stop
	}
	if price > t.extreme {
		t.extreme = price
		if s := price * (1 - t.trailPct); s > t.stop {
			t.stop = s
		}
	}
	return t.stop
}

// Stop returns the current stop price without advancing the trail.
func (t *TrailingStop) Stop() float64 { return t.stop }

// Triggered reports whether price has crossed the stop.
func (t *TrailingStop) Triggered(price float64) bool {
	if t.dir == domain.DirectionShort {
		return price >= t.stop
	}
	return price <= t.stop
}
