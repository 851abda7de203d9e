// Package rain drives the decorative falling-characters background.
//
// Rain is a plain state holder advanced by the caller's own clock, so the
// terminal pad can step it from a bubbletea tick and the window pad from
// its frame loop. It has no link to the drawing or prediction flow.
package rain

import (
	"math/rand"
	"time"
)

const (
	DefaultInterval = 200 * time.Millisecond
	DefaultLifetime = 12 * time.Second

	MinSize     = 20.0
	SizeSpread  = 40.0
	MinDuration = 8 * time.Second
	DurSpread   = 6 * time.Second
)

// Glyph is one falling character. X is a fraction of the container width
// and Size a font size in pixels.
type Glyph struct {
	Char     string
	X        float64
	Size     float64
	Duration time.Duration
	Born     time.Time
}

// Progress is how far the glyph has fallen, from 0 at spawn to 1 once its
// own animation duration has elapsed.
func (g Glyph) Progress(now time.Time) float64 {
	if g.Duration <= 0 {
		return 1
	}
	p := float64(now.Sub(g.Born)) / float64(g.Duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

type Rain struct {
	interval time.Duration
	lifetime time.Duration
	alphabet []string
	rng      *rand.Rand

	glyphs    []Glyph
	lastSpawn time.Time
}

type Option func(*Rain)

func WithInterval(d time.Duration) Option {
	return func(r *Rain) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithLifetime(d time.Duration) Option {
	return func(r *Rain) {
		if d > 0 {
			r.lifetime = d
		}
	}
}

func WithAlphabet(a []string) Option {
	return func(r *Rain) {
		if len(a) > 0 {
			r.alphabet = a
		}
	}
}

// WithSeed makes the glyph sequence reproducible.
func WithSeed(seed int64) Option {
	return func(r *Rain) { r.rng = rand.New(rand.NewSource(seed)) }
}

func New(opts ...Option) *Rain {
	r := &Rain{
		interval: DefaultInterval,
		lifetime: DefaultLifetime,
		alphabet: Devanagari,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.glyphs = make([]Glyph, 0, r.Capacity())
	return r
}

func (r *Rain) Interval() time.Duration { return r.interval }
func (r *Rain) Lifetime() time.Duration { return r.lifetime }

// Capacity is the steady-state population: one glyph per interval for as
// long as each one lives, rounded up when the lifetime is not a whole
// number of intervals.
func (r *Rain) Capacity() int {
	return int((r.lifetime + r.interval - 1) / r.interval)
}

// Advance spawns one glyph per whole interval elapsed since the previous
// spawn and drops glyphs older than the lifetime. The first call spawns a
// single glyph and starts the clock.
func (r *Rain) Advance(now time.Time) (spawned, expired int) {
	if r.lastSpawn.IsZero() {
		r.spawn(now)
		r.lastSpawn = now
		spawned = 1
	} else {
		for now.Sub(r.lastSpawn) >= r.interval {
			r.lastSpawn = r.lastSpawn.Add(r.interval)
			// Catching up after a stall: glyphs that would already be
			// dead are skipped.
			if now.Sub(r.lastSpawn) >= r.lifetime {
				continue
			}
			r.spawn(r.lastSpawn)
			spawned++
		}
	}

	live := r.glyphs[:0]
	for _, g := range r.glyphs {
		if now.Sub(g.Born) >= r.lifetime {
			expired++
			continue
		}
		live = append(live, g)
	}
	r.glyphs = live
	return spawned, expired
}

func (r *Rain) spawn(at time.Time) {
	r.glyphs = append(r.glyphs, Glyph{
		Char:     r.alphabet[r.rng.Intn(len(r.alphabet))],
		X:        r.rng.Float64(),
		Size:     MinSize + r.rng.Float64()*SizeSpread,
		Duration: MinDuration + time.Duration(r.rng.Float64()*float64(DurSpread)),
		Born:     at,
	})
}

// Glyphs returns the live glyphs, oldest first. The slice is shared; copy
// it before holding on to it across Advance calls.
func (r *Rain) Glyphs() []Glyph {
	return r.glyphs
}

func (r *Rain) Len() int {
	return len(r.glyphs)
}

func (r *Rain) Reset() {
	r.glyphs = r.glyphs[:0]
	r.lastSpawn = time.Time{}
}
