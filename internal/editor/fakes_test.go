package editor

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"getnotes/internal/envelope"
	"getnotes/internal/notes"
)

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves time forward, running due timers in deadline order on the
// calling goroutine.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at.After(target) {
				continue
			}
			if next == nil || t.at.Before(next.at) {
				next = t
			}
		}
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.now = next.at
		next.fired = true
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}
}

type fakeSaver struct {
	mu      sync.Mutex
	calls   []Snapshot
	fail    bool
	block   chan struct{}
	started chan struct{}
}

func (f *fakeSaver) UpdateNote(_ context.Context, id string, p notes.NotePatch) envelope.Envelope[*notes.Note] {
	f.mu.Lock()
	snap := Snapshot{Title: *p.Title, Content: *p.Content}
	f.calls = append(f.calls, snap)
	fail, block, started := f.fail, f.block, f.started
	f.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if block != nil {
		<-block
	}
	if fail {
		return envelope.Internal[*notes.Note]("Failed to update note")
	}
	oid, _ := primitive.ObjectIDFromHex(id)
	return envelope.OK(&notes.Note{ID: oid, Title: snap.Title, Content: snap.Content})
}

func (f *fakeSaver) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func (f *fakeSaver) saved() []Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Snapshot(nil), f.calls...)
}

// upperFormatter upper-cases content; fail makes it reject everything.
type upperFormatter struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (f *upperFormatter) FormatContent(_ context.Context, content string) envelope.Envelope[string] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return envelope.Invalid[string]("content is not valid UTF-8")
	}
	return envelope.OK(strings.ToUpper(content))
}

func (f *upperFormatter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
