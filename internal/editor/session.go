// Package editor hosts the server side of the note editor: one autosave
// session per open editor page, driven by the browser over HTMX requests.
package editor

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"getnotes/internal/envelope"
	"getnotes/internal/notes"
)

type Status string

const (
	StatusSaved   Status = "saved"
	StatusUnsaved Status = "unsaved"
	StatusSaving  Status = "saving"
)

// Snapshot is the editable part of a note.
type Snapshot struct {
	Title   string
	Content string
}

// Saver persists a note. *notes.Service satisfies it.
type Saver interface {
	UpdateNote(ctx context.Context, id string, p notes.NotePatch) envelope.Envelope[*notes.Note]
}

// Formatter reformats note content. *format.Formatter satisfies it.
type Formatter interface {
	FormatContent(ctx context.Context, content string) envelope.Envelope[string]
}

type Options struct {
	Delay       time.Duration
	SaveTimeout time.Duration
	IdleTimeout time.Duration
	Clock       Clock
}

func (o Options) withDefaults() Options {
	if o.Delay <= 0 {
		o.Delay = 2 * time.Second
	}
	if o.SaveTimeout <= 0 {
		o.SaveTimeout = 10 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 30 * time.Minute
	}
	if o.Clock == nil {
		o.Clock = realClock{}
	}
	return o
}

// State is what the page shows for a session.
type State struct {
	Status     Status
	Title      string
	Content    string
	Formatting bool
}

// Session is the autosave state machine of one open note. Its fields only
// change through Edit, Save, Format, Close and the debounce timer. The
// mutex is never held while the saver or formatter runs.
type Session struct {
	id            string
	noteID        string
	subcategoryID string // set by Manager.Open
	saver         Saver
	formatter     Formatter
	opts          Options
	log           zerolog.Logger

	mu         sync.Mutex
	status     Status
	lastSaved  Snapshot
	current    Snapshot
	timer      Timer
	gen        uint64 // invalidates timers that fire after being replaced
	inFlight   bool
	pending    bool // a save was requested while another was in flight
	formatting bool
	closed     bool
	lastActive time.Time

	saves sync.WaitGroup
}

// NewSession starts in the saved state with initial as the last saved
// snapshot.
func NewSession(id, noteID string, initial Snapshot, saver Saver, formatter Formatter, opts Options, log zerolog.Logger) *Session {
	opts = opts.withDefaults()
	return &Session{
		id:         id,
		noteID:     noteID,
		saver:      saver,
		formatter:  formatter,
		opts:       opts,
		log:        log.With().Str("session_id", id).Str("note_id", noteID).Logger(),
		status:     StatusSaved,
		lastSaved:  initial,
		current:    initial,
		lastActive: opts.Clock.Now(),
	}
}

func (s *Session) ID() string     { return s.id }
func (s *Session) NoteID() string { return s.noteID }

func (s *Session) SubcategoryID() string { return s.subcategoryID }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Status:     s.status,
		Title:      s.current.Title,
		Content:    s.current.Content,
		Formatting: s.formatting,
	}
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) lastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Edit records the editor's current title and content. A value that differs
// from the last saved one restarts the debounce timer; going back to the
// last saved value cancels it.
func (s *Session) Edit(snap Snapshot) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.status
	}
	s.current = snap
	s.lastActive = s.opts.Clock.Now()

	if snap == s.lastSaved {
		s.stopTimer()
		s.status = StatusSaved
		return s.status
	}
	s.status = StatusUnsaved
	s.restartTimer()
	return s.status
}

// Save cancels the pending debounce and saves right away. With no write
// running it returns once that write, and any save queued behind it, has
// completed. With a write already running the request is queued behind it
// and Save returns at once with status saving.
func (s *Session) Save() Status {
	s.mu.Lock()
	if s.closed {
		defer s.mu.Unlock()
		return s.status
	}
	s.stopTimer()
	s.lastActive = s.opts.Clock.Now()
	s.mu.Unlock()

	s.flush("manual")
	return s.Status()
}

// Format runs the formatter over the current content. Blank content and a
// format already running are no-ops. Formatted content is adopted only when
// it differs and the content was not edited meanwhile; adopting it saves
// immediately. The envelope carries the content the editor should show.
func (s *Session) Format(ctx context.Context) envelope.Envelope[string] {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return envelope.Invalid[string]("Editor session is closed")
	}
	if s.formatting || strings.TrimSpace(s.current.Content) == "" {
		content := s.current.Content
		s.mu.Unlock()
		return envelope.OK(content)
	}
	s.formatting = true
	s.lastActive = s.opts.Clock.Now()
	before := s.current.Content
	s.mu.Unlock()

	res := s.formatter.FormatContent(ctx, before)

	s.mu.Lock()
	s.formatting = false
	if !res.Success {
		s.mu.Unlock()
		s.log.Warn().Str("error", res.Error).Msg("format failed")
		return envelope.Recast[string](res)
	}
	adopt := !s.closed && res.Data != before && s.current.Content == before
	if adopt {
		s.current.Content = res.Data
		s.stopTimer()
	}
	content := s.current.Content
	s.mu.Unlock()

	if adopt {
		s.log.Debug().Int("content_len", len(content)).Msg("formatted content adopted")
		s.flush("format")
	}
	return envelope.OK(content)
}

// Close ends the session. Unsaved changes are written by one detached save
// whose outcome is only logged. Later calls do nothing.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopTimer()
	snap := s.current
	dirty := snap != s.lastSaved
	if dirty {
		s.saves.Add(1)
	}
	s.mu.Unlock()

	if !dirty {
		s.log.Debug().Msg("session closed clean")
		return
	}
	s.log.Info().Int("content_len", len(snap.Content)).Msg("session closed dirty, saving")
	go func() {
		defer s.saves.Done()
		s.write(snap, "teardown")
	}()
}

// Wait blocks until background saves started by the timer or by Close have
// returned, or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.saves.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// restartTimer must be called with mu held.
func (s *Session) restartTimer() {
	s.stopTimer()
	s.gen++
	gen := s.gen
	s.timer = s.opts.Clock.AfterFunc(s.opts.Delay, func() { s.fire(gen) })
}

// stopTimer must be called with mu held.
func (s *Session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *Session) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.saves.Add(1)
	s.mu.Unlock()

	defer s.saves.Done()
	s.flush("autosave")
}

// flush saves the current snapshot unless it is already saved. Only one
// flush writes at a time; a flush arriving during a write is folded into a
// follow-up write once the first one returns.
func (s *Session) flush(trigger string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if s.inFlight {
		s.pending = true
		s.mu.Unlock()
		return
	}

	for {
		snap := s.current
		if snap == s.lastSaved {
			s.status = StatusSaved
			s.mu.Unlock()
			return
		}
		s.inFlight = true
		s.pending = false
		s.status = StatusSaving
		s.mu.Unlock()

		ok := s.write(snap, trigger)

		s.mu.Lock()
		s.inFlight = false
		if ok {
			s.lastSaved = snap
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		if s.pending {
			trigger = "queued"
			continue
		}
		switch {
		case !ok:
			s.status = StatusUnsaved
		case s.current == s.lastSaved:
			s.status = StatusSaved
		default:
			// Edited while saving. Make sure the newer content still has a
			// save ahead of it.
			s.status = StatusUnsaved
			if s.timer == nil {
				s.restartTimer()
			}
		}
		s.mu.Unlock()
		return
	}
}

// write sends one update with a context detached from any request.
func (s *Session) write(snap Snapshot, trigger string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.SaveTimeout)
	defer cancel()

	start := time.Now()
	res := s.saver.UpdateNote(ctx, s.noteID, notes.NotePatch{
		Title:   &snap.Title,
		Content: &snap.Content,
	})
	if !res.Success {
		s.log.Error().
			Str("trigger", trigger).
			Str("code", res.Code).
			Str("error", res.Error).
			Msg("save failed")
		return false
	}
	s.log.Debug().
		Str("trigger", trigger).
		Int("content_len", len(snap.Content)).
		Dur("took", time.Since(start)).
		Msg("saved")
	return true
}
