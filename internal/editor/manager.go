package editor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"getnotes/internal/envelope"
	"getnotes/internal/notes"
)

// Gateway is the part of the persistence gateway the editor needs.
type Gateway interface {
	Saver
	GetNote(ctx context.Context, id string) envelope.Envelope[*notes.Note]
}

// Manager keeps the open sessions, keyed by a random id handed to the page.
type Manager struct {
	gateway   Gateway
	formatter Formatter
	opts      Options
	log       zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates an empty registry. Sessions it opens share opts.
func NewManager(gateway Gateway, formatter Formatter, opts Options, log zerolog.Logger) *Manager {
	return &Manager{
		gateway:   gateway,
		formatter: formatter,
		opts:      opts.withDefaults(),
		log:       log.With().Str("component", "editor").Logger(),
		sessions:  make(map[string]*Session),
	}
}

// Open loads the note and starts a session on it.
func (m *Manager) Open(ctx context.Context, noteID string) envelope.Envelope[*Session] {
	res := m.gateway.GetNote(ctx, noteID)
	if !res.Success {
		return envelope.Recast[*Session](res)
	}
	n := res.Data

	id := uuid.NewString()
	s := NewSession(id, n.ID.Hex(), Snapshot{Title: n.Title, Content: n.Content},
		m.gateway, m.formatter, m.opts, m.log)
	s.subcategoryID = n.SubcategoryID.Hex()

	m.mu.Lock()
	m.sessions[id] = s
	open := len(m.sessions)
	m.mu.Unlock()

	m.log.Debug().Str("session_id", id).Str("note_id", s.NoteID()).Int("open", open).Msg("session opened")
	return envelope.OK(s)
}

// Get looks a session up by id.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close tears the session down and forgets it. Unknown ids are ignored so
// a repeated unload beacon is harmless.
func (m *Manager) Close(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.Close()
	return true
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Reap closes sessions idle since before now minus the idle timeout. It
// covers pages that went away without sending the unload beacon.
func (m *Manager) Reap(now time.Time) int {
	cutoff := now.Add(-m.opts.IdleTimeout)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.lastActivity().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	if len(stale) > 0 {
		m.log.Info().Int("reaped", len(stale)).Msg("idle editor sessions closed")
	}
	return len(stale)
}

// Run reaps idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	interval := m.opts.IdleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Reap(m.opts.Clock.Now())
		}
	}
}

// Shutdown closes every session and waits for their final saves.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
	for _, s := range all {
		if err := s.Wait(ctx); err != nil {
			m.log.Warn().Err(err).Int("sessions", len(all)).Msg("editor shutdown interrupted")
			return err
		}
	}
	m.log.Info().Int("sessions", len(all)).Msg("editor sessions flushed")
	return nil
}
