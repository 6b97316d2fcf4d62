package notes

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errStore = errors.New("store unavailable")

// memRepo is an in-memory Repository. Timestamps advance one second per
// write so orderings are deterministic. fail makes the named method return
// errStore.
type memRepo struct {
	mu            sync.Mutex
	now           time.Time
	categories    map[primitive.ObjectID]*Category
	subcategories map[primitive.ObjectID]*Subcategory
	notes         map[primitive.ObjectID]*Note
	fail          map[string]bool
	calls         []string
}

func newMemRepo() *memRepo {
	return &memRepo{
		now:           time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
		categories:    map[primitive.ObjectID]*Category{},
		subcategories: map[primitive.ObjectID]*Subcategory{},
		notes:         map[primitive.ObjectID]*Note{},
		fail:          map[string]bool{},
	}
}

func (m *memRepo) failOn(method string) { m.mu.Lock(); m.fail[method] = true; m.mu.Unlock() }

func (m *memRepo) enter(method string) error {
	m.calls = append(m.calls, method)
	if m.fail[method] {
		return errStore
	}
	return nil
}

func (m *memRepo) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

// clock reports the time of the latest write.
func (m *memRepo) clock() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *memRepo) callLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *memRepo) InsertCategory(_ context.Context, c *Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("InsertCategory"); err != nil {
		return err
	}
	c.ID = primitive.NewObjectID()
	c.CreatedAt = m.tick()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.categories[c.ID] = &cp
	return nil
}

func (m *memRepo) FindCategory(_ context.Context, id primitive.ObjectID) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("FindCategory"); err != nil {
		return nil, err
	}
	c, ok := m.categories[id]
	if !ok {
		return nil, ErrCategoryNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memRepo) ListCategories(_ context.Context) ([]*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListCategories"); err != nil {
		return nil, err
	}
	out := []*Category{}
	for _, c := range m.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) UpdateCategory(_ context.Context, id primitive.ObjectID, p GroupPatch) (*Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateCategory"); err != nil {
		return nil, err
	}
	c, ok := m.categories[id]
	if !ok {
		return nil, ErrCategoryNotFound
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	c.UpdatedAt = m.tick()
	cp := *c
	return &cp, nil
}

func (m *memRepo) DeleteCategory(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteCategory"); err != nil {
		return err
	}
	if _, ok := m.categories[id]; !ok {
		return ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *memRepo) InsertSubcategory(_ context.Context, s *Subcategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("InsertSubcategory"); err != nil {
		return err
	}
	s.ID = primitive.NewObjectID()
	s.CreatedAt = m.tick()
	s.UpdatedAt = s.CreatedAt
	cp := *s
	m.subcategories[s.ID] = &cp
	return nil
}

func (m *memRepo) FindSubcategory(_ context.Context, id primitive.ObjectID) (*Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("FindSubcategory"); err != nil {
		return nil, err
	}
	s, ok := m.subcategories[id]
	if !ok {
		return nil, ErrSubcategoryNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memRepo) ListSubcategories(_ context.Context, categoryID primitive.ObjectID) ([]*Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListSubcategories"); err != nil {
		return nil, err
	}
	out := []*Subcategory{}
	for _, s := range m.subcategories {
		if s.CategoryID == categoryID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memRepo) UpdateSubcategory(_ context.Context, id primitive.ObjectID, p GroupPatch) (*Subcategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateSubcategory"); err != nil {
		return nil, err
	}
	s, ok := m.subcategories[id]
	if !ok {
		return nil, ErrSubcategoryNotFound
	}
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	s.UpdatedAt = m.tick()
	cp := *s
	return &cp, nil
}

func (m *memRepo) DeleteSubcategory(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteSubcategory"); err != nil {
		return err
	}
	if _, ok := m.subcategories[id]; !ok {
		return ErrSubcategoryNotFound
	}
	delete(m.subcategories, id)
	return nil
}

func (m *memRepo) DeleteSubcategoriesByCategory(_ context.Context, categoryID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteSubcategoriesByCategory"); err != nil {
		return 0, err
	}
	var n int64
	for id, s := range m.subcategories {
		if s.CategoryID == categoryID {
			delete(m.subcategories, id)
			n++
		}
	}
	return n, nil
}

func (m *memRepo) InsertNote(_ context.Context, n *Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("InsertNote"); err != nil {
		return err
	}
	n.ID = primitive.NewObjectID()
	n.CreatedAt = m.tick()
	n.UpdatedAt = n.CreatedAt
	cp := *n
	m.notes[n.ID] = &cp
	return nil
}

func (m *memRepo) FindNote(_ context.Context, id primitive.ObjectID) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("FindNote"); err != nil {
		return nil, err
	}
	n, ok := m.notes[id]
	if !ok {
		return nil, ErrNoteNotFound
	}
	cp := *n
	return &cp, nil
}

func (m *memRepo) ListNotes(_ context.Context, subcategoryID primitive.ObjectID) ([]*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("ListNotes"); err != nil {
		return nil, err
	}
	out := []*Note{}
	for _, n := range m.notes {
		if n.SubcategoryID == subcategoryID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memRepo) UpdateNote(_ context.Context, id primitive.ObjectID, p NotePatch) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("UpdateNote"); err != nil {
		return nil, err
	}
	n, ok := m.notes[id]
	if !ok {
		return nil, ErrNoteNotFound
	}
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	n.UpdatedAt = m.tick()
	cp := *n
	return &cp, nil
}

func (m *memRepo) DeleteNote(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteNote"); err != nil {
		return err
	}
	if _, ok := m.notes[id]; !ok {
		return ErrNoteNotFound
	}
	delete(m.notes, id)
	return nil
}

func (m *memRepo) DeleteNotesBySubcategories(_ context.Context, subcategoryIDs []primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.enter("DeleteNotesBySubcategories"); err != nil {
		return 0, err
	}
	in := make(map[primitive.ObjectID]bool, len(subcategoryIDs))
	for _, id := range subcategoryIDs {
		in[id] = true
	}
	var count int64
	for id, n := range m.notes {
		if in[n.SubcategoryID] {
			delete(m.notes, id)
			count++
		}
	}
	return count, nil
}

func (m *memRepo) counts() (categories, subcategories, notes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.categories), len(m.subcategories), len(m.notes)
}
