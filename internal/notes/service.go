package notes

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"getnotes/internal/envelope"
)

// Service is the persistence gateway. Every operation answers with an
// envelope; store faults are logged and converted, never returned raw.
type Service struct {
	repo    Repository
	cascade *Cascade
	md      goldmark.Markdown
	log     zerolog.Logger
}

// NewService creates the gateway over repo. Deletes go through a Cascade on the same repo.
func NewService(repo Repository, log zerolog.Logger) *Service {
	log = log.With().Str("component", "gateway").Logger()
	return &Service{
		repo:    repo,
		cascade: NewCascade(repo, log),
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
		log:     log,
	}
}

// --- Categories ---

// ListCategories returns all categories, newest first.
func (s *Service) ListCategories(ctx context.Context) envelope.Envelope[[]*Category] {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return fault[[]*Category](s.log, err, "Failed to fetch categories")
	}
	if categories == nil {
		categories = []*Category{}
	}
	return envelope.OK(categories)
}

// GetCategory retrieves a category by its ID.
func (s *Service) GetCategory(ctx context.Context, id string) envelope.Envelope[*Category] {
	oid, ok := parseID(id)
	if !ok {
		return envelope.NotFound[*Category]("Category not found")
	}
	c, err := s.repo.FindCategory(ctx, oid)
	if errors.Is(err, ErrCategoryNotFound) {
		return envelope.NotFound[*Category]("Category not found")
	}
	if err != nil {
		return fault[*Category](s.log, err, "Failed to fetch category")
	}
	return envelope.OK(c)
}

// CreateCategory validates the input and stores a new category.
func (s *Service) CreateCategory(ctx context.Context, in CreateCategoryInput) envelope.Envelope[*Category] {
	title, err := cleanTitle("Category", in.Title, maxGroupTitle)
	if err != nil {
		return envelope.Invalid[*Category](err.Error())
	}
	desc, err := cleanDescription(in.Description)
	if err != nil {
		return envelope.Invalid[*Category](err.Error())
	}

	c := &Category{Title: title, Description: desc}
	if err := s.repo.InsertCategory(ctx, c); err != nil {
		return fault[*Category](s.log, err, "Failed to create category")
	}
	s.log.Info().Str("category_id", c.ID.Hex()).Msg("category created")
	return envelope.OK(c)
}

// UpdateCategory applies the supplied fields only.
func (s *Service) UpdateCategory(ctx context.Context, id string, p GroupPatch) envelope.Envelope[*Category] {
	oid, ok := parseID(id)
	if !ok {
		return envelope.NotFound[*Category]("Category not found")
	}
	p, err := cleanGroupPatch("Category", p)
	if err != nil {
		return envelope.Invalid[*Category](err.Error())
	}
	c, err := s.repo.UpdateCategory(ctx, oid, p)
	if errors.Is(err, ErrCategoryNotFound) {
		return envelope.NotFound[*Category]("Category not found")
	}
	if err != nil {
		return fault[*Category](s.log, err, "Failed to update category")
	}
	return envelope.OK(c)
}

// DeleteCategory removes the category and everything under it.
func (s *Service) DeleteCategory(ctx context.Context, id string) envelope.Envelope[envelope.Empty] {
	oid, ok := parseID(id)
	if !ok {
		return envelope.NotFound[envelope.Empty]("Category not found")
	}
	return s.cascade.DeleteCategory(ctx, oid)
}

// --- Subcategories ---

// ListSubcategories returns the subcategories of a category, newest first.
// An unknown or malformed category id yields an empty list.
func (s *Service) ListSubcategories(ctx context.Context, categoryID string) envelope.Envelope[[]*Subcategory] {
	oid, ok := parseID(categoryID)
	if !ok {
		return envelope.OK([]*Subcategory{})
	}
	subs, err := s.repo.ListSubcategories(ctx, oid)
	if err != nil {
		return fault[[]*Subcategory](s.log, err, "Failed to fetch subcategories")
	}
	if subs == nil {
		subs = []*Subcategory{}
	}
	return envelope.OK(subs)
}

// GetSubcategory retrieves a subcategory by its ID.
func (s *Service) GetSubcategory(ctx context.Context, id string) envelope.Envelope[*Subcategory] {
	oid, ok := parseID(id)
	if !ok {
		return envelope.NotFound[*Subcategory]("Subcategory not found")
	}
	sub, err := s.repo.FindSubcategory(ctx, oid)
	if errors.Is(err, ErrSubcategoryNotFound) {
		return envelope.NotFound[*Subcategory]("Subcategory not found")
	}
	if err != nil {
		return fault[*Subcategory](s.log, err, "Failed to fetch subcategory")
	}
	return envelope.OK(sub)
}

// CreateSubcategory requires the parent category to exist at creation time.
func (s *Service) CreateSubcategory(ctx context.Context, in CreateSubcategoryInput) envelope.Envelope[*Subcategory] {
	title, err := cleanTitle("Subcategory", in.Title, maxGroupTitle)
	if err != nil {
		return envelope.Invalid[*Subcategory](err.Error())
	}
	desc, err := cleanDescription(in.Description)
	if err != nil {
		return envelope.Invalid[*Subcategory](err.Error())
	}
	categoryID, err := parentID("Category", in.CategoryID)
	if err != nil {
		return envelope.Invalid[*Subcategory](err.Error())
	}

	if _, err := s.repo.FindCategory(ctx, categoryID); err != nil {
		if errors.Is(err, ErrCategoryNotFound) {
			return envelope.Invalid[*Subcategory]("Category reference does not exist")
		}
		return fault[*Subcategory](s.log, err, "Failed to create subcategory")
	}

	sub := &Subcategory{Title: title, Description: desc, CategoryID: categoryID}
	if err := s.repo.InsertSubcategory(ctx, sub); err != nil {
		return fault[*Subcategory](s.log, err, "Failed to create subcategory")
	}
	s.log.Info().
		Str("subcategory_id", sub.ID.Hex()).
		Str("category_id", categoryID.Hex()).
		Msg("subcategory created")
	return envelope.OK(sub)
}

// UpdateSubcategory applies the supplied fields only.
func (s *Service) UpdateSubcategory(ctx context.Context, id string, p GroupPatch) envelope.Envelope[*Subcategory] {
	oid, ok := parseID(id)
	if !ok {
		return envelope.NotFound[*Subcategory]("Subcategory not found")
	}
	p, err := cleanGroupPatch("Subcategory", p)
	if err != nil {
		return envelope.Invalid[*Subcategory](err.Error())
	}
	sub, err := s.repo.UpdateSubcategory(ctx, oid, p)
	if errors.Is(err, ErrSubcategoryNotFound) {
		return envelope.NotFound[*Subcategory]("Subcategory not found")
	}
	if err != nil {
		return fault[*Subcategory](s.log, err, "Failed to update subcategory")
	}
	return envelope.OK(sub)
}

// DeleteSubcategory removes the subcategory and its notes. categoryID only
// identifies the page the caller returns to.
func (s *Service) DeleteSubcategory(ctx context.Context, id, categoryID string) envelope.Envelope[envelope.Empty] {
	oid, ok := parseID(id)
	if !ok {
		return envelope.NotFound[envelope.Empty]("Subcategory not found")
	}
	res := s.cascade.DeleteSubcategory(ctx, oid)
	if res.Success {
		s.log.Info().Str("subcategory_id", id).Str("category_id", categoryID).Msg("subcategory deleted")
	}
	return res
}

// --- Notes ---

// ListNotesBySubcategory returns notes most recently updated first.
func (s *Service) ListNotesBySubcategory(ctx context.Context, subcategoryID string) envelope.Envelope[[]*Note] {
	oid, ok := parseID(subcategoryID)
	if !ok {
		return envelope.OK([]*Note{})
	}
	notes, err := s.repo.ListNotes(ctx, oid)
	if err != nil {
		return fault[[]*Note](s.log, err, "Failed to fetch notes")
	}
	if notes == nil {
		notes = []*Note{}
	}
	return envelope.OK(notes)
}

// GetNote retrieves a note by its ID.
func (s *Service) GetNote(ctx context.Context, id string) envelope.Envelope[*Note] {
	oid, ok := parseID(id)
	if !ok {
		return envelope.NotFound[*Note]("Note not found")
	}
	n, err := s.repo.FindNote(ctx, oid)
	if errors.Is(err, ErrNoteNotFound) {
		return envelope.NotFound[*Note]("Note not found")
	}
	if err != nil {
		return fault[*Note](s.log, err, "Failed to fetch note")
	}
	return envelope.OK(n)
}

// CreateNote requires the parent subcategory to exist at creation time.
func (s *Service) CreateNote(ctx context.Context, in CreateNoteInput) envelope.Envelope[*Note] {
	title, err := cleanTitle("Note", in.Title, maxNoteTitle)
	if err != nil {
		return envelope.Invalid[*Note](err.Error())
	}
	subcategoryID, err := parentID("Subcategory", in.SubcategoryID)
	if err != nil {
		return envelope.Invalid[*Note](err.Error())
	}

	if _, err := s.repo.FindSubcategory(ctx, subcategoryID); err != nil {
		if errors.Is(err, ErrSubcategoryNotFound) {
			return envelope.Invalid[*Note]("Subcategory reference does not exist")
		}
		return fault[*Note](s.log, err, "Failed to create note")
	}

	n := &Note{Title: title, Content: in.Content, SubcategoryID: subcategoryID}
	if err := s.repo.InsertNote(ctx, n); err != nil {
		return fault[*Note](s.log, err, "Failed to create note")
	}
	s.log.Info().
		Str("note_id", n.ID.Hex()).
		Str("subcategory_id", subcategoryID.Hex()).
		Msg("note created")
	return envelope.OK(n)
}

// UpdateNote applies a partial update. The autosave sessions call it.
func (s *Service) UpdateNote(ctx context.Context, id string, p NotePatch) envelope.Envelope[*Note] {
	oid, ok := parseID(id)
	if !ok {
		return envelope.NotFound[*Note]("Note not found")
	}
	p, err := cleanNotePatch(p)
	if err != nil {
		return envelope.Invalid[*Note](err.Error())
	}

	ev := s.log.Debug().Str("note_id", id)
	if p.Content != nil {
		ev = ev.Int("content_len", len(*p.Content))
	}
	ev.Msg("updating note")

	n, err := s.repo.UpdateNote(ctx, oid, p)
	if errors.Is(err, ErrNoteNotFound) {
		s.log.Warn().Str("note_id", id).Msg("note not found for update")
		return envelope.NotFound[*Note]("Note not found")
	}
	if err != nil {
		return fault[*Note](s.log, err, "Failed to update note")
	}
	return envelope.OK(n)
}

// DeleteNote removes one note. categoryID and subcategoryID only identify
// the page the caller returns to.
func (s *Service) DeleteNote(ctx context.Context, id, categoryID, subcategoryID string) envelope.Envelope[envelope.Empty] {
	oid, ok := parseID(id)
	if !ok {
		return envelope.NotFound[envelope.Empty]("Note not found")
	}
	err := s.repo.DeleteNote(ctx, oid)
	if errors.Is(err, ErrNoteNotFound) {
		return envelope.NotFound[envelope.Empty]("Note not found")
	}
	if err != nil {
		return fault[envelope.Empty](s.log, err, "Failed to delete note")
	}
	s.log.Info().
		Str("note_id", id).
		Str("category_id", categoryID).
		Str("subcategory_id", subcategoryID).
		Msg("note deleted")
	return envelope.OK(envelope.Empty{})
}

// RenderMarkdown converts markdown content to HTML
func (s *Service) RenderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(content), &buf); err != nil {
		return content
	}
	return buf.String()
}

// --- Helpers ---

func parseID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func fault[T any](log zerolog.Logger, err error, msg string) envelope.Envelope[T] {
	log.Error().Err(err).Msg(msg)
	return envelope.Internal[T](msg)
}
