package notes

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"getnotes/internal/envelope"
)

// Cascade deletes an entity together with everything it owns, deepest
// descendants first. There is no rollback: when a step fails, the deletions
// that already ran stay applied and the failing step's envelope is returned.
type Cascade struct {
	repo Repository
	log  zerolog.Logger
}

// NewCascade creates a coordinator over repo.
func NewCascade(repo Repository, log zerolog.Logger) *Cascade {
	return &Cascade{repo: repo, log: log.With().Str("component", "cascade").Logger()}
}

// DeleteCategory removes the notes of every subcategory of the category,
// then the subcategories, then the category itself.
func (c *Cascade) DeleteCategory(ctx context.Context, id primitive.ObjectID) envelope.Envelope[envelope.Empty] {
	log := c.log.With().Str("category_id", id.Hex()).Logger()

	subs, err := c.repo.ListSubcategories(ctx, id)
	if err != nil {
		return fault[envelope.Empty](log, err, "Failed to list subcategories")
	}
	subIDs := make([]primitive.ObjectID, len(subs))
	for i, sub := range subs {
		subIDs[i] = sub.ID
	}

	notesDeleted, err := c.repo.DeleteNotesBySubcategories(ctx, subIDs)
	if err != nil {
		return fault[envelope.Empty](log, err, "Failed to delete notes")
	}

	subsDeleted, err := c.repo.DeleteSubcategoriesByCategory(ctx, id)
	if err != nil {
		return fault[envelope.Empty](log, err, "Failed to delete subcategories")
	}

	err = c.repo.DeleteCategory(ctx, id)
	if errors.Is(err, ErrCategoryNotFound) {
		return envelope.NotFound[envelope.Empty]("Category not found")
	}
	if err != nil {
		return fault[envelope.Empty](log, err, "Failed to delete category")
	}

	log.Info().
		Int64("notes", notesDeleted).
		Int64("subcategories", subsDeleted).
		Msg("category deleted")
	return envelope.OK(envelope.Empty{})
}

// DeleteSubcategory removes the notes of the subcategory, then the
// subcategory itself.
func (c *Cascade) DeleteSubcategory(ctx context.Context, id primitive.ObjectID) envelope.Envelope[envelope.Empty] {
	log := c.log.With().Str("subcategory_id", id.Hex()).Logger()

	notesDeleted, err := c.repo.DeleteNotesBySubcategories(ctx, []primitive.ObjectID{id})
	if err != nil {
		return fault[envelope.Empty](log, err, "Failed to delete notes")
	}

	err = c.repo.DeleteSubcategory(ctx, id)
	if errors.Is(err, ErrSubcategoryNotFound) {
		return envelope.NotFound[envelope.Empty]("Subcategory not found")
	}
	if err != nil {
		return fault[envelope.Empty](log, err, "Failed to delete subcategory")
	}

	log.Debug().Int64("notes", notesDeleted).Msg("subcategory notes removed")
	return envelope.OK(envelope.Empty{})
}
