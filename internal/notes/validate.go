package notes

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxGroupTitle  = 100
	maxNoteTitle   = 200
	maxDescription = 500
)

// ValidationError reports input rejected before touching the store.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func invalidf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// cleanTitle trims the title and checks it against the length bounds.
func cleanTitle(kind, title string, max int) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalidf("%s title is required", kind)
	}
	if utf8.RuneCountInString(title) > max {
		return "", invalidf("%s title cannot exceed %d characters", kind, max)
	}
	return title, nil
}

func cleanDescription(desc string) (string, error) {
	desc = strings.TrimSpace(desc)
	if utf8.RuneCountInString(desc) > maxDescription {
		return "", invalidf("Description cannot exceed %d characters", maxDescription)
	}
	return desc, nil
}

// parentID parses a required parent reference.
func parentID(kind, hex string) (primitive.ObjectID, error) {
	if strings.TrimSpace(hex) == "" {
		return primitive.NilObjectID, invalidf("%s reference is required", kind)
	}
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, invalidf("%s reference is invalid", kind)
	}
	return oid, nil
}

// cleanGroupPatch validates the supplied fields of a category or
// subcategory patch and returns the normalized copy.
func cleanGroupPatch(kind string, p GroupPatch) (GroupPatch, error) {
	var out GroupPatch
	if p.Title != nil {
		t, err := cleanTitle(kind, *p.Title, maxGroupTitle)
		if err != nil {
			return out, err
		}
		out.Title = &t
	}
	if p.Description != nil {
		d, err := cleanDescription(*p.Description)
		if err != nil {
			return out, err
		}
		out.Description = &d
	}
	return out, nil
}

func cleanNotePatch(p NotePatch) (NotePatch, error) {
	out := NotePatch{Content: p.Content}
	if p.Title != nil {
		t, err := cleanTitle("Note", *p.Title, maxNoteTitle)
		if err != nil {
			return out, err
		}
		out.Title = &t
	}
	return out, nil
}
