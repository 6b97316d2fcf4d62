package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Crumb is one breadcrumb entry. The last one has no Href.
type Crumb struct {
	Label string
	Href  string
}

// CategoryView represents a category for template rendering
type CategoryView struct {
	ID          string
	Title       string
	Description string
	Updated     string
}

func (c CategoryView) Href() string { return "/category/" + c.ID }

// SubcategoryView represents a subcategory for template rendering
type SubcategoryView struct {
	ID          string
	CategoryID  string
	Title       string
	Description string
	Updated     string
}

func (s SubcategoryView) Href() string {
	return "/category/" + s.CategoryID + "/subcategory/" + s.ID
}

// NoteView represents a note for template rendering
type NoteView struct {
	ID            string
	CategoryID    string
	SubcategoryID string
	Title         string
	Preview       string
	HTML          string // rendered markdown
	Updated       string
}

func (n NoteView) Href() string {
	return "/category/" + n.CategoryID + "/subcategory/" + n.SubcategoryID + "/note/" + n.ID
}

// EditorView is everything the editor page needs.
type EditorView struct {
	SessionID   string
	NoteID      string
	Title       string
	Content     string
	Status      string
	Crumbs      []Crumb
	BackHref    string
}

// RelativeTime describes t relative to now, falling back to a date after a
// week.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute")
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour")
	case d < 7*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day")
	}
	return t.Format("Jan 2, 2006")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// Truncate cuts s to max characters and marks the cut with "...".
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:max])) + "..."
}

var markup = strings.NewReplacer("#", "", "*", "", "`", "")

// Preview is the plain-text teaser shown on note cards.
func Preview(content string) string {
	text := strings.TrimSpace(markup.Replace(content))
	if text == "" {
		return "No content yet"
	}
	return Truncate(text, 100)
}
