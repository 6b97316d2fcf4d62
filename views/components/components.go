// Package components holds the reusable HTML fragments. They are written
// directly against the templ runtime, so pages and handlers can compose them
// like generated components.
package components

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"getnotes/views/models"
)

var esc = templ.EscapeString[string]

func href(u string) string { return esc(string(templ.URL(u))) }

// html writes the parts in order and stops at the first error.
func html(w io.Writer, parts ...string) error {
	for _, p := range parts {
		if _, err := io.WriteString(w, p); err != nil {
			return err
		}
	}
	return nil
}

func render(ctx context.Context, w io.Writer, cs ...templ.Component) error {
	for _, c := range cs {
		if err := c.Render(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

// Layout is the page shell: head, header and the htmx script.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		err := html(w,
			`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`,
			`<meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`, esc(title), ` | GetNotes</title>`,
			`<script src="https://unpkg.com/htmx.org@2.0.4" crossorigin="anonymous"></script>`,
			`<style>`, styles, `</style>`,
			`</head><body hx-boost="false"><header class="header"><a href="/" class="brand">GetNotes</a></header>`,
			`<main class="container">`,
		)
		if err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		return html(w, `</main></body></html>`)
	})
}

const styles = `body{font-family:system-ui,sans-serif;background:#0f172a;color:#e2e8f0;margin:0}
.header{padding:1rem 2rem;border-bottom:1px solid #1e293b}.brand{color:#34d399;font-weight:700;text-decoration:none}
.container{max-width:960px;margin:0 auto;padding:1.5rem}a{color:#93c5fd}
.card{background:#1e293b;border-radius:.5rem;padding:1rem;margin-bottom:.75rem}
.grid{display:grid;grid-template-columns:repeat(auto-fill,minmax(260px,1fr));gap:.75rem}
.muted{color:#94a3b8;font-size:.875rem}.error{color:#f87171;font-size:.875rem}
.status{font-size:.875rem}.status-saved{color:#34d399}.status-unsaved{color:#fbbf24}.status-saving{color:#93c5fd}
input,textarea{width:100%;box-sizing:border-box;background:#0f172a;color:#e2e8f0;border:1px solid #334155;border-radius:.375rem;padding:.5rem}
textarea.editor{min-height:60vh;font-family:ui-monospace,monospace}
button{background:#10b981;color:#0f172a;border:0;border-radius:.375rem;padding:.4rem .8rem;cursor:pointer}
button.danger{background:#ef4444;color:#fff}.row{display:flex;gap:.5rem;align-items:center;justify-content:space-between}
.preview{max-height:8rem;overflow:hidden}`

func Breadcrumb(crumbs []models.Crumb) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := html(w, `<nav class="muted" aria-label="Breadcrumb"><a href="/">Home</a>`); err != nil {
			return err
		}
		for _, c := range crumbs {
			var err error
			if c.Href != "" {
				err = html(w, ` / <a href="`, href(c.Href), `">`, esc(c.Label), `</a>`)
			} else {
				err = html(w, ` / <span>`, esc(c.Label), `</span>`)
			}
			if err != nil {
				return err
			}
		}
		return html(w, `</nav>`)
	})
}

// ErrorMessage is the inline message slot next to a form. An empty message
// renders the slot empty so a later success can clear it.
func ErrorMessage(id, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return html(w, `<p id="`, esc(id), `" class="error" role="alert">`, esc(message), `</p>`)
	})
}

func EmptyState(title, description string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return html(w, `<div class="card empty"><h3>`, esc(title), `</h3><p class="muted">`, esc(description), `</p></div>`)
	})
}

// GroupForm creates or edits a category or subcategory. action is the
// POST target; errID names the inline error slot.
func GroupForm(action, errID, title, description, submit string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return html(w,
			`<form class="card" hx-post="`, esc(action), `" hx-target="#`, esc(errID), `" hx-swap="outerHTML">`,
			`<input name="title" placeholder="Title" maxlength="100" value="`, esc(title), `" required>`,
			`<textarea name="description" placeholder="Description (optional)" maxlength="500" rows="2">`, esc(description), `</textarea>`,
			`<p id="`, esc(errID), `" class="error" role="alert"></p>`,
			`<button type="submit">`, esc(submit), `</button></form>`,
		)
	})
}

func CategoryCard(c models.CategoryView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		err := html(w,
			`<div class="card" id="category-`, esc(c.ID), `">`,
			`<a href="`, href(c.Href()), `"><h3>`, esc(c.Title), `</h3></a>`,
			`<p class="muted">`, esc(c.Description), `</p>`,
			`<div class="row"><span class="muted">Updated `, esc(c.Updated), `</span>`,
			`<button class="danger" hx-delete="/categories/`, esc(c.ID), `" hx-target="#category-error-`, esc(c.ID), `" hx-swap="outerHTML"`,
			` hx-confirm="Delete this category and all its subcategories and notes? This action cannot be undone.">Delete</button></div>`,
		)
		if err != nil {
			return err
		}
		return render(ctx, w,
			ErrorMessage("category-error-"+c.ID, ""),
			details("Edit", GroupForm("/categories/"+c.ID, "category-edit-error-"+c.ID, c.Title, c.Description, "Save Changes")),
			templ.Raw(`</div>`),
		)
	})
}

func SubcategoryCard(s models.SubcategoryView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		err := html(w,
			`<div class="card" id="subcategory-`, esc(s.ID), `">`,
			`<a href="`, href(s.Href()), `"><h3>`, esc(s.Title), `</h3></a>`,
			`<p class="muted">`, esc(s.Description), `</p>`,
			`<div class="row"><span class="muted">Updated `, esc(s.Updated), `</span>`,
			`<button class="danger" hx-delete="`, esc(s.Href()), `" hx-target="#subcategory-error-`, esc(s.ID), `" hx-swap="outerHTML"`,
			` hx-confirm="Delete this subcategory and all its notes? This action cannot be undone.">Delete</button></div>`,
		)
		if err != nil {
			return err
		}
		return render(ctx, w,
			ErrorMessage("subcategory-error-"+s.ID, ""),
			details("Edit", GroupForm("/subcategories/"+s.ID, "subcategory-edit-error-"+s.ID, s.Title, s.Description, "Save Changes")),
			templ.Raw(`</div>`),
		)
	})
}

func NoteCard(n models.NoteView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return html(w,
			`<div class="card" id="note-`, esc(n.ID), `">`,
			`<a href="`, href(n.Href()), `"><h3>`, esc(n.Title), `</h3></a>`,
			`<p class="muted">`, esc(n.Preview), `</p>`,
			`<div class="preview">`, n.HTML, `</div>`,
			`<div class="row"><span class="muted">Updated `, esc(n.Updated), `</span>`,
			`<span><a href="`, href(n.Href()), `">Edit</a> `,
			`<button class="danger" hx-delete="`, esc(n.Href()), `" hx-target="#note-error-`, esc(n.ID), `" hx-swap="outerHTML"`,
			` hx-confirm="Delete this note? This action cannot be undone.">Delete</button></span></div>`,
			`<p id="note-error-`, esc(n.ID), `" class="error" role="alert"></p></div>`,
		)
	})
}

// NoteForm creates a note; the server redirects into the editor.
func NoteForm(action string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return html(w,
			`<form class="card" hx-post="`, esc(action), `" hx-target="#note-form-error" hx-swap="outerHTML">`,
			`<input name="title" placeholder="Note title" maxlength="200" required>`,
			`<p id="note-form-error" class="error" role="alert"></p>`,
			`<button type="submit">New Note</button></form>`,
		)
	})
}

func details(summary string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := html(w, `<details><summary class="muted">`, esc(summary), `</summary>`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		return html(w, `</details>`)
	})
}

var statusLabels = map[string]string{
	"saved":   "Saved",
	"unsaved": "Unsaved changes",
	"saving":  "Saving...",
}

// SaveStatus is the status indicator with the manual save button. It polls
// itself so the label follows autosaves. oob marks it for an out-of-band
// swap when it rides along another response.
func SaveStatus(sessionID, status string, oob bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		label, ok := statusLabels[status]
		if !ok {
			label = status
		}
		swap := ""
		if oob {
			swap = ` hx-swap-oob="true"`
		}
		base := "/editor/" + sessionID
		return html(w,
			`<div id="save-status" class="row"`, swap,
			` hx-get="`, esc(base+"/status"), `" hx-trigger="every 1s" hx-swap="outerHTML">`,
			`<span class="status status-`, esc(status), `">`, esc(label), `</span>`,
			`<button hx-post="`, esc(base+"/save"), `" hx-include="#editor" hx-target="#save-status" hx-swap="outerHTML">Save</button>`,
			`</div>`,
		)
	})
}

// SessionGone replaces the status indicator once the server forgot the
// session, e.g. after the idle timeout.
func SessionGone() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return html(w, `<div id="save-status" class="row"><span class="error">Editor session expired. Reload the page to keep editing.</span></div>`)
	})
}

// EditorFields is the title input and content textarea. Edits are posted as
// they happen; the server owns the debounce.
func EditorFields(v models.EditorView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		base := "/editor/" + v.SessionID
		return html(w,
			`<form id="editor" hx-post="`, esc(base+"/edit"), `"`,
			` hx-trigger="input delay:250ms" hx-target="#save-status" hx-swap="outerHTML">`,
			`<input name="title" value="`, esc(v.Title), `" placeholder="Note title" maxlength="200">`,
			`<textarea class="editor" name="content" spellcheck="false">`, esc(v.Content), `</textarea>`,
			`</form>`,
		)
	})
}

// EditorPanel is the editor with its toolbar and the teardown beacon.
func EditorPanel(v models.EditorView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		base := "/editor/" + v.SessionID
		err := html(w,
			`<div class="row">`, `<a href="`, href(v.BackHref), `">Back</a>`,
			`<button hx-post="`, esc(base+"/format"), `" hx-include="#editor" hx-target="#editor" hx-swap="outerHTML">Format</button>`,
			`</div>`,
		)
		if err != nil {
			return err
		}
		if err := render(ctx, w, SaveStatus(v.SessionID, v.Status, false), ErrorMessage("editor-error", ""), EditorFields(v)); err != nil {
			return err
		}
		// The beacon carries the form so edits still inside the input delay
		// reach the teardown save.
		return html(w, fmt.Sprintf(
			`<script>window.addEventListener("pagehide",function(){`+
				`navigator.sendBeacon(%q,new URLSearchParams(new FormData(document.getElementById("editor"))))`+
				`});</script>`,
			base+"/close",
		))
	})
}

// Fragment renders components back to back, for HTMX responses that carry
// out-of-band swaps.
func Fragment(cs ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return render(ctx, w, cs...)
	})
}

// OOBError is an ErrorMessage swapped out of band.
func OOBError(id, message string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return html(w, `<p id="`, esc(id), `" class="error" role="alert" hx-swap-oob="true">`, esc(message), `</p>`)
	})
}

// Title joins the parts for the document title.
func Title(parts ...string) string {
	return strings.Join(parts, " / ")
}
