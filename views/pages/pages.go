package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"getnotes/views/components"
	"getnotes/views/models"
)

type section []templ.Component

func (s section) Render(ctx context.Context, w io.Writer) error {
	for _, c := range s {
		if err := c.Render(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

func heading(title, description string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, `<h1>`+templ.EscapeString(title)+`</h1>`)
		if err == nil && description != "" {
			_, err = io.WriteString(w, `<p class="muted">`+templ.EscapeString(description)+`</p>`)
		}
		return err
	})
}

func raw(s string) templ.Component { return templ.Raw(s) }

// HomePage lists every category with the create form.
func HomePage(categories []models.CategoryView) templ.Component {
	body := section{
		heading("Your Notes", "Organize what you learn into categories and subcategories."),
		components.GroupForm("/categories", "category-form-error", "", "", "Create Category"),
	}
	if len(categories) == 0 {
		body = append(body, components.EmptyState("No categories yet", "Create your first category to start organizing your notes."))
	} else {
		body = append(body, raw(`<div class="grid">`))
		for _, c := range categories {
			body = append(body, components.CategoryCard(c))
		}
		body = append(body, raw(`</div>`))
	}
	return components.Layout("Home", body)
}

func CategoryPage(category models.CategoryView, subcategories []models.SubcategoryView) templ.Component {
	body := section{
		components.Breadcrumb([]models.Crumb{{Label: category.Title}}),
		heading(category.Title, category.Description),
		components.GroupForm("/category/"+category.ID+"/subcategories", "subcategory-form-error", "", "", "Create Subcategory"),
	}
	if len(subcategories) == 0 {
		body = append(body, components.EmptyState("No subcategories yet", "Create subcategories to organize your notes within this category."))
	}
	for _, s := range subcategories {
		body = append(body, components.SubcategoryCard(s))
	}
	return components.Layout(category.Title, body)
}

func SubcategoryPage(category models.CategoryView, sub models.SubcategoryView, notes []models.NoteView) templ.Component {
	body := section{
		components.Breadcrumb([]models.Crumb{
			{Label: category.Title, Href: category.Href()},
			{Label: sub.Title},
		}),
		heading(sub.Title, sub.Description),
		components.NoteForm(sub.Href() + "/notes"),
	}
	if len(notes) == 0 {
		body = append(body, components.EmptyState("No notes yet", "Create your first note to start writing."))
	}
	for _, n := range notes {
		body = append(body, components.NoteCard(n))
	}
	return components.Layout(components.Title(category.Title, sub.Title), body)
}

func EditorPage(v models.EditorView) templ.Component {
	body := section{
		components.Breadcrumb(v.Crumbs),
		components.EditorPanel(v),
	}
	return components.Layout(v.Title, body)
}

// NotFoundPage is rendered with a 404 status.
func NotFoundPage(message string) templ.Component {
	body := section{
		heading("Not Found", message),
		raw(`<a href="/">Back to home</a>`),
	}
	return components.Layout("Not Found", body)
}

// ErrorPage is rendered when a page cannot load its data.
func ErrorPage(message string) templ.Component {
	body := section{
		heading("Something went wrong", message),
		raw(`<a href="/">Back to home</a>`),
	}
	return components.Layout("Error", body)
}
