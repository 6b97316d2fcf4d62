package notes

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/rs/zerolog"

	"getnotes/internal/envelope"
	"getnotes/views/components"
	"getnotes/views/models"
	"getnotes/views/pages"
)

// Handler serves the JSON API, the pages and the HTMX forms of the tree.
type Handler struct {
	svc *Service
	log zerolog.Logger
	now func() time.Time
}

// NewHandler creates a new handler
func NewHandler(svc *Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log.With().Str("component", "http").Logger(), now: time.Now}
}

// --- REST API Handlers ---

// ListCategories handles GET /api/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	respond(w, h.svc.ListCategories(r.Context()), http.StatusOK)
}

// CreateCategory handles POST /api/categories
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var input CreateCategoryInput
	if !decode(w, r, &input) {
		return
	}
	respond(w, h.svc.CreateCategory(r.Context(), input), http.StatusCreated)
}

// GetCategory handles GET /api/categories/{id}
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	respond(w, h.svc.GetCategory(r.Context(), r.PathValue("id")), http.StatusOK)
}

// UpdateCategory handles PATCH /api/categories/{id}
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch GroupPatch
	if !decode(w, r, &patch) {
		return
	}
	respond(w, h.svc.UpdateCategory(r.Context(), r.PathValue("id"), patch), http.StatusOK)
}

// DeleteCategory handles DELETE /api/categories/{id}
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	respond(w, h.svc.DeleteCategory(r.Context(), r.PathValue("id")), http.StatusOK)
}

// ListSubcategories handles GET /api/categories/{id}/subcategories
func (h *Handler) ListSubcategories(w http.ResponseWriter, r *http.Request) {
	respond(w, h.svc.ListSubcategories(r.Context(), r.PathValue("id")), http.StatusOK)
}

// CreateSubcategory handles POST /api/subcategories
func (h *Handler) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	var input CreateSubcategoryInput
	if !decode(w, r, &input) {
		return
	}
	respond(w, h.svc.CreateSubcategory(r.Context(), input), http.StatusCreated)
}

// GetSubcategory handles GET /api/subcategories/{id}
func (h *Handler) GetSubcategory(w http.ResponseWriter, r *http.Request) {
	respond(w, h.svc.GetSubcategory(r.Context(), r.PathValue("id")), http.StatusOK)
}

// UpdateSubcategory handles PATCH /api/subcategories/{id}
func (h *Handler) UpdateSubcategory(w http.ResponseWriter, r *http.Request) {
	var patch GroupPatch
	if !decode(w, r, &patch) {
		return
	}
	respond(w, h.svc.UpdateSubcategory(r.Context(), r.PathValue("id"), patch), http.StatusOK)
}

// DeleteSubcategory handles DELETE /api/subcategories/{id}?categoryId=
func (h *Handler) DeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	res := h.svc.DeleteSubcategory(r.Context(), r.PathValue("id"), r.URL.Query().Get("categoryId"))
	respond(w, res, http.StatusOK)
}

// ListNotes handles GET /api/subcategories/{id}/notes
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	respond(w, h.svc.ListNotesBySubcategory(r.Context(), r.PathValue("id")), http.StatusOK)
}

// CreateNote handles POST /api/notes
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var input CreateNoteInput
	if !decode(w, r, &input) {
		return
	}
	respond(w, h.svc.CreateNote(r.Context(), input), http.StatusCreated)
}

// GetNote handles GET /api/notes/{id}
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	respond(w, h.svc.GetNote(r.Context(), r.PathValue("id")), http.StatusOK)
}

// UpdateNote handles PATCH /api/notes/{id}
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var patch NotePatch
	if !decode(w, r, &patch) {
		return
	}
	respond(w, h.svc.UpdateNote(r.Context(), r.PathValue("id"), patch), http.StatusOK)
}

// DeleteNote handles DELETE /api/notes/{id}?categoryId=&subcategoryId=
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res := h.svc.DeleteNote(r.Context(), r.PathValue("id"), q.Get("categoryId"), q.Get("subcategoryId"))
	respond(w, res, http.StatusOK)
}

// --- Helper functions ---

// respond writes the envelope with the status its code maps to.
func respond[T any](w http.ResponseWriter, res envelope.Envelope[T], okStatus int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.HTTPStatus(okStatus))
	json.NewEncoder(w).Encode(res)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respond(w, envelope.Invalid[envelope.Empty]("Invalid JSON body"), http.StatusOK)
		return false
	}
	return true
}

// --- View model converters ---

func (h *Handler) categoryView(c *Category) models.CategoryView {
	return models.CategoryView{
		ID:          c.ID.Hex(),
		Title:       c.Title,
		Description: c.Description,
		Updated:     models.RelativeTime(c.UpdatedAt, h.now()),
	}
}

func (h *Handler) subcategoryView(s *Subcategory) models.SubcategoryView {
	return models.SubcategoryView{
		ID:          s.ID.Hex(),
		CategoryID:  s.CategoryID.Hex(),
		Title:       s.Title,
		Description: s.Description,
		Updated:     models.RelativeTime(s.UpdatedAt, h.now()),
	}
}

func (h *Handler) noteView(n *Note, categoryID string) models.NoteView {
	return models.NoteView{
		ID:            n.ID.Hex(),
		CategoryID:    categoryID,
		SubcategoryID: n.SubcategoryID.Hex(),
		Title:         n.Title,
		Preview:       models.Preview(n.Content),
		HTML:          h.svc.RenderMarkdown(n.Content),
		Updated:       models.RelativeTime(n.UpdatedAt, h.now()),
	}
}

// --- HTMX Web Handlers ---

// HomePage handles GET /
func (h *Handler) HomePage(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.page(w, r, http.StatusNotFound, pages.NotFoundPage("This page does not exist."))
		return
	}

	res := h.svc.ListCategories(r.Context())
	if !res.Success {
		h.page(w, r, http.StatusInternalServerError, pages.ErrorPage(res.Error))
		return
	}

	views := make([]models.CategoryView, len(res.Data))
	for i, c := range res.Data {
		views[i] = h.categoryView(c)
	}
	h.page(w, r, http.StatusOK, pages.HomePage(views))
}

// CategoryPage handles GET /category/{categoryID}
func (h *Handler) CategoryPage(w http.ResponseWriter, r *http.Request) {
	cat := h.svc.GetCategory(r.Context(), r.PathValue("categoryID"))
	if !pageOK(h, w, r, cat) {
		return
	}
	subs := h.svc.ListSubcategories(r.Context(), cat.Data.ID.Hex())
	if !pageOK(h, w, r, subs) {
		return
	}

	views := make([]models.SubcategoryView, len(subs.Data))
	for i, s := range subs.Data {
		views[i] = h.subcategoryView(s)
	}
	h.page(w, r, http.StatusOK, pages.CategoryPage(h.categoryView(cat.Data), views))
}

// SubcategoryPage handles GET /category/{categoryID}/subcategory/{subcategoryID}
func (h *Handler) SubcategoryPage(w http.ResponseWriter, r *http.Request) {
	cat, sub, ok := h.loadPath(w, r)
	if !ok {
		return
	}
	list := h.svc.ListNotesBySubcategory(r.Context(), sub.ID.Hex())
	if !pageOK(h, w, r, list) {
		return
	}

	views := make([]models.NoteView, len(list.Data))
	for i, n := range list.Data {
		views[i] = h.noteView(n, cat.ID.Hex())
	}
	h.page(w, r, http.StatusOK, pages.SubcategoryPage(h.categoryView(cat), h.subcategoryView(sub), views))
}

// CreateCategoryForm handles POST /categories
func (h *Handler) CreateCategoryForm(w http.ResponseWriter, r *http.Request) {
	res := h.svc.CreateCategory(r.Context(), CreateCategoryInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	})
	h.afterForm(w, r, res.Success, res.Error, "category-form-error", "")
}

// UpdateCategoryForm handles POST /categories/{id}
func (h *Handler) UpdateCategoryForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res := h.svc.UpdateCategory(r.Context(), id, formPatch(r))
	h.afterForm(w, r, res.Success, res.Error, "category-edit-error-"+id, "")
}

// DeleteCategoryForm handles DELETE /categories/{id}
func (h *Handler) DeleteCategoryForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res := h.svc.DeleteCategory(r.Context(), id)
	h.afterForm(w, r, res.Success, res.Error, "category-error-"+id, "/")
}

// CreateSubcategoryForm handles POST /category/{categoryID}/subcategories
func (h *Handler) CreateSubcategoryForm(w http.ResponseWriter, r *http.Request) {
	res := h.svc.CreateSubcategory(r.Context(), CreateSubcategoryInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		CategoryID:  r.PathValue("categoryID"),
	})
	h.afterForm(w, r, res.Success, res.Error, "subcategory-form-error", "")
}

// UpdateSubcategoryForm handles POST /subcategories/{id}
func (h *Handler) UpdateSubcategoryForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res := h.svc.UpdateSubcategory(r.Context(), id, formPatch(r))
	h.afterForm(w, r, res.Success, res.Error, "subcategory-edit-error-"+id, "")
}

// DeleteSubcategoryForm handles DELETE /category/{categoryID}/subcategory/{subcategoryID}
func (h *Handler) DeleteSubcategoryForm(w http.ResponseWriter, r *http.Request) {
	categoryID, id := r.PathValue("categoryID"), r.PathValue("subcategoryID")
	res := h.svc.DeleteSubcategory(r.Context(), id, categoryID)
	h.afterForm(w, r, res.Success, res.Error, "subcategory-error-"+id, "/category/"+categoryID)
}

// CreateNoteForm handles POST /category/{categoryID}/subcategory/{subcategoryID}/notes
// and sends the browser into the editor of the new note.
func (h *Handler) CreateNoteForm(w http.ResponseWriter, r *http.Request) {
	categoryID, subcategoryID := r.PathValue("categoryID"), r.PathValue("subcategoryID")
	res := h.svc.CreateNote(r.Context(), CreateNoteInput{
		Title:         r.FormValue("title"),
		Content:       r.FormValue("content"),
		SubcategoryID: subcategoryID,
	})
	target := ""
	if res.Success {
		target = models.NoteView{ID: res.Data.ID.Hex(), CategoryID: categoryID, SubcategoryID: subcategoryID}.Href()
	}
	h.afterForm(w, r, res.Success, res.Error, "note-form-error", target)
}

// DeleteNoteForm handles DELETE /category/{categoryID}/subcategory/{subcategoryID}/note/{noteID}
func (h *Handler) DeleteNoteForm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("noteID")
	res := h.svc.DeleteNote(r.Context(), id, r.PathValue("categoryID"), r.PathValue("subcategoryID"))
	h.afterForm(w, r, res.Success, res.Error, "note-error-"+id, "")
}

// afterForm answers an HTMX form. Success reloads the page or redirects to
// redirect; failure swaps the message into the form's error slot. Failures
// answer 200 because htmx does not swap error responses.
func (h *Handler) afterForm(w http.ResponseWriter, r *http.Request, ok bool, msg, errID, redirect string) {
	if ok {
		if redirect != "" {
			w.Header().Set("HX-Redirect", redirect)
		} else {
			w.Header().Set("HX-Refresh", "true")
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.log.Debug().Str("path", r.URL.Path).Str("error", msg).Msg("form rejected")
	h.fragment(w, r, components.ErrorMessage(errID, msg))
}

func formPatch(r *http.Request) GroupPatch {
	var p GroupPatch
	if err := r.ParseForm(); err != nil {
		return p
	}
	if v, ok := r.PostForm["title"]; ok && len(v) > 0 {
		p.Title = &v[0]
	}
	if v, ok := r.PostForm["description"]; ok && len(v) > 0 {
		p.Description = &v[0]
	}
	return p
}

// loadPath resolves the category and subcategory of a page URL and checks
// that they belong together.
func (h *Handler) loadPath(w http.ResponseWriter, r *http.Request) (*Category, *Subcategory, bool) {
	cat := h.svc.GetCategory(r.Context(), r.PathValue("categoryID"))
	if !pageOK(h, w, r, cat) {
		return nil, nil, false
	}
	sub := h.svc.GetSubcategory(r.Context(), r.PathValue("subcategoryID"))
	if !pageOK(h, w, r, sub) {
		return nil, nil, false
	}
	if sub.Data.CategoryID != cat.Data.ID {
		h.page(w, r, http.StatusNotFound, pages.NotFoundPage("Subcategory not found"))
		return nil, nil, false
	}
	return cat.Data, sub.Data, true
}

func pageOK[T any](h *Handler, w http.ResponseWriter, r *http.Request, res envelope.Envelope[T]) bool {
	switch {
	case res.Success:
		return true
	case res.IsNotFound():
		h.page(w, r, http.StatusNotFound, pages.NotFoundPage(res.Error))
	default:
		h.page(w, r, http.StatusInternalServerError, pages.ErrorPage(res.Error))
	}
	return false
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("render page")
	}
}

func (h *Handler) fragment(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("render fragment")
	}
}
