package editor

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/a-h/templ"
	"github.com/rs/zerolog"

	"getnotes/internal/envelope"
	"getnotes/internal/notes"
	"getnotes/views/components"
	"getnotes/views/models"
	"getnotes/views/pages"
)

// Lookup resolves the breadcrumb of the editor page.
type Lookup interface {
	GetCategory(ctx context.Context, id string) envelope.Envelope[*notes.Category]
	GetSubcategory(ctx context.Context, id string) envelope.Envelope[*notes.Subcategory]
}

// Handler serves the editor page and the requests its sessions receive.
type Handler struct {
	manager   *Manager
	lookup    Lookup
	formatter Formatter
	log       zerolog.Logger
}

// NewHandler creates a new editor handler
func NewHandler(manager *Manager, lookup Lookup, formatter Formatter, log zerolog.Logger) *Handler {
	return &Handler{
		manager:   manager,
		lookup:    lookup,
		formatter: formatter,
		log:       log.With().Str("component", "editor_http").Logger(),
	}
}

// EditorPage handles GET /category/{categoryID}/subcategory/{subcategoryID}/note/{noteID}
// and opens a fresh session for the page.
func (h *Handler) EditorPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cat := h.lookup.GetCategory(ctx, r.PathValue("categoryID"))
	if !h.pageOK(w, r, cat.Success, cat.IsNotFound(), cat.Error) {
		return
	}
	sub := h.lookup.GetSubcategory(ctx, r.PathValue("subcategoryID"))
	if !h.pageOK(w, r, sub.Success, sub.IsNotFound(), sub.Error) {
		return
	}
	if sub.Data.CategoryID != cat.Data.ID {
		h.page(w, r, http.StatusNotFound, pages.NotFoundPage("Subcategory not found"))
		return
	}

	opened := h.manager.Open(ctx, r.PathValue("noteID"))
	if !h.pageOK(w, r, opened.Success, opened.IsNotFound(), opened.Error) {
		return
	}
	s := opened.Data
	if s.SubcategoryID() != sub.Data.ID.Hex() {
		h.manager.Close(s.ID())
		h.page(w, r, http.StatusNotFound, pages.NotFoundPage("Note not found"))
		return
	}

	subHref := models.SubcategoryView{ID: sub.Data.ID.Hex(), CategoryID: cat.Data.ID.Hex()}.Href()
	st := s.State()
	h.page(w, r, http.StatusOK, pages.EditorPage(models.EditorView{
		SessionID: s.ID(),
		NoteID:    s.NoteID(),
		Title:     st.Title,
		Content:   st.Content,
		Status:    string(st.Status),
		Crumbs: []models.Crumb{
			{Label: cat.Data.Title, Href: "/category/" + cat.Data.ID.Hex()},
			{Label: sub.Data.Title, Href: subHref},
			{Label: st.Title},
		},
		BackHref: subHref,
	}))
}

// Edit handles POST /editor/{id}/edit
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	st := s.Edit(snapshotFromForm(r, s))
	h.fragment(w, r, components.SaveStatus(s.ID(), string(st), false))
}

// Save handles POST /editor/{id}/save
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Edit(snapshotFromForm(r, s))
	st := s.Save()
	h.fragment(w, r, components.SaveStatus(s.ID(), string(st), false))
}

// Format handles POST /editor/{id}/format. It answers with the editor form
// and swaps the status and error slot out of band.
func (h *Handler) Format(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Edit(snapshotFromForm(r, s))
	res := s.Format(r.Context())

	st := s.State()
	view := models.EditorView{SessionID: s.ID(), Title: st.Title, Content: st.Content}
	h.fragment(w, r, components.Fragment(
		components.EditorFields(view),
		components.SaveStatus(s.ID(), string(st.Status), true),
		components.OOBError("editor-error", res.Error),
	))
}

// Status handles GET /editor/{id}/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.fragment(w, r, components.SaveStatus(s.ID(), string(s.Status()), false))
}

// Close handles POST /editor/{id}/close, the page's unload beacon. The
// beacon posts the editor form; its values are recorded before the session
// is torn down so the teardown save writes them.
func (h *Handler) Close(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.manager.Get(r.PathValue("id")); ok {
		s.Edit(snapshotFromForm(r, s))
	}
	if h.manager.Close(r.PathValue("id")) {
		h.log.Debug().Str("session_id", r.PathValue("id")).Msg("session closed by page")
	}
	w.WriteHeader(http.StatusNoContent)
}

type formatRequest struct {
	Content string `json:"content"`
}

// FormatContent handles POST /api/format
func (h *Handler) FormatContent(w http.ResponseWriter, r *http.Request) {
	var req formatRequest
	var res envelope.Envelope[string]
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		res = envelope.Invalid[string]("Invalid JSON body")
	} else {
		res = h.formatter.FormatContent(r.Context(), req.Content)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.HTTPStatus(http.StatusOK))
	json.NewEncoder(w).Encode(res)
}

func snapshotFromForm(r *http.Request, s *Session) Snapshot {
	st := s.State()
	snap := Snapshot{Title: st.Title, Content: st.Content}
	if err := r.ParseForm(); err != nil {
		return snap
	}
	if v, ok := r.PostForm["title"]; ok && len(v) > 0 {
		snap.Title = v[0]
	}
	if v, ok := r.PostForm["content"]; ok && len(v) > 0 {
		snap.Content = v[0]
	}
	return snap
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	s, ok := h.manager.Get(r.PathValue("id"))
	if !ok {
		h.fragment(w, r, components.SessionGone())
		return nil, false
	}
	return s, true
}

func (h *Handler) pageOK(w http.ResponseWriter, r *http.Request, success, notFound bool, msg string) bool {
	switch {
	case success:
		return true
	case notFound:
		h.page(w, r, http.StatusNotFound, pages.NotFoundPage(msg))
	default:
		h.page(w, r, http.StatusInternalServerError, pages.ErrorPage(msg))
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
