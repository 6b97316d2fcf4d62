package notes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"getnotes/internal/envelope"
)

func newTestMux(t *testing.T) (*http.ServeMux, *Service, *memRepo) {
	t.Helper()
	svc, repo := newTestService(t)
	h := NewHandler(svc, zerolog.Nop())
	h.now = repo.clock

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/categories", h.ListCategories)
	mux.HandleFunc("POST /api/categories", h.CreateCategory)
	mux.HandleFunc("GET /api/categories/{id}", h.GetCategory)
	mux.HandleFunc("PATCH /api/categories/{id}", h.UpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", h.DeleteCategory)
	mux.HandleFunc("GET /api/categories/{id}/subcategories", h.ListSubcategories)
	mux.HandleFunc("POST /api/subcategories", h.CreateSubcategory)
	mux.HandleFunc("GET /api/subcategories/{id}/notes", h.ListNotes)
	mux.HandleFunc("POST /api/notes", h.CreateNote)
	mux.HandleFunc("PATCH /api/notes/{id}", h.UpdateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", h.DeleteNote)

	mux.HandleFunc("GET /", h.HomePage)
	mux.HandleFunc("GET /category/{categoryID}", h.CategoryPage)
	mux.HandleFunc("GET /category/{categoryID}/subcategory/{subcategoryID}", h.SubcategoryPage)
	mux.HandleFunc("POST /categories", h.CreateCategoryForm)
	mux.HandleFunc("POST /categories/{id}", h.UpdateCategoryForm)
	mux.HandleFunc("DELETE /categories/{id}", h.DeleteCategoryForm)
	mux.HandleFunc("POST /category/{categoryID}/subcategory/{subcategoryID}/notes", h.CreateNoteForm)
	return mux, svc, repo
}

func doJSON(t *testing.T, mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func doForm(mux http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestAPI_CategoryLifecycle(t *testing.T) {
	mux, _, _ := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/categories", `{"title":"Go","description":"lang"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created envelope.Envelope[*Category]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.True(t, created.Success)
	id := created.Data.ID.Hex()

	rec = doJSON(t, mux, http.MethodPatch, "/api/categories/"+id, `{"title":"Golang"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var updated envelope.Envelope[*Category]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&updated))
	assert.Equal(t, "Golang", updated.Data.Title)
	assert.Equal(t, "lang", updated.Data.Description)

	rec = doJSON(t, mux, http.MethodGet, "/api/categories", "")
	var list envelope.Envelope[[]*Category]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list.Data, 1)

	rec = doJSON(t, mux, http.MethodDelete, "/api/categories/"+id, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{}}`, rec.Body.String())

	rec = doJSON(t, mux, http.MethodGet, "/api/categories/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Category not found","code":"not_found"}`, rec.Body.String())
}

func TestAPI_StatusMapping(t *testing.T) {
	mux, _, repo := newTestMux(t)

	rec := doJSON(t, mux, http.MethodPost, "/api/categories", `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Category title is required","code":"validation"}`, rec.Body.String())

	rec = doJSON(t, mux, http.MethodPost, "/api/categories", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, mux, http.MethodPatch, "/api/notes/"+primitive.NewObjectID().Hex(), `{"content":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	repo.failOn("ListCategories")
	rec = doJSON(t, mux, http.MethodGet, "/api/categories", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Failed to fetch categories","code":"internal"}`, rec.Body.String())
}

func TestAPI_ExampleScenario(t *testing.T) {
	mux, svc, _ := newTestMux(t)
	goCat := mustCategory(t, svc, "Go")

	rec := doJSON(t, mux, http.MethodPost, "/api/subcategories", `{"title":"Channels","categoryId":"`+goCat.ID.Hex()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sub envelope.Envelope[*Subcategory]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sub))

	rec = doJSON(t, mux, http.MethodPost, "/api/notes", `{"title":"select patterns","subcategoryId":"`+sub.Data.ID.Hex()+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, mux, http.MethodDelete, "/api/categories/"+goCat.ID.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/api/subcategories/"+sub.Data.ID.Hex()+"/notes", "")
	assert.JSONEq(t, `{"success":true,"data":[]}`, rec.Body.String())

	assert.True(t, svc.GetSubcategory(t.Context(), sub.Data.ID.Hex()).IsNotFound())
}

func TestHomePage(t *testing.T) {
	mux, svc, repo := newTestMux(t)
	mustCategory(t, svc, "Go")

	rec := doJSON(t, mux, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h3>Go</h3>")
	assert.Contains(t, rec.Body.String(), "just now")

	repo.mu.Lock()
	repo.now = repo.now.Add(2 * time.Hour)
	repo.mu.Unlock()
	rec = doJSON(t, mux, http.MethodGet, "/", "")
	assert.Contains(t, rec.Body.String(), "2 hours ago")

	rec = doJSON(t, mux, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSubcategoryPage(t *testing.T) {
	mux, svc, _ := newTestMux(t)
	cat := mustCategory(t, svc, "Go")
	sub := mustSubcategory(t, svc, cat.ID, "Channels")
	mustNote(t, svc, sub.ID, "select patterns", "# Select\n\nuse `select`")

	rec := doJSON(t, mux, http.MethodGet, "/category/"+cat.ID.Hex()+"/subcategory/"+sub.ID.Hex(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "select patterns")
	assert.Contains(t, body, "<h1>Select</h1>")

	other := mustCategory(t, svc, "Rust")
	rec = doJSON(t, mux, http.MethodGet, "/category/"+other.ID.Hex()+"/subcategory/"+sub.ID.Hex(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, mux, http.MethodGet, "/category/zzz", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForms(t *testing.T) {
	mux, svc, _ := newTestMux(t)

	rec := doForm(mux, http.MethodPost, "/categories", url.Values{"title": {""}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="category-form-error"`)
	assert.Contains(t, rec.Body.String(), "Category title is required")

	rec = doForm(mux, http.MethodPost, "/categories", url.Values{"title": {"Go"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("HX-Refresh"))

	cat := svc.ListCategories(t.Context()).Data[0]
	rec = doForm(mux, http.MethodPost, "/categories/"+cat.ID.Hex(), url.Values{"description": {"systems"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "systems", svc.GetCategory(t.Context(), cat.ID.Hex()).Data.Description)
	assert.Equal(t, "Go", svc.GetCategory(t.Context(), cat.ID.Hex()).Data.Title)

	sub := mustSubcategory(t, svc, cat.ID, "Channels")
	target := "/category/" + cat.ID.Hex() + "/subcategory/" + sub.ID.Hex()
	rec = doForm(mux, http.MethodPost, target+"/notes", url.Values{"title": {"select patterns"}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("HX-Redirect"), target+"/note/"))

	req := httptest.NewRequest(http.MethodDelete, "/categories/"+cat.ID.Hex(), nil)
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("HX-Redirect"))
	assert.Empty(t, svc.ListNotesBySubcategory(t.Context(), sub.ID.Hex()).Data)
}
