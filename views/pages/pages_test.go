package pages

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"getnotes/views/models"
)

func TestHomePage(t *testing.T) {
	var buf bytes.Buffer
	err := HomePage([]models.CategoryView{
		{ID: "c1", Title: "Go <lang>", Updated: "just now"},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `href="/category/c1"`)
	assert.Contains(t, out, "Go &lt;lang&gt;")
	assert.Contains(t, out, `hx-delete="/categories/c1"`)
	assert.Contains(t, out, "hx-confirm=")
	assert.NotContains(t, out, "No categories yet")
}

func TestHomePage_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HomePage(nil).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No categories yet")
}

func TestSubcategoryPage(t *testing.T) {
	var buf bytes.Buffer
	cat := models.CategoryView{ID: "c1", Title: "Go"}
	sub := models.SubcategoryView{ID: "s1", CategoryID: "c1", Title: "Channels"}
	notes := []models.NoteView{{
		ID: "n1", CategoryID: "c1", SubcategoryID: "s1",
		Title: "select patterns", HTML: "<h1>select</h1>", Updated: "2 hours ago",
	}}
	require.NoError(t, SubcategoryPage(cat, sub, notes).Render(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, `<a href="/category/c1">Go</a>`)
	assert.Contains(t, out, `hx-post="/category/c1/subcategory/s1/notes"`)
	assert.Contains(t, out, `href="/category/c1/subcategory/s1/note/n1"`)
	assert.Contains(t, out, "<h1>select</h1>", "rendered markdown is not escaped")
	assert.Contains(t, out, "Updated 2 hours ago")
}

func TestEditorPage(t *testing.T) {
	var buf bytes.Buffer
	v := models.EditorView{
		SessionID: "abc",
		Title:     "select patterns",
		Content:   "<script>x</script>",
		Status:    "saved",
		Crumbs:    []models.Crumb{{Label: "Go", Href: "/category/c1"}, {Label: "select patterns"}},
		BackHref:  "/category/c1/subcategory/s1",
	}
	require.NoError(t, EditorPage(v).Render(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, `hx-post="/editor/abc/edit"`)
	assert.Contains(t, out, `hx-post="/editor/abc/save"`)
	assert.Contains(t, out, `hx-post="/editor/abc/format"`)
	assert.Contains(t, out, `sendBeacon("/editor/abc/close",new URLSearchParams(new FormData(document.getElementById("editor"))))`)
	assert.Contains(t, out, "&lt;script&gt;x&lt;/script&gt;")
	assert.Contains(t, out, ">Saved<")
}
