package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"getnotes/internal/envelope"
	"getnotes/internal/notes"
)

// Gateway is the part of the note store the tools call. *notes.Service
// satisfies it.
type Gateway interface {
	ListCategories(ctx context.Context) envelope.Envelope[[]*notes.Category]
	ListSubcategories(ctx context.Context, categoryID string) envelope.Envelope[[]*notes.Subcategory]
	ListNotesBySubcategory(ctx context.Context, subcategoryID string) envelope.Envelope[[]*notes.Note]
	GetNote(ctx context.Context, id string) envelope.Envelope[*notes.Note]
	CreateCategory(ctx context.Context, in notes.CreateCategoryInput) envelope.Envelope[*notes.Category]
	CreateSubcategory(ctx context.Context, in notes.CreateSubcategoryInput) envelope.Envelope[*notes.Subcategory]
	CreateNote(ctx context.Context, in notes.CreateNoteInput) envelope.Envelope[*notes.Note]
	UpdateNote(ctx context.Context, id string, p notes.NotePatch) envelope.Envelope[*notes.Note]
}

// Formatter is satisfied by *format.Formatter.
type Formatter interface {
	FormatContent(ctx context.Context, content string) envelope.Envelope[string]
}

// NewServer creates an MCP server exposing the note tree as tools
func NewServer(gw Gateway, f Formatter, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"getnotes",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("list_categories",
			mcp.WithDescription("List all categories, newest first. Start here to find where notes live."),
		),
		handleListCategories(gw),
	)

	s.AddTool(
		mcp.NewTool("list_subcategories",
			mcp.WithDescription("List the subcategories of a category, newest first."),
			mcp.WithString("categoryId",
				mcp.Required(),
				mcp.Description("The category ID (24-character hex string)"),
			),
		),
		handleListSubcategories(gw),
	)

	s.AddTool(
		mcp.NewTool("get_notes",
			mcp.WithDescription("Get the notes of a subcategory, most recently updated first."),
			mcp.WithString("subcategoryId",
				mcp.Required(),
				mcp.Description("The subcategory ID (24-character hex string)"),
			),
		),
		handleGetNotes(gw),
	)

	s.AddTool(
		mcp.NewTool("get_note",
			mcp.WithDescription("Get a specific note by its ID, including the full markdown content."),
			mcp.WithString("id",
				mcp.Required(),
				mcp.Description("The note ID (24-character hex string)"),
			),
		),
		handleGetNote(gw),
	)

	s.AddTool(
		mcp.NewTool("create_category",
			mcp.WithDescription("Create a category."),
			mcp.WithString("title", mcp.Required(), mcp.Description("1-100 characters")),
			mcp.WithString("description", mcp.Description("Optional, up to 500 characters")),
		),
		handleCreateCategory(gw),
	)

	s.AddTool(
		mcp.NewTool("create_subcategory",
			mcp.WithDescription("Create a subcategory inside an existing category."),
			mcp.WithString("categoryId", mcp.Required(), mcp.Description("The parent category ID")),
			mcp.WithString("title", mcp.Required(), mcp.Description("1-100 characters")),
			mcp.WithString("description", mcp.Description("Optional, up to 500 characters")),
		),
		handleCreateSubcategory(gw),
	)

	s.AddTool(
		mcp.NewTool("create_note",
			mcp.WithDescription("Create a note inside an existing subcategory."),
			mcp.WithString("subcategoryId", mcp.Required(), mcp.Description("The parent subcategory ID")),
			mcp.WithString("title", mcp.Required(), mcp.Description("1-200 characters")),
			mcp.WithString("content", mcp.Description("Markdown content")),
		),
		handleCreateNote(gw),
	)

	s.AddTool(
		mcp.NewTool("update_note",
			mcp.WithDescription("Update the title and/or content of a note. Omitted fields are kept."),
			mcp.WithString("id", mcp.Required(), mcp.Description("The note ID")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("content", mcp.Description("New markdown content, replaces the old one")),
		),
		handleUpdateNote(gw),
	)

	s.AddTool(
		mcp.NewTool("format_content",
			mcp.WithDescription("Normalize markdown whitespace and gofmt Go code fences. Does not store anything."),
			mcp.WithString("content", mcp.Required(), mcp.Description("Markdown to format")),
		),
		handleFormatContent(f),
	)

	return s
}

func handleListCategories(gw Gateway) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return result(gw.ListCategories(ctx)), nil
	}
}

func handleListSubcategories(gw Gateway) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("categoryId")
		if err != nil {
			return mcp.NewToolResultError("categoryId is required"), nil
		}
		return result(gw.ListSubcategories(ctx, id)), nil
	}
}

func handleGetNotes(gw Gateway) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("subcategoryId")
		if err != nil {
			return mcp.NewToolResultError("subcategoryId is required"), nil
		}
		return result(gw.ListNotesBySubcategory(ctx, id)), nil
	}
}

func handleGetNote(gw Gateway) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}
		return result(gw.GetNote(ctx, id)), nil
	}
}

func handleCreateCategory(gw Gateway) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return result(gw.CreateCategory(ctx, notes.CreateCategoryInput{
			Title:       req.GetString("title", ""),
			Description: req.GetString("description", ""),
		})), nil
	}
}

func handleCreateSubcategory(gw Gateway) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return result(gw.CreateSubcategory(ctx, notes.CreateSubcategoryInput{
			Title:       req.GetString("title", ""),
			Description: req.GetString("description", ""),
			CategoryID:  req.GetString("categoryId", ""),
		})), nil
	}
}

func handleCreateNote(gw Gateway) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return result(gw.CreateNote(ctx, notes.CreateNoteInput{
			Title:         req.GetString("title", ""),
			Content:       req.GetString("content", ""),
			SubcategoryID: req.GetString("subcategoryId", ""),
		})), nil
	}
}

func handleUpdateNote(gw Gateway) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcp.NewToolResultError("id is required"), nil
		}

		var p notes.NotePatch
		args := req.GetArguments()
		if v, ok := args["title"].(string); ok {
			p.Title = &v
		}
		if v, ok := args["content"].(string); ok {
			p.Content = &v
		}
		return result(gw.UpdateNote(ctx, id, p)), nil
	}
}

func handleFormatContent(f Formatter) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := req.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError("content is required"), nil
		}
		return result(f.FormatContent(ctx, content)), nil
	}
}

// result renders an envelope as the tool's text. Failed envelopes become
// tool errors carrying the envelope's message.
func result[T any](res envelope.Envelope[T]) *mcp.CallToolResult {
	if !res.Success {
		return mcp.NewToolResultError(res.Error)
	}
	data, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(data))
}
