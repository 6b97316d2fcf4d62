package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"getnotes/internal/config"
	"getnotes/internal/db"
	"getnotes/internal/editor"
	"getnotes/internal/format"
	"getnotes/internal/logger"
	mcpserver "getnotes/internal/mcp"
	"getnotes/internal/notes"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web UI, JSON API and MCP endpoint",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	log.Info().Str("database", cfg.Mongo.Database).Msg("connecting to MongoDB")
	database, err := db.Connect(startCtx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return err
	}
	log.Info().Msg("connected to MongoDB")

	// Wire dependencies
	repo := notes.NewMongoRepo(database)
	if err := repo.EnsureIndexes(startCtx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure indexes")
	}
	svc := notes.NewService(repo, log)
	formatter := format.NewFormatter(log)
	manager := editor.NewManager(svc, formatter, editor.Options{
		Delay:       cfg.Editor.AutosaveDelay,
		SaveTimeout: cfg.Editor.SaveTimeout,
		IdleTimeout: cfg.Editor.IdleTimeout,
	}, log)
	go manager.Run(ctx)

	mcpSrv := mcpserver.NewServer(svc, formatter, version)
	handler := newRouter(
		notes.NewHandler(svc, log),
		editor.NewHandler(manager, svc, formatter, log),
		server.NewStreamableHTTPServer(mcpSrv),
		log,
	)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", version).
			Msg("server starting")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	// Stop taking requests first so no edit lands after the final saves.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	if err := manager.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("editor sessions not flushed")
	}
	if err := db.Disconnect(shutdownCtx, database); err != nil {
		log.Error().Err(err).Msg("mongo disconnect error")
	}

	log.Info().Msg("server stopped")
	return nil
}

// newRouter registers every route on one mux.
func newRouter(nh *notes.Handler, eh *editor.Handler, mcpHTTP http.Handler, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// REST API endpoints
	mux.HandleFunc("GET /api/categories", nh.ListCategories)
	mux.HandleFunc("POST /api/categories", nh.CreateCategory)
	mux.HandleFunc("GET /api/categories/{id}", nh.GetCategory)
	mux.HandleFunc("PATCH /api/categories/{id}", nh.UpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", nh.DeleteCategory)
	mux.HandleFunc("GET /api/categories/{id}/subcategories", nh.ListSubcategories)
	mux.HandleFunc("POST /api/subcategories", nh.CreateSubcategory)
	mux.HandleFunc("GET /api/subcategories/{id}", nh.GetSubcategory)
	mux.HandleFunc("PATCH /api/subcategories/{id}", nh.UpdateSubcategory)
	mux.HandleFunc("DELETE /api/subcategories/{id}", nh.DeleteSubcategory)
	mux.HandleFunc("GET /api/subcategories/{id}/notes", nh.ListNotes)
	mux.HandleFunc("POST /api/notes", nh.CreateNote)
	mux.HandleFunc("GET /api/notes/{id}", nh.GetNote)
	mux.HandleFunc("PATCH /api/notes/{id}", nh.UpdateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", nh.DeleteNote)
	mux.HandleFunc("POST /api/format", eh.FormatContent)

	// HTMX Web UI
	mux.HandleFunc("GET /", nh.HomePage)
	mux.HandleFunc("GET /category/{categoryID}", nh.CategoryPage)
	mux.HandleFunc("GET /category/{categoryID}/subcategory/{subcategoryID}", nh.SubcategoryPage)
	mux.HandleFunc("GET /category/{categoryID}/subcategory/{subcategoryID}/note/{noteID}", eh.EditorPage)
	mux.HandleFunc("POST /categories", nh.CreateCategoryForm)
	mux.HandleFunc("POST /categories/{id}", nh.UpdateCategoryForm)
	mux.HandleFunc("DELETE /categories/{id}", nh.DeleteCategoryForm)
	mux.HandleFunc("POST /category/{categoryID}/subcategories", nh.CreateSubcategoryForm)
	mux.HandleFunc("POST /subcategories/{id}", nh.UpdateSubcategoryForm)
	mux.HandleFunc("DELETE /category/{categoryID}/subcategory/{subcategoryID}", nh.DeleteSubcategoryForm)
	mux.HandleFunc("POST /category/{categoryID}/subcategory/{subcategoryID}/notes", nh.CreateNoteForm)
	mux.HandleFunc("DELETE /category/{categoryID}/subcategory/{subcategoryID}/note/{noteID}", nh.DeleteNoteForm)

	// Editor sessions
	mux.HandleFunc("POST /editor/{id}/edit", eh.Edit)
	mux.HandleFunc("POST /editor/{id}/save", eh.Save)
	mux.HandleFunc("POST /editor/{id}/format", eh.Format)
	mux.HandleFunc("GET /editor/{id}/status", eh.Status)
	mux.HandleFunc("POST /editor/{id}/close", eh.Close)

	// MCP endpoint (HTTP transport)
	// MCP uses POST for requests and GET for SSE streams
	mux.Handle("POST /mcp", mcpHTTP)
	mux.Handle("GET /mcp", mcpHTTP)
	mux.Handle("DELETE /mcp", mcpHTTP)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return logRequests(mux, log)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps streaming responses (the MCP event stream) working.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// logRequests writes one debug line per request, and a warning for 5xx.
func logRequests(next http.Handler, log zerolog.Logger) http.Handler {
	log = log.With().Str("component", "http").Logger()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		ev := log.Debug()
		if rec.status >= http.StatusInternalServerError {
			ev = log.Warn()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}
