package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/linkbox/analyzer"
	"github.com/linkbox/analyzer/archive"
	"github.com/linkbox/analyzer/db"
	"github.com/linkbox/analyzer/models"
	"github.com/linkbox/analyzer/slug"
	"github.com/linkbox/analyzer/storage"
)

// Server represents the API server
type Server struct {
	db          *db.DB
	analyzer    *analyzer.Analyzer
	engine      *archive.Engine
	store       storage.ContentStore
	addr        string
	server      *http.Server
	mux         *http.ServeMux
	corsEnabled bool
}

// Config contains server configuration
type Config struct {
	Addr           string
	DBConfig       db.Config
	AnalyzerConfig analyzer.Config
	StoragePath    string
	// Store overrides the filesystem snapshot store when set (e.g. S3).
	Store       storage.ContentStore
	CORSEnabled bool
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		DBConfig:       db.DefaultConfig(),
		AnalyzerConfig: analyzer.DefaultConfig(),
		StoragePath:    storage.DefaultConfig().BasePath,
		CORSEnabled:    true,
	}
}

// NewServer creates a new API server
func NewServer(config Config) (*Server, error) {
	// Initialize database
	database, err := db.New(config.DBConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize snapshot storage
	store := config.Store
	if store == nil {
		fsStore, err := storage.New(storage.Config{BasePath: config.StoragePath})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		store = fsStore
	}

	s := &Server{
		db:          database,
		analyzer:    analyzer.New(config.AnalyzerConfig),
		engine:      archive.New(),
		store:       store,
		addr:        config.Addr,
		mux:         http.NewServeMux(),
		corsEnabled: config.CORSEnabled,
	}

	// Register routes
	s.registerRoutes()

	// Create HTTP server
	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      otelhttp.NewHandler(s.middleware(s.mux), "linkbox-api"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // Allow time for fetch plus analysis
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// registerRoutes sets up all API routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/api/links", s.handleLinks)
	s.mux.HandleFunc("/api/links/counts", s.handleCounts)
	s.mux.HandleFunc("/api/links/", s.handleLink) // Handles /api/links/{id}, /{id}/read, /{id}/content
	s.mux.HandleFunc("/api/folders", s.handleFolders)
	s.mux.HandleFunc("/api/tags", s.handleTags)
}

// Start starts the API server
func (s *Server) Start() error {
	log.Printf("Starting API server on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down API server...")
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.db.Close()
}

// DB exposes the underlying database handle for pool metrics collection.
func (s *Server) DB() *db.DB {
	return s.db
}

// middleware applies common middleware to all routes
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS headers
		if s.corsEnabled {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		// Logging (skip health checks to reduce noise)
		start := time.Now()
		if r.URL.Path != "/health" {
			log.Printf("%s %s", r.Method, r.URL.Path)
		}

		next.ServeHTTP(w, r)

		if r.URL.Path != "/health" {
			log.Printf("%s %s - completed in %v", r.Method, r.URL.Path, time.Since(start))
		}
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	count, err := s.db.Count()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get count")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"count":  count,
		"time":   time.Now(),
	})
}

// SaveRequest represents a save-link request
type SaveRequest struct {
	URL    string `json:"url"`
	Folder string `json:"folder"` // Optional: override the classified folder
	Force  bool   `json:"force"`  // Force re-analysis even if the URL exists
}

// handleLinks dispatches the collection endpoint: POST saves a link,
// GET queries the archive.
func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSave(w, r)
	case http.MethodGet:
		s.handleQuery(w, r)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleSave analyzes a URL and stores the resulting link record
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.URL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}
	if err := analyzer.ValidateURL(req.URL); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Check if URL already exists (unless force is true)
	if !req.Force {
		existing, err := s.db.GetByURL(req.URL)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "database error")
			return
		}
		if existing != nil {
			respondJSON(w, http.StatusOK, existing)
			return
		}
	}

	// Analyze the URL
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	record, content := s.analyzer.AnalyzeURL(ctx, req.URL)

	// Apply folder override from the request
	if req.Folder != "" {
		record.Folder = req.Folder
	}

	// Snapshot the fetched content so the link stays readable later
	if content != "" {
		key, err := s.store.SaveContent(content, slug.ForRecord(record.Title, record.URL))
		if err != nil {
			log.Printf("Failed to save content snapshot: %v", err)
		} else {
			record.ContentKey = key
		}
	}

	// Save to database
	if err := s.db.SaveLink(&record); err != nil {
		log.Printf("Failed to save link: %v", err)
		// Still return the record even if save fails
	} else if req.Force {
		// A forced re-analysis updates the existing row in place; return
		// it so the caller sees the canonical ID and read state.
		if saved, err := s.db.GetByURL(req.URL); err == nil && saved != nil {
			respondJSON(w, http.StatusOK, saved)
			return
		}
	}

	respondJSON(w, http.StatusOK, record)
}

// handleQuery lists archive links filtered by scope, view, and search term
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	spec, err := parseQuerySpec(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	links, err := s.db.ListAll()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	results := s.engine.Query(links, spec)
	total := len(results)

	limit, offset := parsePagination(r.URL.Query())
	results = paginate(results, limit, offset)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"links":  results,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// handleCounts returns global per-view link counts for menu badges
func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	links, err := s.db.ListAll()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	respondJSON(w, http.StatusOK, s.engine.Counts(links))
}

// handleFolders lists the distinct folders in use, for scope menus
func (s *Server) handleFolders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	folders, err := s.db.Folders()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"folders": folders,
		"count":   len(folders),
	})
}

// handleTags lists the distinct tags in use, for scope menus
func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	tags, err := s.db.Tags()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tags":  tags,
		"count": len(tags),
	})
}

// handleLink handles the per-link endpoints under /api/links/{id}
func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/links/")
	if path == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	if strings.HasSuffix(path, "/read") {
		id := strings.TrimSuffix(path, "/read")
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleMarkRead(w, r, id)
		return
	}

	if strings.HasSuffix(path, "/content") {
		id := strings.TrimSuffix(path, "/content")
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.handleServeContent(w, r, id)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetByID(w, r, path)
	case http.MethodDelete:
		s.handleDeleteByID(w, r, path)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleGetByID retrieves a link by ID
func (s *Server) handleGetByID(w http.ResponseWriter, r *http.Request, id string) {
	link, err := s.db.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	if link == nil {
		respondError(w, http.StatusNotFound, "link not found")
		return
	}

	respondJSON(w, http.StatusOK, link)
}

// handleDeleteByID deletes a link by ID and its content snapshot
func (s *Server) handleDeleteByID(w http.ResponseWriter, r *http.Request, id string) {
	link, err := s.db.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	if link == nil {
		respondError(w, http.StatusNotFound, "link not found")
		return
	}

	if link.ContentKey != "" {
		if err := s.store.DeleteContent(link.ContentKey); err != nil {
			log.Printf("Failed to delete content snapshot %s: %v", link.ContentKey, err)
		}
	}

	if err := s.db.DeleteByID(id); err != nil {
		if strings.Contains(err.Error(), "no link found") {
			respondError(w, http.StatusNotFound, "link not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to delete link")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "link deleted successfully",
	})
}

// handleMarkRead marks a link as read and bumps its read counter
func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request, id string) {
	err := s.db.MarkRead(id)
	if err != nil {
		if strings.Contains(err.Error(), "no link found") {
			respondError(w, http.StatusNotFound, "link not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to mark link as read")
		return
	}

	link, err := s.db.GetByID(id)
	if err != nil || link == nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	respondJSON(w, http.StatusOK, link)
}

// handleServeContent serves the stored content snapshot for a link
func (s *Server) handleServeContent(w http.ResponseWriter, r *http.Request, id string) {
	link, err := s.db.GetByID(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	if link == nil {
		respondError(w, http.StatusNotFound, "link not found")
		return
	}

	if link.ContentKey == "" {
		respondError(w, http.StatusNotFound, "content snapshot not available")
		return
	}

	content, err := s.store.ReadContent(link.ContentKey)
	if err != nil {
		log.Printf("Failed to read content snapshot %s: %v", link.ContentKey, err)
		respondError(w, http.StatusInternalServerError, "failed to read content snapshot")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(content))
}

// parseQuerySpec builds an archive query from URL parameters.
// Supported parameters: tag, folder, view, q.
func parseQuerySpec(q url.Values) (archive.QuerySpec, error) {
	spec := archive.QuerySpec{
		Scope: archive.Scope{
			Tag:    q.Get("tag"),
			Folder: q.Get("folder"),
		},
		View:   archive.ViewAll,
		Search: q.Get("q"),
	}

	if view := q.Get("view"); view != "" {
		v := archive.View(view)
		if !validView(v) {
			return archive.QuerySpec{}, fmt.Errorf("unknown view %q", view)
		}
		spec.View = v
	}

	return spec, nil
}

// validView reports whether v is one of the known archive views
func validView(v archive.View) bool {
	for _, known := range archive.Views() {
		if v == known {
			return true
		}
	}
	return false
}

// parsePagination reads limit and offset parameters with sane bounds
func parsePagination(q url.Values) (limit, offset int) {
	limit = 20
	offset = 0

	if limitStr := q.Get("limit"); limitStr != "" {
		fmt.Sscanf(limitStr, "%d", &limit)
	}
	if offsetStr := q.Get("offset"); offsetStr != "" {
		fmt.Sscanf(offsetStr, "%d", &offset)
	}

	// Enforce reasonable limits
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// paginate slices a result window out of links
func paginate(links []models.LinkRecord, limit, offset int) []models.LinkRecord {
	if offset >= len(links) {
		return []models.LinkRecord{}
	}
	end := offset + limit
	if end > len(links) {
		end = len(links)
	}
	return links[offset:end]
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
