package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geniass/salewatch/pkg/store"
	"github.com/geniass/salewatch/pkg/tracker"
)

// Tracker is the part of the tracker the command surface drives.
type Tracker interface {
	Scan(ctx context.Context) (tracker.ScanResult, error)
	EnsureBaseline(ctx context.Context, urls []string) (int, error)
	Summary() (tracker.Summary, error)
	RefreshBadge() error
}

type BadgeReader interface {
	Text() string
}

// Server exposes the tracker commands and the summary pages over HTTP.
type Server struct {
	addr      string
	store     *store.Store
	tracker   Tracker
	badge     BadgeReader
	base      BaseContext
	logger    *slog.Logger
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
	now       func() time.Time
}

func NewServer(addr string, st *store.Store, tr Tracker, badge BadgeReader, base BaseContext, logger *slog.Logger) *Server {
	if addr == "" {
		addr = "127.0.0.1:8080"
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:    addr,
		store:   st,
		tracker: tr,
		badge:   badge,
		base:    base,
		logger:  logger.With("component", "web"),
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/", s.handleSummaryPage)
	r.GET("/folders", s.handleFoldersPage)

	api := r.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/summary", s.handleSummary)
		api.POST("/scan", s.handleScan)
		api.POST("/baseline", s.handleBaseline)

		api.GET("/folders", s.handleListFolders)
		api.POST("/folders", s.handleCreateFolder)
		api.DELETE("/folders/:name", s.handleDeleteFolder)
		api.POST("/folders/:name/items", s.handleAddItem)
		api.DELETE("/folders/:name/items", s.handleRemoveItem)

		api.GET("/export", s.handleExport)
		api.POST("/import", s.handleImport)
	}
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.routes(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// a manual scan holds the request open for a whole pass
		WriteTimeout: 10 * time.Minute,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = s.now()
	s.logger.Info("listening", "addr", listener.Addr().String())

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": s.now().Sub(s.startTime).String(),
	})
}

func (s *Server) handleSummary(c *gin.Context) {
	summary, err := s.tracker.Summary()
	if err != nil {
		s.internalError(c, "failed to read summary", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count": summary.Count,
		"badge": s.badge.Text(),
		"items": summary.Items,
	})
}

func (s *Server) handleScan(c *gin.Context) {
	res, err := s.tracker.Scan(c.Request.Context())
	if errors.Is(err, tracker.ErrScanInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.internalError(c, "scan failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleBaseline(c *gin.Context) {
	var req struct {
		URLs []string `json:"urls" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing urls field"})
		return
	}
	n, err := s.tracker.EnsureBaseline(c.Request.Context(), req.URLs)
	if err != nil {
		s.internalError(c, "failed to establish baselines", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"primed": n})
}

type folderResponse struct {
	Name  string       `json:"name"`
	Items []store.Item `json:"items"`
}

func (s *Server) handleListFolders(c *gin.Context) {
	folders, err := s.store.Snapshot()
	if err != nil {
		s.internalError(c, "failed to read folders", err)
		return
	}
	out := make([]folderResponse, 0, len(folders))
	for _, name := range folders.Names() {
		out = append(out, folderResponse{Name: name, Items: store.SortedByRecency(folders[name])})
	}
	c.JSON(http.StatusOK, gin.H{"folders": out})
}

func (s *Server) handleCreateFolder(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing name field"})
		return
	}
	name, err := s.store.CreateFolder(req.Name)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, folderResponse{Name: name, Items: []store.Item{}})
}

func (s *Server) handleDeleteFolder(c *gin.Context) {
	if err := s.store.DeleteFolder(c.Param("name")); err != nil {
		s.storeError(c, err)
		return
	}
	s.refreshBadge()
	c.Status(http.StatusNoContent)
}

// handleAddItem saves the link and primes its baseline right away. A failed
// price check does not fail the request; the next scan retries it.
func (s *Server) handleAddItem(c *gin.Context) {
	var req struct {
		URL   string `json:"url" binding:"required"`
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing url field"})
		return
	}
	folder := c.Param("name")
	it, err := s.store.AddItem(folder, req.URL, req.Title, s.now())
	if err != nil {
		s.storeError(c, err)
		return
	}

	primed, err := s.tracker.EnsureBaseline(c.Request.Context(), []string{it.URL})
	if err != nil {
		s.logger.Warn("baseline priming failed", "url", it.URL, "error", err)
	}
	if primed > 0 {
		if folders, err := s.store.Snapshot(); err == nil {
			if i := folders.Find(folder, it.URL); i >= 0 {
				it = folders[folder][i]
			}
		}
	}
	c.JSON(http.StatusCreated, it)
}

func (s *Server) handleRemoveItem(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing url query parameter"})
		return
	}
	if err := s.store.RemoveItem(c.Param("name"), url); err != nil {
		s.storeError(c, err)
		return
	}
	s.refreshBadge()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleExport(c *gin.Context) {
	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", `attachment; filename="salewatch-export.json"`)
	c.Status(http.StatusOK)
	if err := s.store.Export(c.Writer); err != nil {
		s.logger.Error("export failed", "error", err)
	}
}

func (s *Server) handleImport(c *gin.Context) {
	folders, err := s.store.Import(c.Request.Body)
	if errors.Is(err, store.ErrCorruptState) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.internalError(c, "import failed", err)
		return
	}
	s.refreshBadge()
	c.JSON(http.StatusOK, gin.H{"folders": len(folders)})
}

func (s *Server) handleSummaryPage(c *gin.Context) {
	summary, err := s.tracker.Summary()
	if err != nil {
		s.internalError(c, "failed to read summary", err)
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	err = RenderSummary(c.Writer, SummaryContext{
		BaseContext: s.base,
		Title:       "On sale",
		LastUpdated: s.now(),
		BadgeText:   s.badge.Text(),
		Summary:     summary,
	})
	if err != nil {
		s.logger.Error("rendering summary page", "error", err)
	}
}

func (s *Server) handleFoldersPage(c *gin.Context) {
	folders, err := s.store.Snapshot()
	if err != nil {
		s.internalError(c, "failed to read folders", err)
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := RenderFolders(c.Writer, NewFoldersContext(s.base, folders)); err != nil {
		s.logger.Error("rendering folders page", "error", err)
	}
}

func (s *Server) refreshBadge() {
	if err := s.tracker.RefreshBadge(); err != nil {
		s.logger.Warn("badge refresh failed", "error", err)
	}
}

func (s *Server) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrInvalidFolderName), errors.Is(err, store.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrFolderExists), errors.Is(err, store.ErrDuplicateURL):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrFolderNotFound), errors.Is(err, store.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.internalError(c, "store operation failed", err)
	}
}

func (s *Server) internalError(c *gin.Context, msg string, err error) {
	s.logger.Error(msg, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
