package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/lcf-civic/civicsum/internal/archive"
	"github.com/lcf-civic/civicsum/internal/globaltime"
	"github.com/lcf-civic/civicsum/internal/ledger"
)

const (
	defaultRunsLimit = 20
	maxRunsLimit     = 200
)

type Options struct {
	Host            string
	Port            int
	Environment     string
	AIConfigured    bool
	EmailConfigured bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// RunLister is the slice of the run ledger the API needs.
type RunLister interface {
	Recent(limit int) ([]ledger.Run, error)
}

// TriggerFunc runs one processing cycle on demand.
type TriggerFunc func() archive.CycleResult

type Server struct {
	store   *archive.Store
	runs    RunLister
	trigger TriggerFunc
	logger  zerolog.Logger
	opts    Options
}

type bodySummary struct {
	Name          string `json:"name"`
	CurrentCount  int    `json:"current_count"`
	ArchivedCount int    `json:"archived_count"`
}

type searchResult struct {
	GovernmentBody string `json:"government_body"`
	Source         string `json:"source"`
	archive.Document
}

func NewServer(store *archive.Store, runs RunLister, trigger TriggerFunc, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8090
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		store:   store,
		runs:    runs,
		trigger: trigger,
		logger:  logger,
		opts: Options{
			Host:            host,
			Port:            port,
			Environment:     opts.Environment,
			AIConfigured:    opts.AIConfigured,
			EmailConfigured: opts.EmailConfigured,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	s.registerRoutes(e)

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("civicsum api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("civicsum api server stopped")
	return nil
}

func (s *Server) registerRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/health/detailed", s.handleHealthDetailed)
	api.GET("/summaries", s.handleSummaries)
	api.GET("/archive", s.handleArchive)
	api.GET("/archive/:month", s.handleArchiveMonth)
	api.GET("/stats", s.handleStats)
	api.GET("/government-bodies", s.handleGovernmentBodies)
	api.GET("/search", s.handleSearch)
	api.GET("/runs", s.handleRuns)
	api.POST("/trigger", s.handleTrigger)
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service":     "civicsum",
		"environment": s.opts.Environment,
		"time":        globaltime.UTC(),
	})
}

func (s *Server) handleHealthDetailed(c echo.Context) error {
	checks := map[string]string{}
	healthy := true

	probe := filepath.Join(s.store.Dir(), ".health_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		checks["storage"] = "unwritable: " + err.Error()
		healthy = false
	} else {
		_ = os.Remove(probe)
		checks["storage"] = "ok"
	}

	if _, err := os.Stat(filepath.Join(s.store.Dir(), archive.ArchiveFileName)); err != nil {
		checks["archive"] = "missing"
	} else {
		checks["archive"] = "ok"
	}

	if _, err := s.store.LoadBatch(); err != nil {
		if errors.Is(err, archive.ErrNoBatch) {
			checks["current_batch"] = "absent"
		} else {
			checks["current_batch"] = "unreadable"
		}
	} else {
		checks["current_batch"] = "ok"
	}

	if s.opts.AIConfigured {
		checks["ai_summaries"] = "configured"
	} else {
		checks["ai_summaries"] = "fallback_only"
	}
	if s.opts.EmailConfigured {
		checks["email_report"] = "configured"
	} else {
		checks["email_report"] = "disabled"
	}

	payload := map[string]any{
		"service":     "civicsum",
		"environment": s.opts.Environment,
		"time":        globaltime.UTC(),
		"checks":      checks,
	}
	if !healthy {
		return fail(c, http.StatusServiceUnavailable, "Degraded", payload)
	}
	return success(c, payload)
}

func (s *Server) handleSummaries(c echo.Context) error {
	batch, err := s.store.LoadBatch()
	if err != nil && !errors.Is(err, archive.ErrNoBatch) {
		s.logger.Error().Err(err).Msg("load current batch failed")
		return internalError(c, "Failed to load current summaries")
	}
	if batch == nil {
		batch = archive.Archive{}
	}
	stats, statsErr := s.store.LoadStats()
	if statsErr != nil {
		stats = archive.ComputeStats(s.store.LoadArchive(), globaltime.UTC())
	}
	return success(c, map[string]any{
		"bodies":      batch,
		"total_count": archive.CountDocuments(batch),
		"statistics":  stats,
	})
}

func (s *Server) handleArchive(c echo.Context) error {
	a := s.store.LoadArchive()
	stats, err := s.store.LoadStats()
	if err != nil {
		stats = archive.ComputeStats(a, globaltime.UTC())
	}
	return success(c, map[string]any{
		"archive":    archive.PartitionByMonth(a),
		"statistics": stats,
	})
}

func (s *Server) handleArchiveMonth(c echo.Context) error {
	slug := strings.TrimSpace(c.Param("month"))
	if slug == "" {
		return failValidation(c, map[string]string{"month": "is required"})
	}

	monthly, err := s.store.LoadMonth(slug)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return failNotFound(c, "No archive for that month")
		}
		s.logger.Error().Err(err).Str("month", slug).Msg("load monthly archive failed")
		return internalError(c, "Failed to load monthly archive")
	}

	return success(c, map[string]any{
		"month":     slug,
		"archive":   monthly,
		"documents": archive.CountDocuments(monthly),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.store.LoadStats()
	if err != nil {
		stats = archive.ComputeStats(s.store.LoadArchive(), globaltime.UTC())
	}
	return success(c, stats)
}

func (s *Server) handleGovernmentBodies(c echo.Context) error {
	batch, err := s.store.LoadBatch()
	if err != nil && !errors.Is(err, archive.ErrNoBatch) {
		s.logger.Error().Err(err).Msg("load current batch failed")
		return internalError(c, "Failed to load government bodies")
	}
	historical := s.store.LoadArchive()

	byName := map[string]*bodySummary{}
	lookup := func(name string) *bodySummary {
		if existing, ok := byName[name]; ok {
			return existing
		}
		created := &bodySummary{Name: name}
		byName[name] = created
		return created
	}
	for name, bucket := range batch {
		lookup(name).CurrentCount = bucketSize(bucket)
	}
	for name, bucket := range historical {
		lookup(name).ArchivedCount = bucketSize(bucket)
	}

	items := make([]bodySummary, 0, len(byName))
	for _, summary := range byName {
		items = append(items, *summary)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	return success(c, map[string]any{
		"items": items,
		"total": len(items),
	})
}

func (s *Server) handleSearch(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return failValidation(c, map[string]string{"q": "is required"})
	}
	bodyFilter := strings.TrimSpace(c.QueryParam("body"))

	results := []searchResult{}
	batch, err := s.store.LoadBatch()
	if err == nil {
		results = append(results, searchDocuments(batch, query, bodyFilter, "current")...)
	} else if !errors.Is(err, archive.ErrNoBatch) {
		s.logger.Error().Err(err).Msg("load current batch failed")
	}
	results = append(results, searchDocuments(s.store.LoadArchive(), query, bodyFilter, "archive")...)

	return success(c, map[string]any{
		"query": query,
		"body":  bodyFilter,
		"items": results,
		"total": len(results),
	})
}

func searchDocuments(a archive.Archive, query, bodyFilter, source string) []searchResult {
	needle := strings.ToLower(query)
	var results []searchResult
	for _, name := range sortedBodyNames(a) {
		if bodyFilter != "" && !strings.EqualFold(bodyFilter, name) {
			continue
		}
		bucket := a[name]
		if bucket == nil {
			continue
		}
		for _, doc := range append(append([]archive.Document{}, bucket.Agendas...), bucket.Minutes...) {
			haystack := strings.ToLower(doc.Title + " " + doc.Summary)
			if strings.Contains(haystack, needle) {
				results = append(results, searchResult{
					GovernmentBody: name,
					Source:         source,
					Document:       doc,
				})
			}
		}
	}
	return results
}

// bucketSize tolerates the nil buckets a hand-edited data file can carry.
func bucketSize(bucket *archive.Bucket) int {
	if bucket == nil {
		return 0
	}
	return len(bucket.Agendas) + len(bucket.Minutes)
}

func sortedBodyNames(a archive.Archive) []string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) handleRuns(c echo.Context) error {
	if s.runs == nil {
		return fail(c, http.StatusServiceUnavailable, "Run ledger is not available", nil)
	}
	limit, err := parsePositiveInt(c.QueryParam("limit"), defaultRunsLimit, 1, maxRunsLimit)
	if err != nil {
		return failValidation(c, map[string]string{"limit": err.Error()})
	}

	runs, err := s.runs.Recent(limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("query recent runs failed")
		return internalError(c, "Failed to load runs")
	}
	return success(c, map[string]any{
		"items": runs,
		"limit": limit,
	})
}

func (s *Server) handleTrigger(c echo.Context) error {
	if s.opts.Environment == "production" {
		return fail(c, http.StatusForbidden, "Manual trigger is disabled in production", nil)
	}
	if s.trigger == nil {
		return fail(c, http.StatusServiceUnavailable, "Processing is not available", nil)
	}

	result := s.trigger()
	s.logger.Info().
		Str("status", result.Status).
		Int("new_documents", result.NewDocuments).
		Msg("manual processing cycle finished")

	return successWithStatus(c, http.StatusAccepted, result)
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}
