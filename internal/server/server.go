// Package server exposes the roster engine to operators over HTTP.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agenthands/roster/internal/core"
	"github.com/agenthands/roster/internal/core/model"
	"github.com/agenthands/roster/internal/errors"
	"github.com/agenthands/roster/internal/logging"
)

const requestIDHeader = "X-Request-ID"

type Server struct {
	Engine         *core.Engine
	RequestTimeout time.Duration
}

func NewServer(engine *core.Engine, requestTimeout time.Duration) *Server {
	return &Server{Engine: engine, RequestTimeout: requestTimeout}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestContext())

	r.GET("/health", s.Health)

	r.GET("/candidates/organizations", s.OrganizationCandidates)
	r.GET("/candidates/contacts", s.ContactCandidates)
	r.GET("/clusters/:kind", s.Clusters)
	r.GET("/dependents/:kind/:id", s.Dependents)

	r.POST("/dismissals", s.Dismiss)
	r.GET("/dismissals/check", s.CheckDismissal)
	r.DELETE("/dismissals", s.ClearDismissals)

	r.POST("/merge/organizations", s.MergeOrganizations)
	r.POST("/merge/contacts", s.MergeContacts)

	return r
}

// requestContext tags each request with an id, applies the request timeout,
// and writes an access log line.
func (s *Server) requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		ctx := logging.WithRequestID(c.Request.Context(), id)
		if s.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.RequestTimeout)
			defer cancel()
		}
		c.Request = c.Request.WithContext(ctx)

		start := time.Now()
		c.Next()

		logging.FromContext(ctx).Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func refresh(c *gin.Context) bool {
	v, _ := strconv.ParseBool(c.Query("refresh"))
	return v
}

func (s *Server) OrganizationCandidates(c *gin.Context) {
	cands, err := s.Engine.OrganizationCandidates(c.Request.Context(), refresh(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": model.KindOrganization, "count": len(cands), "candidates": cands})
}

func (s *Server) ContactCandidates(c *gin.Context) {
	cands, err := s.Engine.ContactCandidates(c.Request.Context(), refresh(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"kind": model.KindContact, "count": len(cands), "candidates": cands})
}

func (s *Server) Clusters(c *gin.Context) {
	ctx := c.Request.Context()
	switch c.Param("kind") {
	case "organizations":
		clusters, err := s.Engine.OrganizationClusters(ctx, refresh(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"kind": model.KindOrganization, "clusters": clusters})
	case "contacts":
		clusters, err := s.Engine.ContactClusters(ctx, refresh(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"kind": model.KindContact, "clusters": clusters})
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown kind " + c.Param("kind")})
	}
}

func (s *Server) Dependents(c *gin.Context) {
	var kind model.Kind
	switch c.Param("kind") {
	case "organizations":
		kind = model.KindOrganization
	case "contacts":
		kind = model.KindContact
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown kind " + c.Param("kind")})
		return
	}
	deps, err := s.Engine.Dependents(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dependents": deps})
}

type PairRequest struct {
	AID string `json:"a_id" binding:"required"`
	BID string `json:"b_id" binding:"required"`
}

func (s *Server) Dismiss(c *gin.Context) {
	var req PairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	key, err := s.Engine.Dismiss(c.Request.Context(), req.AID, req.BID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"key": key})
}

func (s *Server) CheckDismissal(c *gin.Context) {
	dismissed, err := s.Engine.IsDismissed(c.Request.Context(), c.Query("a"), c.Query("b"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dismissed": dismissed})
}

func (s *Server) ClearDismissals(c *gin.Context) {
	if err := s.Engine.ClearDismissals(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

type MergeRequest struct {
	KeepID    string `json:"keep_id" binding:"required"`
	DiscardID string `json:"discard_id" binding:"required"`
}

func (s *Server) MergeOrganizations(c *gin.Context) {
	s.merge(c, s.Engine.MergeOrganizations)
}

func (s *Server) MergeContacts(c *gin.Context) {
	s.merge(c, s.Engine.MergeContacts)
}

func (s *Server) merge(c *gin.Context, fn func(ctx context.Context, keepID, discardID string) (*model.MergeSummary, error)) {
	var req MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	summary, err := fn(c.Request.Context(), req.KeepID, req.DiscardID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// writeError maps engine errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := gin.H{"error": err.Error()}

	switch {
	case errors.IsValidationError(err):
		status = http.StatusBadRequest
	case errors.IsStaleRecord(err), errors.IsMergeInFlight(err):
		status = http.StatusConflict
	case errors.Is(err, errors.ErrComparisonLimit):
		status = http.StatusUnprocessableEntity
	case errors.IsPartialMerge(err):
		// Must precede IsStoreUnavailable, which also matches a partial merge.
		body["partial"] = true
		var pm *errors.PartialMergeError
		if errors.As(err, &pm) {
			body["completed"] = pm.Completed
			body["failed"] = pm.Failed
		}
	case errors.IsStoreUnavailable(err):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	log := logging.FromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("request failed")
	} else {
		log.Warn().Err(err).Int("status", status).Msg("request rejected")
	}
	c.JSON(status, body)
}
