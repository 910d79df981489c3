// Package httpapi exposes the prompt service over HTTP with gin.
// It mirrors the MCP tools for web clients.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bad33ndj3/mcp-prompt-dedup/internal/prompts"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/store"
)

// SimilarityRequest is the body of POST /api/similarity.
type SimilarityRequest struct {
	NewPrompt       string   `json:"newPrompt" binding:"required"`
	ExistingPrompts []string `json:"existingPrompts"`
}

// SimilarityResult is one scored entry in a SimilarityResponse.
type SimilarityResult struct {
	Prompt string  `json:"prompt"`
	Score  float64 `json:"score"`
}

// SimilarityResponse is the body returned by POST /api/similarity.
type SimilarityResponse struct {
	MaxScore float64            `json:"maxScore"`
	Warning  bool               `json:"warning"`
	Strategy string             `json:"strategy"`
	Results  []SimilarityResult `json:"results"`
}

// SubmitRequest is the body of POST /api/prompts.
type SubmitRequest struct {
	Content string `json:"content" binding:"required"`
	Team    string `json:"team"`
	Owner   string `json:"owner"`
}

// SubmitResponse is the body returned by POST /api/prompts.
type SubmitResponse struct {
	Saved    bool    `json:"saved"`
	Warning  bool    `json:"warning"`
	MaxScore float64 `json:"maxScore"`
	ID       string  `json:"id,omitempty"`
}

// Controller holds the handlers' dependencies.
type Controller struct {
	service *prompts.Service
	logger  *slog.Logger
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(svc *prompts.Service, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	c := &Controller{service: svc, logger: logger}

	r := gin.New()
	r.Use(gin.Recovery(), c.logRequests)

	r.GET("/healthz", c.Health)
	r.POST("/api/similarity", c.Similarity)
	r.GET("/api/prompts", c.ListPrompts)
	r.POST("/api/prompts", c.SubmitPrompt)
	return r
}

// logRequests writes one slog line per request.
func (c *Controller) logRequests(ctx *gin.Context) {
	start := time.Now()
	ctx.Next()
	c.logger.Info("http request",
		"method", ctx.Request.Method,
		"path", ctx.FullPath(),
		"status", ctx.Writer.Status(),
		"duration", time.Since(start),
	)
}

// Health reports that the server is up.
func (c *Controller) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Similarity scores newPrompt against an explicit list of prompts.
func (c *Controller) Similarity(ctx *gin.Context) {
	var req SimilarityRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome := c.service.Score(ctx.Request.Context(), req.NewPrompt, req.ExistingPrompts)

	results := make([]SimilarityResult, len(outcome.Results))
	for i, r := range outcome.Results {
		results[i] = SimilarityResult{Prompt: r.Text, Score: r.Score}
	}
	ctx.JSON(http.StatusOK, SimilarityResponse{
		MaxScore: outcome.MaxScore,
		Warning:  outcome.Warning,
		Strategy: string(outcome.Strategy),
		Results:  results,
	})
}

// ListPrompts returns stored prompts, newest first.
func (c *Controller) ListPrompts(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"prompts": c.service.List()})
}

// SubmitPrompt saves a prompt unless it is a likely duplicate.
func (c *Controller) SubmitPrompt(ctx *gin.Context) {
	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content provided"})
		return
	}

	res, err := c.service.Submit(ctx.Request.Context(), prompts.SubmitRequest{
		Content: req.Content,
		Team:    req.Team,
		Owner:   req.Owner,
	})
	switch {
	case errors.Is(err, prompts.ErrEmptyContent):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content provided"})
		return
	case errors.Is(err, store.ErrDuplicate):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.logger.Error("submit prompt failed", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save prompt"})
		return
	}

	resp := SubmitResponse{Saved: res.Saved, Warning: res.Warning, MaxScore: res.MaxScore}
	if res.Prompt != nil {
		resp.ID = res.Prompt.ID
	}
	ctx.JSON(http.StatusOK, resp)
}
