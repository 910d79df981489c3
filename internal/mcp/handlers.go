// Package mcp provides MCP tool handlers for the prompt duplication server.
// These handlers parse MCP request arguments and delegate to the prompts service.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bad33ndj3/mcp-prompt-dedup/internal/domain"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/embedding"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/prompts"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/store"
)

// CheckArgs defines the arguments for the prompt_check tool.
type CheckArgs struct {
	Content string `json:"content" jsonschema:"Prompt text to check against recently accepted prompts"`
}

// SubmitArgs defines the arguments for the prompt_submit tool.
type SubmitArgs struct {
	Content string `json:"content" jsonschema:"Prompt text to submit"`
	Team    string `json:"team,omitempty" jsonschema:"Owning team (optional)"`
	Owner   string `json:"owner,omitempty" jsonschema:"Author of the prompt (optional)"`
}

// ListArgs defines the arguments for the prompt_list tool.
type ListArgs struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of prompts to list (default 20)"`
}

// ScoreArgs defines the arguments for the similarity_score tool.
type ScoreArgs struct {
	Query  string   `json:"query" jsonschema:"Candidate text"`
	Corpus []string `json:"corpus" jsonschema:"Texts to compare the candidate against"`
}

// Handlers wraps the prompts service and provides MCP tool handlers.
type Handlers struct {
	service *prompts.Service
	stats   *embedding.Stats
	status  StatusInfo
	logger  *slog.Logger
}

// StatusInfo is static engine configuration reported by engine_status.
type StatusInfo struct {
	Provider     string  `json:"embedding_provider"`
	Threshold    float64 `json:"threshold"`
	Refine       bool    `json:"refine_with_edit_distance"`
	SortDesc     bool    `json:"sort_descending"`
	CorpusWindow int     `json:"corpus_window"`
}

// NewHandlers creates handlers. stats may be nil when embeddings are off.
func NewHandlers(svc *prompts.Service, stats *embedding.Stats, status StatusInfo, logger *slog.Logger) *Handlers {
	return &Handlers{service: svc, stats: stats, status: status, logger: logger}
}

func textResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// PromptCheck handles the prompt_check tool call.
// It scores the content against recent prompts without saving it.
func (h *Handlers) PromptCheck(ctx context.Context, req *mcp.CallToolRequest, args CheckArgs) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Content) == "" {
		h.logger.Error("prompt_check: content is required")
		return nil, nil, fmt.Errorf("content is required")
	}

	h.logger.Debug("prompt_check: scoring", "length", len(args.Content))

	res, err := h.service.Check(ctx, args.Content)
	if err != nil {
		h.logger.Error("prompt_check: failed", "error", err)
		return nil, nil, err
	}

	h.logger.Info("prompt_check: success",
		"max_score", res.MaxScore,
		"warning", res.Warning,
		"strategy", res.Strategy,
		"corpus_size", res.CorpusSize,
	)

	var sb strings.Builder
	if res.Warning {
		sb.WriteString("WARNING: a similar prompt already exists.\n\n")
	} else {
		sb.WriteString("No similar prompt found.\n\n")
	}
	sb.WriteString(fmt.Sprintf("max_score: %.3f\n", res.MaxScore))
	sb.WriteString(fmt.Sprintf("strategy: %s\n", res.Strategy))
	if res.Degraded {
		sb.WriteString("degraded: embeddings unavailable, used local scoring\n")
	}
	sb.WriteString(fmt.Sprintf("compared_against: %d\n", res.CorpusSize))

	if res.Closest != nil {
		sb.WriteString(fmt.Sprintf("\nclosest (%.3f):\n%s\n", res.Closest.Score, res.Closest.Text))
		sb.WriteString(fmt.Sprintf("\ndiff:\n%s\n", res.Diff))
	}

	return textResult(sb.String()), nil, nil
}

// PromptSubmit handles the prompt_submit tool call.
// Likely duplicates are reported, not saved.
func (h *Handlers) PromptSubmit(ctx context.Context, req *mcp.CallToolRequest, args SubmitArgs) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Content) == "" {
		h.logger.Error("prompt_submit: content is required")
		return nil, nil, fmt.Errorf("content is required")
	}

	h.logger.Debug("prompt_submit: submitting", "team", args.Team, "owner", args.Owner)

	res, err := h.service.Submit(ctx, prompts.SubmitRequest{
		Content: args.Content,
		Team:    args.Team,
		Owner:   args.Owner,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			h.logger.Info("prompt_submit: exact duplicate", "owner", args.Owner)
			return textResult("Not saved: this exact prompt was already submitted."), nil, nil
		}
		h.logger.Error("prompt_submit: failed", "error", err)
		return nil, nil, err
	}

	h.logger.Info("prompt_submit: complete",
		"saved", res.Saved,
		"warning", res.Warning,
		"max_score", res.MaxScore,
	)

	if !res.Saved {
		msg := fmt.Sprintf("Not saved: similar prompt exists.\n\nmax_score: %.3f\nstrategy: %s\n", res.MaxScore, res.Strategy)
		return textResult(msg), nil, nil
	}

	msg := fmt.Sprintf("Saved.\n\nid: %s\nmax_score: %.3f\nstrategy: %s\n", res.Prompt.ID, res.MaxScore, res.Strategy)
	return textResult(msg), nil, nil
}

// PromptList handles the prompt_list tool call.
func (h *Handlers) PromptList(ctx context.Context, req *mcp.CallToolRequest, args ListArgs) (*mcp.CallToolResult, any, error) {
	h.logger.Debug("prompt_list: listing prompts", "limit", args.Limit)

	all := h.service.List()
	if len(all) == 0 {
		return textResult("No prompts stored yet. Use prompt_submit first."), nil, nil
	}

	limit := args.Limit
	if limit <= 0 {
		limit = domain.DefaultCorpusWindow
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Stored prompts: %d\n\n", len(all)))
	for i, p := range all {
		if i >= limit {
			sb.WriteString(fmt.Sprintf("\n... and %d more.", len(all)-limit))
			break
		}
		sb.WriteString(fmt.Sprintf("- id: %s\n", p.ID))
		if p.Team != "" {
			sb.WriteString(fmt.Sprintf("  team: %s\n", p.Team))
		}
		if p.Owner != "" {
			sb.WriteString(fmt.Sprintf("  owner: %s\n", p.Owner))
		}
		sb.WriteString(fmt.Sprintf("  similarity_score: %.3f\n", p.SimilarityScore))
		sb.WriteString(fmt.Sprintf("  created_at: %s\n", p.CreatedAt.Format(time.RFC3339)))
		sb.WriteString(fmt.Sprintf("  content: %s\n", p.Content))
	}

	h.logger.Info("prompt_list: success", "count", len(all))
	return textResult(sb.String()), nil, nil
}

// SimilarityScore handles the similarity_score tool call.
// It scores an explicit corpus and returns the outcome as JSON.
func (h *Handlers) SimilarityScore(ctx context.Context, req *mcp.CallToolRequest, args ScoreArgs) (*mcp.CallToolResult, any, error) {
	h.logger.Debug("similarity_score: scoring", "corpus_size", len(args.Corpus))

	outcome := h.service.Score(ctx, args.Query, args.Corpus)

	h.logger.Info("similarity_score: success",
		"max_score", outcome.MaxScore,
		"strategy", outcome.Strategy,
	)

	res, err := jsonResult(outcome)
	if err != nil {
		return nil, nil, err
	}
	return res, nil, nil
}

// EngineStatus reports configuration and embedding health.
func (h *Handlers) EngineStatus(ctx context.Context, req *mcp.CallToolRequest, args struct{}) (*mcp.CallToolResult, any, error) {
	resp := map[string]any{
		"config":         h.status,
		"stored_prompts": len(h.service.List()),
		"mode":           "local",
	}
	if h.stats != nil {
		snap := h.stats.Snapshot()
		resp["embedding"] = snap
		resp["mode"] = "embedding"
		if snap.Failures > 0 {
			resp["mode"] = "embedding (degraded at times)"
		}
	}

	res, err := jsonResult(resp)
	if err != nil {
		return nil, nil, err
	}
	return res, nil, nil
}

// Register adds every tool to server.
func (h *Handlers) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "prompt_check",
		Description: "Check how similar a prompt is to recently accepted prompts. Does not save anything.",
	}, h.PromptCheck)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "prompt_submit",
		Description: "Submit a prompt. It is saved only if it is not a likely duplicate of a recent prompt.",
	}, h.PromptSubmit)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "prompt_list",
		Description: "List stored prompts, newest first.",
	}, h.PromptList)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "similarity_score",
		Description: "Score a query against an explicit list of texts. Returns max_score, warning and per-text scores.",
	}, h.SimilarityScore)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "engine_status",
		Description: "Show scorer configuration and embedding provider health.",
	}, h.EngineStatus)
}
