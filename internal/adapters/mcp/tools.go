// Package mcpadapter exposes retrieval and evaluation as MCP tools.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/paper-evidence/internal/core/domain"
	"github.com/kirillkom/paper-evidence/internal/core/ports"
)

const (
	ToolRetrieve = "retrieve_evidence"
	ToolEvaluate = "evaluate_evidence"
)

type Tools struct {
	retriever ports.EvidenceRetriever
	evaluator ports.EvidenceEvaluator
	defaults  domain.RetrieveRequest
}

func NewTools(retriever ports.EvidenceRetriever, evaluator ports.EvidenceEvaluator, defaults domain.RetrieveRequest) *Tools {
	return &Tools{retriever: retriever, evaluator: evaluator, defaults: defaults}
}

func NewServer(name, version string, tools *Tools) *server.MCPServer {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(false), server.WithRecovery())
	s.AddTool(retrieveTool(), tools.Retrieve)
	s.AddTool(evaluateTool(), tools.Evaluate)
	return s
}

func retrievalOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("query", mcp.Required(), mcp.Description("Free-text question about the paper corpus.")),
		mcp.WithString("method", mcp.Description("Text retrieval strategy."), mcp.Enum("sparse", "dense", "hybrid", "rerank")),
		mcp.WithNumber("top_k_text", mcp.Description("Text candidates kept before fusion."), mcp.Min(0)),
		mcp.WithNumber("top_k_images", mcp.Description("Image candidates kept before fusion."), mcp.Min(0)),
		mcp.WithNumber("top_k_evidence", mcp.Description("Fused evidence items returned."), mcp.Min(0)),
		mcp.WithNumber("alpha", mcp.Description("Text weight in fusion; images get 1-alpha."), mcp.Min(0), mcp.Max(1)),
	}
}

func retrieveTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Retrieve ranked text passages and figures that support an answer to the query."),
	}, retrievalOptions()...)
	return mcp.NewTool(ToolRetrieve, opts...)
}

func evaluateTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Score retrieved evidence for a rubric question with precision@5 and recall@10. " +
			"Evidence is retrieved with the given settings unless an explicit evidence list is passed."),
		mcp.WithArray("evidence", mcp.Description("Optional evidence items with modality, id and content."),
			mcp.Items(map[string]any{"type": "object"})),
	}, retrievalOptions()...)
	return mcp.NewTool(ToolEvaluate, opts...)
}

func (t *Tools) request(req mcp.CallToolRequest) (domain.RetrieveRequest, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return domain.RetrieveRequest{}, err
	}
	out := t.defaults
	out.Query = query
	out.Method = domain.Method(req.GetString("method", string(t.defaults.Method)))
	out.TopKText = req.GetInt("top_k_text", t.defaults.TopKText)
	out.TopKImages = req.GetInt("top_k_images", t.defaults.TopKImages)
	out.TopKEvidence = req.GetInt("top_k_evidence", t.defaults.TopKEvidence)
	out.Alpha = req.GetFloat("alpha", t.defaults.Alpha)
	return out, nil
}

func (t *Tools) Retrieve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := t.request(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	evidence, err := t.retriever.Retrieve(ctx, r)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("retrieval failed", err), nil
	}
	return jsonResult(map[string]any{
		"query":        r.Query,
		"method":       r.Method,
		"capabilities": t.retriever.Capabilities(),
		"evidence":     evidence,
	})
}

func (t *Tools) Evaluate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := t.request(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	evidence, given, err := explicitEvidence(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !given {
		evidence, err = t.retriever.Retrieve(ctx, r)
		if err != nil {
			return mcp.NewToolResultErrorFromErr("retrieval failed", err), nil
		}
	}

	eval := t.evaluator.Evaluate(r.Query, evidence)
	return jsonResult(map[string]any{
		"query":        r.Query,
		"evaluable":    eval.Evaluable(),
		"evaluation":   eval,
		"evidence_ids": domain.EvidenceIDs(evidence),
	})
}

func explicitEvidence(req mcp.CallToolRequest) ([]domain.EvidenceItem, bool, error) {
	raw, ok := req.GetArguments()["evidence"]
	if !ok || raw == nil {
		return nil, false, nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, false, fmt.Errorf("encode evidence argument: %w", err)
	}
	var items []domain.EvidenceItem
	if err := json.Unmarshal(encoded, &items); err != nil {
		return nil, false, fmt.Errorf("evidence must be a list of evidence items: %w", err)
	}
	return items, true, nil
}

func jsonResult(payload any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
