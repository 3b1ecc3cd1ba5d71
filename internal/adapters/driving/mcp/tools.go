package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/contracta-cli/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question   string `json:"question" jsonschema:"the question to answer from the contract"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"contract document to query (default: most recently ingested)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer    string           `json:"answer"`
	Citations []CitationOutput `json:"citations,omitempty"`
	FromCache bool             `json:"from_cache"`
}

// CitationOutput is a cited contract passage.
type CitationOutput struct {
	Page    int    `json:"page"`
	Excerpt string `json:"excerpt"`
}

// SummarizeInput is the input schema for the summarize tool.
type SummarizeInput struct {
	Type       string `json:"type,omitempty" jsonschema:"summary type: brief, comprehensive or key_points (default brief)"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"contract document to summarise (default: most recently ingested)"`
}

// SummarizeOutput is the output schema for the summarize tool.
type SummarizeOutput struct {
	Summary   string `json:"summary"`
	FromCache bool   `json:"from_cache"`
}

// ExtractInput is the input schema for the extract_fields tool.
type ExtractInput struct {
	DocumentID string `json:"document_id,omitempty" jsonschema:"contract document to extract from (default: most recently ingested)"`
}

// ExtractOutput is the output schema for the extract_fields tool.
type ExtractOutput struct {
	Fields map[string]FieldOutput `json:"fields"`
}

// FieldOutput is a single extracted contract field.
type FieldOutput struct {
	Value string `json:"value"`
	Page  int    `json:"page,omitempty"`
	Found bool   `json:"found"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about an ingested contract, with page citations",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "summarize",
		Description: "Summarise an ingested contract (brief, comprehensive or key_points)",
	}, s.handleSummarize)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "extract_fields",
		Description: "Extract the fixed field schema (rent, deposit, termination, ...) from an ingested contract",
	}, s.handleExtract)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if err := s.ensureLoaded(ctx, input.DocumentID); err != nil {
		return nil, AskOutput{}, err
	}

	answer, err := s.ports.Session.Ask(ctx, input.Question)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:    answer.Text,
		FromCache: answer.FromCache,
	}
	for _, c := range answer.Citations {
		output.Citations = append(output.Citations, CitationOutput{
			Page:    c.Page,
			Excerpt: c.Excerpt,
		})
	}

	return nil, output, nil
}

// handleSummarize handles the summarize tool invocation.
func (s *Server) handleSummarize(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SummarizeInput,
) (*mcp.CallToolResult, SummarizeOutput, error) {
	kindName := input.Type
	if kindName == "" {
		kindName = string(domain.SummaryBrief)
	}
	kind, err := domain.ParseSummaryKind(kindName)
	if err != nil {
		return nil, SummarizeOutput{}, err
	}

	if err := s.ensureLoaded(ctx, input.DocumentID); err != nil {
		return nil, SummarizeOutput{}, err
	}

	answer, err := s.ports.Session.Summarize(ctx, kind)
	if err != nil {
		return nil, SummarizeOutput{}, err
	}

	return nil, SummarizeOutput{
		Summary:   answer.Text,
		FromCache: answer.FromCache,
	}, nil
}

// handleExtract handles the extract_fields tool invocation.
func (s *Server) handleExtract(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ExtractInput,
) (*mcp.CallToolResult, ExtractOutput, error) {
	if err := s.ensureLoaded(ctx, input.DocumentID); err != nil {
		return nil, ExtractOutput{}, err
	}

	fields, err := s.ports.Session.Extract(ctx)
	if err != nil {
		return nil, ExtractOutput{}, err
	}

	output := ExtractOutput{Fields: make(map[string]FieldOutput)}
	for _, nf := range fields.Fields() {
		output.Fields[nf.Name] = FieldOutput{
			Value: nf.Field.Value,
			Page:  nf.Field.Page,
			Found: nf.Field.Found,
		}
	}

	return nil, output, nil
}

// ensureLoaded binds the requested document to the session. With an
// empty documentID the loaded document is kept, falling back to the
// owner's most recent document when nothing is loaded yet.
func (s *Server) ensureLoaded(ctx context.Context, documentID string) error {
	current := s.ports.Session.Document()
	if documentID == "" {
		if current != nil {
			return nil
		}
		if s.ports.Document == nil {
			return fmt.Errorf("%w: no document loaded", domain.ErrNotReady)
		}
		latest, err := s.ports.Document.Latest(ctx, s.ports.Owner)
		if err != nil {
			return fmt.Errorf("resolving latest document: %w", err)
		}
		return s.ports.Session.Load(ctx, latest)
	}

	if current != nil && current.ID == documentID {
		return nil
	}
	if s.ports.Document == nil {
		return fmt.Errorf("%w: document service not configured", domain.ErrInvalidConfiguration)
	}
	doc, err := s.ports.Document.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("resolving document %s: %w", documentID, err)
	}
	return s.ports.Session.Load(ctx, doc)
}
