package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/smartcat-ai/askcat/internal/knowledge"
	"github.com/smartcat-ai/askcat/internal/log"
	"github.com/smartcat-ai/askcat/internal/rag"
	"github.com/smartcat-ai/askcat/internal/segment"
)

// ErrValidation indicates a malformed request: missing messages, a history
// not ending with a user turn, or empty page content.
var ErrValidation = errors.New("invalid request")

// Content budgets for the analysis flow. Captured pages can be arbitrarily
// large; the analysis step sees more than the outreach step because it has
// to find signals, while outreach only needs the gist.
const (
	analysisContentMaxRunes = 10000
	outreachContentMaxRunes = 5000
	capabilityMaxRunes      = 200
	matchSnippetMaxRunes    = 100
)

// Retriever finds knowledge entities relevant to a query.
// Satisfied by *rag.Retriever.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]rag.SearchResult, error)
}

// TextGenerator produces model responses. Satisfied by *Generator.
type TextGenerator interface {
	Chat(ctx context.Context, history []Message, contextBlock string) (string, error)
	Complete(ctx context.Context, prompt string) (string, error)
}

// Assistant orchestrates the chat and page analysis flows.
// Stateless between calls; safe for concurrent use.
type Assistant struct {
	retriever Retriever
	generator TextGenerator
	logger    log.Logger
}

// New creates an Assistant.
func New(retriever Retriever, generator TextGenerator, logger log.Logger) *Assistant {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Assistant{
		retriever: retriever,
		generator: generator,
		logger:    logger,
	}
}

// ChatTurn answers the newest user message grounded in retrieved knowledge.
// The full history is passed to the model; retrieval uses only the newest
// message. An empty knowledge base still produces an answer, grounded on the
// no-results sentinel.
func (a *Assistant) ChatTurn(ctx context.Context, messages []Message) (*ChatResult, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("%w: messages are required", ErrValidation)
	}

	last := messages[len(messages)-1]
	if last.Role != RoleUser {
		return nil, fmt.Errorf("%w: last message must have role %q", ErrValidation, RoleUser)
	}
	if strings.TrimSpace(last.Content) == "" {
		return nil, fmt.Errorf("%w: last message is empty", ErrValidation)
	}

	results, err := a.retriever.Retrieve(ctx, last.Content)
	if err != nil {
		return nil, err
	}

	raw, err := a.generator.Chat(ctx, messages, rag.FormatContext(results))
	if err != nil {
		return nil, err
	}

	sources := make([]Source, 0, len(results))
	for _, r := range results {
		sources = append(sources, Source{
			Type:  string(r.Kind),
			Name:  r.Name,
			Score: r.Similarity,
		})
	}

	a.logger.Info("chat turn completed",
		"history_len", len(messages),
		"sources", len(sources),
		"response_len", len(raw))

	return &ChatResult{
		Response: raw,
		Segments: segment.Parse(raw),
		Sources:  sources,
	}, nil
}

// AnalyzePage extracts sales signals from a captured page, matches them
// against the knowledge base, and optionally writes an outreach email.
func (a *Assistant) AnalyzePage(ctx context.Context, req PageRequest) (*PageReport, error) {
	if req.PageContent.IsEmpty() {
		return nil, fmt.Errorf("%w: page content is required", ErrValidation)
	}

	pageURL := orUnknown(req.PageURL)
	pageTitle := orUnknown(req.PageTitle)

	prompt := fmt.Sprintf(analysisPromptTemplate,
		req.PageContent.Type,
		pageURL,
		pageTitle,
		truncateRunes(req.PageContent.Text, analysisContentMaxRunes))

	raw, err := a.generator.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	analysis := parseAnalysis(raw)

	// The model proposes search keywords; fall back to the page title when it
	// failed to produce any.
	searchQuery := analysis.SearchQuery
	if strings.TrimSpace(searchQuery) == "" {
		searchQuery = req.PageTitle
	}

	var results []rag.SearchResult
	if strings.TrimSpace(searchQuery) != "" {
		results, err = a.retriever.Retrieve(ctx, searchQuery)
		if err != nil {
			return nil, err
		}
	} else {
		a.logger.Warn("no search query from analysis, skipping capability match",
			"page_url", pageURL)
	}

	report := &PageReport{Analysis: analysis}

	if req.GenerateOutreach {
		outreachPrompt := fmt.Sprintf(outreachPromptTemplate,
			pageURL,
			pageTitle,
			truncateRunes(req.PageContent.Text, outreachContentMaxRunes),
			formatCapabilities(results))

		rawEmail, err := a.generator.Complete(ctx, outreachPrompt)
		if err != nil {
			return nil, err
		}

		outreach := segment.ParseOutreach(rawEmail)
		report.Subject = outreach.Subject
		report.Email = outreach.Email
		for _, r := range results {
			report.Sources = append(report.Sources, Source{Type: string(r.Kind), Name: r.Name})
		}
		return report, nil
	}

	for _, r := range results {
		switch r.Kind.Tag() {
		case "EMPLOYEE":
			report.Employees = append(report.Employees, EmployeeMatch{
				Name:  r.Name,
				Role:  firstLine(r.Content),
				Match: truncateRunes(r.Content, matchSnippetMaxRunes),
			})
		case "PROJECT":
			report.Projects = append(report.Projects, EntityMatch{
				Name:  r.Name,
				Match: truncateRunes(r.Content, matchSnippetMaxRunes),
			})
		case "REPO":
			report.Repositories = append(report.Repositories, EntityMatch{
				Name:  r.Name,
				Match: truncateRunes(r.Content, matchSnippetMaxRunes),
			})
		}
	}
	return report, nil
}

// parseAnalysis parses the model's analysis JSON. A fenced response is
// unfenced first; anything that still fails to parse is kept whole as the
// signals text, never dropped.
func parseAnalysis(raw string) Analysis {
	var analysis Analysis
	if err := json.Unmarshal([]byte(segment.StripCodeFence(raw)), &analysis); err != nil {
		return Analysis{Signals: raw}
	}
	return analysis
}

// formatCapabilities renders retrieval results into the compact block shown
// to the outreach prompt: one "[KIND:name] snippet" line per entity.
func formatCapabilities(results []rag.SearchResult) string {
	if len(results) == 0 {
		return rag.NoResults
	}
	entries := make([]string, 0, len(results))
	for _, r := range results {
		entries = append(entries, fmt.Sprintf("[%s:%s] %s",
			strings.ToUpper(string(r.Kind)),
			r.Name,
			truncateRunes(r.Content, capabilityMaxRunes)))
	}
	return strings.Join(entries, "\n\n")
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
