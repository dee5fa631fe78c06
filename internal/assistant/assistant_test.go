package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/smartcat-ai/askcat/internal/entity"
	"github.com/smartcat-ai/askcat/internal/knowledge"
	"github.com/smartcat-ai/askcat/internal/rag"
	"github.com/smartcat-ai/askcat/internal/segment"
)

// fakeRetriever implements Retriever for testing
type fakeRetriever struct {
	results   []rag.SearchResult
	err       error
	callCount int
	lastQuery string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]rag.SearchResult, error) {
	f.callCount++
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

// fakeGenerator implements TextGenerator for testing
type fakeGenerator struct {
	chatResponse      string
	chatErr           error
	completeResponses []string // Consumed in order by Complete
	completeErr       error

	chatCalls       int
	completeCalls   int
	lastHistory     []Message
	lastContext     string
	lastCompletions []string
}

func (f *fakeGenerator) Chat(ctx context.Context, history []Message, contextBlock string) (string, error) {
	f.chatCalls++
	f.lastHistory = history
	f.lastContext = contextBlock
	if f.chatErr != nil {
		return "", f.chatErr
	}
	return f.chatResponse, nil
}

func (f *fakeGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	f.completeCalls++
	f.lastCompletions = append(f.lastCompletions, prompt)
	if f.completeErr != nil {
		return "", f.completeErr
	}
	if len(f.completeResponses) == 0 {
		return "", nil
	}
	resp := f.completeResponses[0]
	f.completeResponses = f.completeResponses[1:]
	return resp, nil
}

// ============================================================================
// ChatTurn Tests
// ============================================================================

func TestChatTurn_Success(t *testing.T) {
	retriever := &fakeRetriever{
		results: []rag.SearchResult{
			{Kind: entity.KindEmployee, Name: "Milan Petrović", Content: "Milan Petrović - Senior ML Engineer", Similarity: 0.92},
		},
	}
	generator := &fakeGenerator{
		chatResponse: "[EMPLOYEE:Milan Petrović] ML engineer with fraud detection experience.\nExperience: 8 years",
	}
	assistant := New(retriever, generator, nil)

	result, err := assistant.ChatTurn(context.Background(), []Message{
		{Role: RoleUser, Content: "Who has real-time fraud detection experience?"},
	})
	if err != nil {
		t.Fatalf("ChatTurn failed: %v", err)
	}

	if retriever.lastQuery != "Who has real-time fraud detection experience?" {
		t.Errorf("retrieval used wrong query: %q", retriever.lastQuery)
	}

	// Context block built from results reaches the generator
	if !strings.Contains(generator.lastContext, "[EMPLOYEE:Milan Petrović]") {
		t.Errorf("context block missing entity tag:\n%s", generator.lastContext)
	}

	if len(result.Sources) != 1 || result.Sources[0].Name != "Milan Petrović" {
		t.Errorf("sources = %+v", result.Sources)
	}
	if result.Sources[0].Score != 0.92 {
		t.Errorf("source score = %f", result.Sources[0].Score)
	}

	if len(result.Segments) != 1 || result.Segments[0].Kind != segment.KindEmployee {
		t.Errorf("segments = %+v", result.Segments)
	}
}

func TestChatTurn_FullHistoryPassedThrough(t *testing.T) {
	generator := &fakeGenerator{chatResponse: "answer"}
	assistant := New(&fakeRetriever{}, generator, nil)

	history := []Message{
		{Role: RoleUser, Content: "first question"},
		{Role: RoleAssistant, Content: "first answer"},
		{Role: RoleUser, Content: "follow-up"},
	}

	if _, err := assistant.ChatTurn(context.Background(), history); err != nil {
		t.Fatalf("ChatTurn failed: %v", err)
	}

	if len(generator.lastHistory) != 3 {
		t.Errorf("expected full history, got %d messages", len(generator.lastHistory))
	}
}

func TestChatTurn_Validation(t *testing.T) {
	tests := []struct {
		name     string
		messages []Message
	}{
		{"no messages", nil},
		{"last message not user", []Message{{Role: RoleAssistant, Content: "hi"}}},
		{"empty content", []Message{{Role: RoleUser, Content: "  "}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retriever := &fakeRetriever{}
			assistant := New(retriever, &fakeGenerator{}, nil)

			_, err := assistant.ChatTurn(context.Background(), tt.messages)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if retriever.callCount > 0 {
				t.Error("retrieval should not run for invalid requests")
			}
		})
	}
}

func TestChatTurn_EmptyStoreUsesSentinelContext(t *testing.T) {
	generator := &fakeGenerator{chatResponse: "I have no data on that."}
	assistant := New(&fakeRetriever{}, generator, nil)

	result, err := assistant.ChatTurn(context.Background(), []Message{
		{Role: RoleUser, Content: "anything?"},
	})
	if err != nil {
		t.Fatalf("ChatTurn failed: %v", err)
	}

	if generator.lastContext != rag.NoResults {
		t.Errorf("context = %q, want no-results sentinel", generator.lastContext)
	}
	if len(result.Sources) != 0 {
		t.Errorf("expected no sources, got %+v", result.Sources)
	}
}

func TestChatTurn_ErrorsPropagate(t *testing.T) {
	t.Run("retrieval error", func(t *testing.T) {
		retrieveErr := errors.New("embedding down")
		assistant := New(&fakeRetriever{err: retrieveErr}, &fakeGenerator{}, nil)

		_, err := assistant.ChatTurn(context.Background(), []Message{{Role: RoleUser, Content: "q"}})
		if !errors.Is(err, retrieveErr) {
			t.Errorf("expected retrieval error, got %v", err)
		}
	})

	t.Run("generation error", func(t *testing.T) {
		assistant := New(&fakeRetriever{}, &fakeGenerator{chatErr: ErrGeneration}, nil)

		_, err := assistant.ChatTurn(context.Background(), []Message{{Role: RoleUser, Content: "q"}})
		if !errors.Is(err, ErrGeneration) {
			t.Errorf("expected ErrGeneration, got %v", err)
		}
	})
}

// ============================================================================
// AnalyzePage Tests
// ============================================================================

func analysisJSON(t *testing.T, a Analysis) string {
	t.Helper()
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshaling analysis fixture: %v", err)
	}
	return string(data)
}

func TestAnalyzePage_PlainAnalysis(t *testing.T) {
	retriever := &fakeRetriever{
		results: []rag.SearchResult{
			{Kind: entity.KindEmployee, Name: "Milan Petrović", Content: "Milan Petrović - Senior ML Engineer\nSkills: Kafka, ML", Similarity: 0.9},
			{Kind: entity.KindProject, Name: "FraudShield", Content: "FraudShield - NeoBank\nIndustry: fintech", Similarity: 0.8},
			{Kind: entity.KindRepository, Name: "fraud-detection", Content: "fraud-detection: real-time scoring", Similarity: 0.7},
		},
	}
	generator := &fakeGenerator{
		completeResponses: []string{analysisJSON(t, Analysis{
			Signals:     "Hiring ML engineers for payments fraud",
			Company:     "PayCo",
			SearchQuery: "fraud detection machine learning",
		})},
	}
	assistant := New(retriever, generator, nil)

	report, err := assistant.AnalyzePage(context.Background(), PageRequest{
		PageContent: PageContent{Text: "We are hiring ML engineers...", Type: "linkedin_job"},
		PageURL:     "https://example.com/job",
		PageTitle:   "ML Engineer at PayCo",
	})
	if err != nil {
		t.Fatalf("AnalyzePage failed: %v", err)
	}

	if report.Company != "PayCo" {
		t.Errorf("company = %q", report.Company)
	}

	// Search uses the model's proposed query
	if retriever.lastQuery != "fraud detection machine learning" {
		t.Errorf("search query = %q", retriever.lastQuery)
	}

	if len(report.Employees) != 1 || report.Employees[0].Name != "Milan Petrović" {
		t.Errorf("employees = %+v", report.Employees)
	}
	if report.Employees[0].Role != "Milan Petrović - Senior ML Engineer" {
		t.Errorf("employee role should be the first content line: %q", report.Employees[0].Role)
	}
	if len(report.Projects) != 1 || len(report.Repositories) != 1 {
		t.Errorf("projects = %+v, repositories = %+v", report.Projects, report.Repositories)
	}

	// Plain analysis produces no outreach fields
	if report.Subject != "" || report.Email != "" {
		t.Errorf("unexpected outreach fields: %+v", report)
	}
}

func TestAnalyzePage_Validation(t *testing.T) {
	assistant := New(&fakeRetriever{}, &fakeGenerator{}, nil)

	_, err := assistant.AnalyzePage(context.Background(), PageRequest{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestAnalyzePage_SearchQueryFallsBackToTitle(t *testing.T) {
	retriever := &fakeRetriever{}
	generator := &fakeGenerator{
		completeResponses: []string{`{"signals":"something"}`},
	}
	assistant := New(retriever, generator, nil)

	_, err := assistant.AnalyzePage(context.Background(), PageRequest{
		PageContent: PageContent{Text: "content"},
		PageTitle:   "CTO at FinServe",
	})
	if err != nil {
		t.Fatalf("AnalyzePage failed: %v", err)
	}

	if retriever.lastQuery != "CTO at FinServe" {
		t.Errorf("search query = %q, want page title fallback", retriever.lastQuery)
	}
}

func TestAnalyzePage_NoQueryAtAllSkipsSearch(t *testing.T) {
	retriever := &fakeRetriever{}
	generator := &fakeGenerator{completeResponses: []string{`{"signals":"s"}`}}
	assistant := New(retriever, generator, nil)

	report, err := assistant.AnalyzePage(context.Background(), PageRequest{
		PageContent: PageContent{Text: "content"},
	})
	if err != nil {
		t.Fatalf("AnalyzePage failed: %v", err)
	}

	if retriever.callCount > 0 {
		t.Error("retrieval should be skipped without any query")
	}
	if len(report.Employees)+len(report.Projects)+len(report.Repositories) != 0 {
		t.Errorf("expected no matches, got %+v", report)
	}
}

func TestAnalyzePage_MalformedAnalysisKeptAsSignals(t *testing.T) {
	generator := &fakeGenerator{
		completeResponses: []string{"The page is about hiring ML engineers."},
	}
	assistant := New(&fakeRetriever{}, generator, nil)

	report, err := assistant.AnalyzePage(context.Background(), PageRequest{
		PageContent: PageContent{Text: "content"},
		PageTitle:   "Jobs",
	})
	if err != nil {
		t.Fatalf("AnalyzePage failed: %v", err)
	}

	if report.Signals != "The page is about hiring ML engineers." {
		t.Errorf("signals = %q", report.Signals)
	}
}

func TestAnalyzePage_Outreach(t *testing.T) {
	retriever := &fakeRetriever{
		results: []rag.SearchResult{
			{Kind: entity.KindProject, Name: "FraudShield", Content: "FraudShield - NeoBank\n$50M+ fraud prevented annually", Similarity: 0.85},
		},
	}
	generator := &fakeGenerator{
		completeResponses: []string{
			`{"signals":"hiring","searchQuery":"fraud detection"}`,
			"```json\n{\"subject\":\"99.7% fraud detection for payment processors\",\"email\":\"Hi Milan, ...\"}\n```",
		},
	}
	assistant := New(retriever, generator, nil)

	report, err := assistant.AnalyzePage(context.Background(), PageRequest{
		PageContent:      PageContent{Text: "hiring page", Type: "hiring_page"},
		PageURL:          "https://example.com",
		PageTitle:        "Careers",
		GenerateOutreach: true,
	})
	if err != nil {
		t.Fatalf("AnalyzePage failed: %v", err)
	}

	if report.Subject != "99.7% fraud detection for payment processors" {
		t.Errorf("subject = %q", report.Subject)
	}
	if report.Email != "Hi Milan, ..." {
		t.Errorf("email = %q", report.Email)
	}
	if len(report.Sources) != 1 || report.Sources[0].Name != "FraudShield" {
		t.Errorf("sources = %+v", report.Sources)
	}

	// The outreach prompt carries the capability snippet
	if len(generator.lastCompletions) != 2 {
		t.Fatalf("expected 2 completions, got %d", len(generator.lastCompletions))
	}
	if !strings.Contains(generator.lastCompletions[1], "[PROJECT:FraudShield]") {
		t.Errorf("outreach prompt missing capabilities:\n%s", generator.lastCompletions[1])
	}
}

func TestAnalyzePage_OutreachWithNoMatchesStillProducesEmail(t *testing.T) {
	generator := &fakeGenerator{
		completeResponses: []string{
			`{"signals":"s","searchQuery":"obscure niche"}`,
			"We can help with your data platform. Worth a 15 min call next week?",
		},
	}
	assistant := New(&fakeRetriever{}, generator, nil)

	report, err := assistant.AnalyzePage(context.Background(), PageRequest{
		PageContent:      PageContent{Text: "content"},
		GenerateOutreach: true,
	})
	if err != nil {
		t.Fatalf("AnalyzePage failed: %v", err)
	}

	// Non-JSON output falls back to the raw text as the email body
	if report.Email == "" {
		t.Error("email must be non-empty even without matches")
	}
	if !strings.Contains(report.Email, "15 min") {
		t.Errorf("email = %q", report.Email)
	}
	if !strings.Contains(generator.lastCompletions[1], rag.NoResults) {
		t.Error("outreach prompt should carry the no-results sentinel when nothing matched")
	}
}

// ============================================================================
// PageContent Union Tests
// ============================================================================

func TestPageContent_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantText string
		wantType string
	}{
		{
			name:     "plain string",
			raw:      `"raw page text"`,
			wantText: "raw page text",
			wantType: "generic",
		},
		{
			name:     "structured capture",
			raw:      `{"text":"About us...","type":"company_about","metadata":{"lang":"en"}}`,
			wantText: "About us...",
			wantType: "company_about",
		},
		{
			name:     "object without text keeps raw JSON",
			raw:      `{"headline":"We are hiring"}`,
			wantText: `{"headline":"We are hiring"}`,
			wantType: "generic",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p PageContent
			if err := json.Unmarshal([]byte(tt.raw), &p); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if p.Text != tt.wantText {
				t.Errorf("text = %q, want %q", p.Text, tt.wantText)
			}
			if p.Type != tt.wantType {
				t.Errorf("type = %q, want %q", p.Type, tt.wantType)
			}
		})
	}
}

func TestPageContent_UnmarshalJSON_Invalid(t *testing.T) {
	var p PageContent
	if err := json.Unmarshal([]byte(`42`), &p); err == nil {
		t.Fatal("expected error for non-string, non-object content")
	}
}

func TestAnalyzePage_ContentTruncation(t *testing.T) {
	generator := &fakeGenerator{completeResponses: []string{`{"signals":"s"}`}}
	assistant := New(&fakeRetriever{}, generator, nil)

	long := strings.Repeat("x", analysisContentMaxRunes+1000)
	_, err := assistant.AnalyzePage(context.Background(), PageRequest{
		PageContent: PageContent{Text: long},
		PageTitle:   "t",
	})
	if err != nil {
		t.Fatalf("AnalyzePage failed: %v", err)
	}

	if len(generator.lastCompletions) != 1 {
		t.Fatalf("expected 1 completion, got %d", len(generator.lastCompletions))
	}
	if strings.Contains(generator.lastCompletions[0], long) {
		t.Error("analysis prompt should carry truncated content")
	}
}
