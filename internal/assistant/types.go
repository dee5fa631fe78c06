// Package assistant implements askcat's two entry points: the grounded chat
// turn and the page analysis / outreach flow. It wires retrieval, context
// formatting, generation, and response parsing; all state lives in the
// knowledge store, so every call is independent and safe to run
// concurrently.
package assistant

import (
	"encoding/json"
	"fmt"

	"github.com/smartcat-ai/askcat/internal/segment"
)

// Role identifies a conversation turn's author.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn. The caller owns the history and sends it
// whole each turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Source describes one knowledge entity a response was grounded on.
type Source struct {
	Type  string  `json:"type"`
	Name  string  `json:"name"`
	Score float32 `json:"score,omitempty"`
}

// ChatResult is the outcome of one chat turn.
type ChatResult struct {
	Response string            `json:"response"`
	Segments []segment.Segment `json:"segments"`
	Sources  []Source          `json:"sources"`
}

// PageContent is the page capture accepted by the analysis flow: either a
// raw text string or a structured capture from the browser extension. The
// wire format is duck-typed for extension compatibility; the union is
// resolved once here, at the boundary.
type PageContent struct {
	Text     string            `json:"text"`
	Type     string            `json:"type"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// UnmarshalJSON accepts either a JSON string or a structured capture object.
// A structured capture without a "text" field keeps its raw JSON as the
// text, so no caller-provided content is ever silently discarded.
func (p *PageContent) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*p = PageContent{Text: raw, Type: "generic"}
		return nil
	}

	type wire PageContent
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("page content must be a string or a capture object: %w", err)
	}
	if w.Text == "" {
		w.Text = string(data)
	}
	if w.Type == "" {
		w.Type = "generic"
	}
	*p = PageContent(w)
	return nil
}

// IsEmpty reports whether the capture carries no content at all.
func (p PageContent) IsEmpty() bool {
	return p.Text == ""
}

// PageRequest is the input of the page analysis / outreach flow.
type PageRequest struct {
	PageContent      PageContent `json:"pageContent"`
	PageURL          string      `json:"pageUrl"`
	PageTitle        string      `json:"pageTitle"`
	GenerateOutreach bool        `json:"generateOutreach,omitempty"`
}

// Analysis is the structured signal summary extracted from a page.
type Analysis struct {
	Signals      string   `json:"signals,omitempty"`
	Company      string   `json:"company,omitempty"`
	Person       string   `json:"person,omitempty"`
	Role         string   `json:"role,omitempty"`
	Industry     string   `json:"industry,omitempty"`
	Technologies []string `json:"technologies,omitempty"`
	Needs        []string `json:"needs,omitempty"`
	SearchQuery  string   `json:"searchQuery,omitempty"`
}

// EmployeeMatch is a matched consultant in an analysis report.
type EmployeeMatch struct {
	Name  string `json:"name"`
	Role  string `json:"role"`
	Match string `json:"match"`
}

// EntityMatch is a matched repository or project in an analysis report.
type EntityMatch struct {
	Name  string `json:"name"`
	Match string `json:"match"`
}

// PageReport is the outcome of the page analysis flow. The outreach fields
// are populated only when the request asked for an email.
type PageReport struct {
	Analysis

	Employees    []EmployeeMatch `json:"employees,omitempty"`
	Projects     []EntityMatch   `json:"projects,omitempty"`
	Repositories []EntityMatch   `json:"repositories,omitempty"`

	Subject string   `json:"subject,omitempty"`
	Email   string   `json:"email,omitempty"`
	Sources []Source `json:"sources,omitempty"`
}
