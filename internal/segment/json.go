package segment

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Outreach is a generated cold outreach email.
type Outreach struct {
	Subject string `json:"subject"`
	Email   string `json:"email"`
}

var (
	fenceOpenPattern  = regexp.MustCompile("^```(?:json)?\n?")
	fenceClosePattern = regexp.MustCompile("\n?```$")
)

// StripCodeFence removes a wrapping markdown code fence, with or without a
// language marker. Input without a fence passes through unchanged.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = fenceOpenPattern.ReplaceAllString(s, "")
	return fenceClosePattern.ReplaceAllString(s, "")
}

// ParseOutreach parses the model's outreach response. The requested shape is
// a JSON object with "subject" and "email" keys; "body" is accepted as an
// alias for "email". A code-fenced response is unfenced first. Anything that
// still fails to parse becomes the email body verbatim, so a model that
// ignored the shape never fails the request.
func ParseOutreach(raw string) Outreach {
	var wire struct {
		Subject string `json:"subject"`
		Email   string `json:"email"`
		Body    string `json:"body"`
	}

	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &wire); err != nil {
		return Outreach{Email: raw}
	}

	email := wire.Email
	if email == "" {
		email = wire.Body
	}
	if wire.Subject == "" && email == "" {
		// Valid JSON but not the outreach shape (e.g. a bare string)
		return Outreach{Email: raw}
	}
	return Outreach{Subject: wire.Subject, Email: email}
}
