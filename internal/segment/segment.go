// Package segment parses annotated model output back into typed segments.
//
// The generator instructs the model to introduce every cited entity with a
// citation tag ("[EMPLOYEE:Name]", "[REPO:name]", "[PROJECT:Name]") on its
// own line. Model output is free-form text, so the grammar here is lenient:
// anything that does not parse as a tag stays plain text, and the whole
// input degrades to a single text segment when no tag is found. Parsing
// never fails and never drops characters.
package segment

import (
	"regexp"
	"strings"

	"github.com/smartcat-ai/askcat/internal/entity"
)

// Kind discriminates segment variants. The three entity kinds mirror
// entity.Kind; KindText marks free narrative between entity cards.
type Kind string

const (
	KindText       Kind = "text"
	KindEmployee   Kind = Kind(entity.KindEmployee)
	KindRepository Kind = Kind(entity.KindRepository)
	KindProject    Kind = Kind(entity.KindProject)
)

// Segment is one parsed span of a model response.
type Segment struct {
	Kind    Kind   `json:"kind"`
	Name    string `json:"name,omitempty"` // Cited entity name; empty for text segments
	Content string `json:"content"`
}

// tagPattern matches a citation tag. The name capture stops at the first
// closing bracket, so names may contain colons ("Repo: v2") but never a
// literal "]".
var tagPattern = regexp.MustCompile(`(?i)\[(EMPLOYEE|REPO|PROJECT)\s*:\s*([^\]]*)\]`)

// kindForTag maps a tag keyword to a segment kind.
func kindForTag(keyword string) Kind {
	switch strings.ToUpper(keyword) {
	case "EMPLOYEE":
		return KindEmployee
	case "REPO":
		return KindRepository
	case "PROJECT":
		return KindProject
	default:
		return KindText
	}
}

// Parse splits raw model output into ordered segments.
//
// Text before the first tag becomes a leading text segment when it is
// non-blank. Each tag opens an entity segment whose content runs to the next
// tag or end of input. Input without any tag becomes one cleaned text
// segment. Every character between tag boundaries lands in exactly one
// segment.
func Parse(raw string) []Segment {
	matches := tagPattern.FindAllStringSubmatchIndex(raw, -1)
	if len(matches) == 0 {
		return []Segment{{Kind: KindText, Content: CleanText(raw)}}
	}

	var segments []Segment

	if lead := raw[:matches[0][0]]; strings.TrimSpace(lead) != "" {
		segments = append(segments, Segment{Kind: KindText, Content: CleanText(lead)})
	}

	for i, m := range matches {
		keyword := raw[m[2]:m[3]]
		name := strings.TrimSpace(raw[m[4]:m[5]])

		end := len(raw)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		segments = append(segments, Segment{
			Kind:    kindForTag(keyword),
			Name:    name,
			Content: strings.TrimSpace(raw[m[1]:end]),
		})
	}

	return segments
}

var (
	boldPattern    = regexp.MustCompile(`\*\*([^*]*)\*\*`)
	italicPattern  = regexp.MustCompile(`\*([^*\n]*)\*`)
	underPattern   = regexp.MustCompile(`__([^_]*)__`)
	codePattern    = regexp.MustCompile("`([^`]*)`")
	bulletPattern  = regexp.MustCompile(`(?m)^[ \t]*[-*•][ \t]+`)
	headingPattern = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]+`)
)

// CleanText strips residual markdown decoration from narrative text: bold
// and italic emphasis, inline code markers, and leading bullet or heading
// markers. The generator's prompt forbids markdown, but models slip;
// downstream consumers rely on plain key-value lines. Idempotent on text
// that is already clean.
func CleanText(s string) string {
	s = strings.TrimSpace(s)
	s = headingPattern.ReplaceAllString(s, "")
	s = bulletPattern.ReplaceAllString(s, "")
	s = boldPattern.ReplaceAllString(s, "$1")
	s = underPattern.ReplaceAllString(s, "$1")
	s = italicPattern.ReplaceAllString(s, "$1")
	s = codePattern.ReplaceAllString(s, "$1")
	return s
}
