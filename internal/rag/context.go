package rag

import (
	"strings"

	"github.com/smartcat-ai/askcat/internal/entity"
)

// NoResults is the sentinel context block used when retrieval finds nothing.
// The generator's system prompt tells the model to admit the gap when it sees
// this text instead of grounded entries.
const NoResults = "No relevant information found in the knowledge base."

// sectionOrder fixes the section sequence in the context block. Within a
// section, entries keep retrieval order, so the most similar entity of each
// kind always leads its section.
var sectionOrder = []struct {
	kind  entity.Kind
	title string
}{
	{entity.KindEmployee, "EMPLOYEES"},
	{entity.KindRepository, "REPOSITORIES"},
	{entity.KindProject, "PROJECTS"},
}

// FormatContext renders retrieval results into the grounding context block:
// per-kind sections headed "## <TITLE>", entries tagged "[TAG:Name]" on their
// own line followed by the entity's content, entries separated by blank
// lines, sections separated by "---" rules. Tags double as the citation
// vocabulary the model is instructed to reuse in its answers.
func FormatContext(results []SearchResult) string {
	if len(results) == 0 {
		return NoResults
	}

	byKind := make(map[entity.Kind][]SearchResult, len(sectionOrder))
	for _, r := range results {
		byKind[r.Kind] = append(byKind[r.Kind], r)
	}

	var sections []string
	for _, s := range sectionOrder {
		group := byKind[s.kind]
		if len(group) == 0 {
			continue
		}

		entries := make([]string, 0, len(group))
		for _, r := range group {
			entries = append(entries, "["+s.kind.Tag()+":"+r.Name+"]\n"+r.Content)
		}
		sections = append(sections, "## "+s.title+"\n"+strings.Join(entries, "\n\n"))
	}

	return strings.Join(sections, "\n\n---\n\n")
}
