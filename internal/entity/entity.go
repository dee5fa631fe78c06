// Package entity defines the knowledge base records askcat retrieves over:
// employees, code repositories, and past projects.
//
// Every record has a globally unique ID and a stable human-readable name used
// as its citation key. The unit of embedding and retrieval is not the
// structured record but its denormalized text: a deterministic flattening of
// the record's fields, one field per line, arrays joined by ", ". The same
// flattening is shown to the model as grounding context, so it must stay
// stable across reindex runs.
package entity

import (
	"fmt"
	"strings"
)

// Kind discriminates the three entity variants in the knowledge base.
type Kind string

const (
	KindEmployee   Kind = "employee"
	KindRepository Kind = "repository"
	KindProject    Kind = "project"
)

// ParseKind maps a stored kind string to a Kind.
// An unknown value is a data-integrity error: kinds are validated at indexing
// time, so anything else in the store means the store was populated by a
// foreign writer.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindEmployee, KindRepository, KindProject:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", s)
	}
}

// Tag returns the citation-tag keyword for the kind, as used in both the
// context block handed to the model and the model's annotated output.
func (k Kind) Tag() string {
	switch k {
	case KindEmployee:
		return "EMPLOYEE"
	case KindRepository:
		return "REPO"
	case KindProject:
		return "PROJECT"
	default:
		return ""
	}
}

// Employee is a consultant profile from the staffing records.
type Employee struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Role            string   `json:"role"`
	Department      string   `json:"department"`
	Skills          []string `json:"skills"`
	ExperienceYears int      `json:"experience_years"`
	Certifications  []string `json:"certifications"`
	Languages       []string `json:"languages"`
	Bio             string   `json:"bio"`
}

// Denormalize flattens the employee record into its embeddable text form.
func (e Employee) Denormalize() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s in %s\n", e.Name, e.Role, e.Department)
	fmt.Fprintf(&b, "Skills: %s\n", strings.Join(e.Skills, ", "))
	fmt.Fprintf(&b, "Experience: %d years\n", e.ExperienceYears)
	fmt.Fprintf(&b, "Certifications: %s\n", strings.Join(e.Certifications, ", "))
	fmt.Fprintf(&b, "Languages: %s\n", strings.Join(e.Languages, ", "))
	b.WriteString(e.Bio)
	return b.String()
}

// Repository is a technical asset: an internal or client-facing codebase.
type Repository struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Language     string   `json:"language"`
	Technologies []string `json:"technologies"`
	Cloud        string   `json:"cloud"`
	Features     []string `json:"features"`
	Metrics      string   `json:"metrics"`
	Status       string   `json:"status"`
}

// Denormalize flattens the repository record into its embeddable text form.
func (r Repository) Denormalize() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", r.Name, r.Description)
	fmt.Fprintf(&b, "Language: %s\n", r.Language)
	fmt.Fprintf(&b, "Technologies: %s\n", strings.Join(r.Technologies, ", "))
	fmt.Fprintf(&b, "Cloud: %s\n", r.Cloud)
	fmt.Fprintf(&b, "Features: %s\n", strings.Join(r.Features, ", "))
	fmt.Fprintf(&b, "Metrics: %s\n", r.Metrics)
	fmt.Fprintf(&b, "Status: %s", r.Status)
	return b.String()
}

// Project is a delivered engagement with its commercial outcome.
type Project struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Client       string   `json:"client"`
	Industry     string   `json:"industry"`
	Duration     string   `json:"duration"`
	Value        string   `json:"value"`
	Status       string   `json:"status"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Capabilities []string `json:"capabilities"`
	Outcomes     []string `json:"outcomes"`
	TeamSize     int      `json:"team_size"`
	KeyPeople    []string `json:"key_people"`
}

// Denormalize flattens the project record into its embeddable text form.
// Outcomes are joined by "; " because individual outcomes routinely contain
// commas.
func (p Project) Denormalize() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s\n", p.Name, p.Client)
	fmt.Fprintf(&b, "Industry: %s\n", p.Industry)
	fmt.Fprintf(&b, "Duration: %s, Value: %s\n", p.Duration, p.Value)
	fmt.Fprintf(&b, "Description: %s\n", p.Description)
	fmt.Fprintf(&b, "Technologies: %s\n", strings.Join(p.Technologies, ", "))
	fmt.Fprintf(&b, "Capabilities: %s\n", strings.Join(p.Capabilities, ", "))
	fmt.Fprintf(&b, "Outcomes: %s\n", strings.Join(p.Outcomes, "; "))
	fmt.Fprintf(&b, "Team size: %d", p.TeamSize)
	return b.String()
}
