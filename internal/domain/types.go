package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// GenerationType selects which documents the generation service produces
type GenerationType string

const (
	TypeResume      GenerationType = "resume"
	TypeCoverLetter GenerationType = "cover_letter"
	TypeBoth        GenerationType = "both"
)

// GenerationTypes lists every accepted type in display order
var GenerationTypes = []GenerationType{TypeResume, TypeCoverLetter, TypeBoth}

// Valid reports whether t is one of the known generation types
func (t GenerationType) Valid() bool {
	switch t {
	case TypeResume, TypeCoverLetter, TypeBoth:
		return true
	}
	return false
}

// ParseGenerationType converts user input into a GenerationType
func ParseGenerationType(s string) (GenerationType, error) {
	t := GenerationType(strings.TrimSpace(strings.ToLower(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown generation type %q (want resume, cover_letter or both)", s)
	}
	return t, nil
}

// JobRequest is a validated job title/description pair plus the requested output
type JobRequest struct {
	Title       string         `json:"job_title"`
	Description string         `json:"job_description"`
	Type        GenerationType `json:"type"`
}

// ApplicationRecord is one entry of the daily application log
type ApplicationRecord struct {
	ID        int64          `json:"id"`
	Title     string         `json:"title"`
	Type      GenerationType `json:"type"`
	Timestamp string         `json:"timestamp"`
}

// ErrValidation is matched by every *ValidationError
var ErrValidation = errors.New("validation failed")

// ValidationError lists the required fields that were blank
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("required field(s) blank: %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Validate checks title and description at submission time.
// Values are kept as typed; only the blank check trims.
func Validate(title, description string, t GenerationType) (JobRequest, error) {
	var blank []string
	if strings.TrimSpace(title) == "" {
		blank = append(blank, "job_title")
	}
	if strings.TrimSpace(description) == "" {
		blank = append(blank, "job_description")
	}
	if len(blank) > 0 {
		return JobRequest{}, &ValidationError{Fields: blank}
	}
	if !t.Valid() {
		return JobRequest{}, fmt.Errorf("%w: unknown generation type %q", ErrValidation, t)
	}

	return JobRequest{
		Title:       title,
		Description: description,
		Type:        t,
	}, nil
}

// \s alone misses \v and the Unicode spaces (NBSP, em space, ...)
var whitespaceRun = regexp.MustCompile(`[\s\v\p{Zs}\x{2028}\x{2029}\x{feff}]+`)

// ArtifactName derives the saved archive name, e.g. Software_Engineer_both.zip
func ArtifactName(title string, t GenerationType) string {
	return whitespaceRun.ReplaceAllString(title, "_") + "_" + string(t) + ".zip"
}
