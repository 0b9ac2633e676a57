package normalizer

import (
	"strings"

	"github.com/mfenderov/shelf/pkg/models"
)

// Section markers used in Product.Other. Matching is literal and
// case-sensitive; the first occurrence of a marker wins.
const (
	CategoryMarker    = "CATEGORY"
	DescriptionMarker = "DESCRIPTION"
	DetailsMarker     = "DETAILS"
)

// detailMarkers end the description. FORMULATED FOR and HOW TO USE are
// part of the details text; a bare DETAILS label is stripped.
var detailMarkers = []string{"FORMULATED FOR", DetailsMarker, "HOW TO USE"}

// Split derives category, description and details from a product's
// leftover text. It is pure: missing markers yield empty or best-effort
// fields, never an error.
func Split(other string) models.Sections {
	var sections models.Sections

	// body is the text with the category marker and its value removed
	body := other
	if i := strings.Index(other, CategoryMarker); i >= 0 {
		value, rest := categoryValue(other[i+len(CategoryMarker):])
		sections.Category = value
		body = joinParts(stripDescriptionLabel(other[:i]), stripDescriptionLabel(rest))
	} else {
		body = stripDescriptionLabel(body)
	}

	end := firstDetailMarker(body)
	if end < 0 {
		end = len(body)
	}

	sections.Description = strings.TrimSpace(body[:end])

	if end < len(body) {
		details := body[end:]
		if strings.HasPrefix(details, DetailsMarker) {
			details = trimLabel(details[len(DetailsMarker):])
		}
		sections.Details = strings.TrimSpace(details)
	}

	return sections
}

// SectionsOf splits the product's leftover text.
func SectionsOf(p models.Product) models.Sections {
	return Split(p.Other)
}

// CategoryOf returns the product's derived category.
func CategoryOf(p models.Product) string {
	return Split(p.Other).Category
}

// categoryValue reads the value after a CATEGORY marker: the rest of the
// marker line, or the next non-empty line when the marker stands alone.
func categoryValue(after string) (value, rest string) {
	line, rest, _ := strings.Cut(after, "\n")
	if value = trimLabel(line); value != "" {
		return value, rest
	}

	for rest != "" {
		line, remaining, _ := strings.Cut(rest, "\n")
		candidate := strings.TrimSpace(line)
		switch {
		case candidate == "":
			rest = remaining
		case startsWithMarker(candidate):
			return "", rest
		default:
			return candidate, remaining
		}
	}
	return "", ""
}

func firstDetailMarker(s string) int {
	first := -1
	for _, marker := range detailMarkers {
		if i := strings.Index(s, marker); i >= 0 && (first < 0 || i < first) {
			first = i
		}
	}
	return first
}

func startsWithMarker(line string) bool {
	if strings.HasPrefix(line, CategoryMarker) || strings.HasPrefix(line, DescriptionMarker) {
		return true
	}
	for _, marker := range detailMarkers {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}
	return false
}

// stripDescriptionLabel drops a DESCRIPTION label that opens the text.
// The word anywhere else is ordinary description copy.
func stripDescriptionLabel(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, DescriptionMarker) {
		return s
	}
	return trimLabel(trimmed[len(DescriptionMarker):])
}

// joinParts joins the non-blank parts as paragraphs.
func joinParts(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "\n\n")
}

// trimLabel strips the whitespace and optional colon that follow a label.
func trimLabel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, ":")
	return strings.TrimSpace(s)
}
