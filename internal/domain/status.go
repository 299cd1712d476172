package domain

import "strings"

// Status is the backend-assigned post status, decoded once at the API
// boundary. The backend vocabulary is free text and not closed from the
// client's point of view ("Brouillon", "Publié", "publié", "Erreur" have all
// been observed), so decoding is substring-based and anything unrecognized
// becomes StatusUnknown with the raw value kept on the Post for display.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusError     Status = "error"
	StatusUnknown   Status = "unknown"
)

func DecodeStatus(raw string) Status {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return StatusDraft
	case strings.Contains(s, "pub"):
		return StatusPublished
	case strings.Contains(s, "brou") || strings.Contains(s, "draft"):
		return StatusDraft
	case strings.Contains(s, "err"):
		return StatusError
	default:
		return StatusUnknown
	}
}
