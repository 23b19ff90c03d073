package kanban

import (
	"strings"

	"github.com/dalemusser/kanbanhub/internal/domain/models"
)

// FindListForStatus returns the first list, in the order given, whose
// title contains status case-insensitively. Underscores in the status
// also match spaces, so "in_progress" finds "In Progress".
//
// The card status is authoritative; a card's list is derived from it with
// this match so boards organized by status-named lists stay in step.
func FindListForStatus(lists []models.List, status string) (models.List, bool) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return models.List{}, false
	}
	spaced := strings.ReplaceAll(status, "_", " ")
	for _, l := range lists {
		title := strings.ToLower(l.Title)
		if strings.Contains(title, status) || strings.Contains(title, spaced) {
			return l, true
		}
	}
	return models.List{}, false
}
