package application

import (
	"time"

	"github.com/jobdeck/jobdeck/pkg/models"
)

// Derive resolves the review status of a record as of now. Terminal states
// are frozen. Non-terminal records advance purely on elapsed whole days
// since the application date: up to three days in review, four or five
// days reviewed, and after that a deterministic terminal outcome keyed on
// the parity of the day count. The rule stands in for a real review
// pipeline and is deliberately a pure function so repeated loads agree.
func Derive(current models.Status, appliedAt, now time.Time) models.Status {
	if current.Terminal() {
		return current
	}

	days := int(now.Sub(appliedAt).Hours() / 24)
	if days < 0 {
		days = 0
	}

	switch {
	case days <= 3:
		return models.StatusInReview
	case days <= 5:
		return models.StatusReviewed
	case days%2 == 0:
		return models.StatusSelected
	default:
		return models.StatusRejected
	}
}
