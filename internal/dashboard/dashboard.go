// Package dashboard composes the session and application stores into the
// per-user views the dashboard renders. The filtering here is the
// consistency contract between the two stores: an application belongs to
// the current user when its owner email (or one of the legacy owner
// fields) matches, and orphaned associations simply match nobody.
package dashboard

import (
	"context"

	"github.com/jobdeck/jobdeck/internal/application"
	"github.com/jobdeck/jobdeck/internal/session"
	"github.com/jobdeck/jobdeck/pkg/models"
	"github.com/jobdeck/jobdeck/pkg/stream"
)

// Stats are the headline numbers for the dashboard cards, computed over
// the current user's applications only.
type Stats struct {
	Total    int `json:"total"`
	Selected int `json:"selected"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

type Service struct {
	sessions *session.Store
	apps     *application.Store
}

func New(sessions *session.Store, apps *application.Store) *Service {
	return &Service{sessions: sessions, apps: apps}
}

// AllApplications returns the full collection regardless of owner.
func (s *Service) AllApplications() []models.Application {
	return s.apps.Applications()
}

// UserApplications returns the slice owned by the current user, preserving
// the store's newest-first order. No user means no applications.
func (s *Service) UserApplications(ctx context.Context) []models.Application {
	user := s.sessions.CurrentUser(ctx)
	return filterOwned(s.apps.Applications(), user)
}

// SubscribeUserApplications delivers the current user's slice now and after
// every collection change. The current user is re-read on each emission so
// a login change is picked up at the next mutation.
func (s *Service) SubscribeUserApplications(ctx context.Context, fn func([]models.Application)) *stream.Subscription {
	return s.apps.Stream().Subscribe(func(apps []models.Application) {
		fn(filterOwned(apps, s.sessions.CurrentUser(ctx)))
	})
}

// Stats computes the dashboard counters over the current user's slice.
func (s *Service) Stats(ctx context.Context) Stats {
	var st Stats
	for _, a := range s.UserApplications(ctx) {
		st.Total++
		switch a.Status {
		case models.StatusSelected:
			st.Selected++
		case models.StatusInReview:
			st.Pending++
		case models.StatusRejected:
			st.Rejected++
		}
	}

	return st
}

func filterOwned(apps []models.Application, user *models.Credential) []models.Application {
	if user == nil {
		return []models.Application{}
	}

	owned := make([]models.Application, 0, len(apps))
	for _, a := range apps {
		if ownedBy(a, user) {
			owned = append(owned, a)
		}
	}

	return owned
}

// ownedBy tolerates the historic owner fields some records carry instead
// of userEmail.
func ownedBy(a models.Application, user *models.Credential) bool {
	if a.UserEmail != "" && a.UserEmail == user.Email {
		return true
	}
	if e := a.ExtraString("applicantEmail"); e != "" && e == user.Email {
		return true
	}
	if u := a.ExtraString("username"); u != "" && u == user.Username {
		return true
	}

	return false
}
