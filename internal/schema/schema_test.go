package schema_test

import (
	"context"
	"testing"
	"time"

	"github.com/jobdeck/jobdeck/internal/schema"
	"github.com/jobdeck/jobdeck/pkg/models"
)

func TestValidApplication(t *testing.T) {
	v, err := schema.New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name string
		app  models.Application
		want bool
	}{
		{
			name: "complete record",
			app: models.Application{
				ID: "1", JobTitle: "Backend Engineer", Company: "Acme",
				Status: models.StatusInReview, DateApplied: time.Now(),
				UserEmail: "john@test.com",
			},
			want: true,
		},
		{
			name: "missing job title",
			app:  models.Application{ID: "2", Company: "Acme", Status: models.StatusInReview, DateApplied: time.Now()},
			want: false,
		},
		{
			name: "missing company",
			app:  models.Application{ID: "3", JobTitle: "SRE", Status: models.StatusInReview, DateApplied: time.Now()},
			want: false,
		},
		{
			name: "unknown status",
			app: models.Application{
				ID: "4", JobTitle: "SRE", Company: "Acme",
				Status: models.Status("SHORTLISTED"), DateApplied: time.Now(),
			},
			want: false,
		},
		{
			name: "extra fields tolerated",
			app: models.Application{
				ID: "5", JobTitle: "SRE", Company: "Acme",
				Status: models.StatusSelected, DateApplied: time.Now(),
				Extra: map[string]any{"applicantEmail": "john@test.com"},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.ValidApplication(ctx, tt.app); got != tt.want {
				t.Errorf("ValidApplication() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidProfile(t *testing.T) {
	v, err := schema.New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name    string
		profile models.Profile
		want    bool
	}{
		{
			name:    "minimal document",
			profile: models.Profile{Username: "john"},
			want:    true,
		},
		{
			name:    "missing username",
			profile: models.Profile{FullName: "John Doe", Email: "john@test.com"},
			want:    false,
		},
		{
			name: "full document",
			profile: models.Profile{
				Username: "john", FullName: "John Doe", Email: "john@test.com",
				Skills: []string{"Go", "SQL"},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.ValidProfile(ctx, tt.profile); got != tt.want {
				t.Errorf("ValidProfile() = %v, want %v", got, tt.want)
			}
		})
	}
}
