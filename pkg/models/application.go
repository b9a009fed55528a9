package models

import (
	"encoding/json"
	"time"
)

// Application is one tracked job application. The fixed fields cover the
// schema every consumer relies on; anything else submitted with the
// application form (contact info, expected salary, ...) rides along in
// Extra and is persisted verbatim.
type Application struct {
	ID          string    `json:"id"`
	JobTitle    string    `json:"jobTitle"`
	Company     string    `json:"company"`
	Status      Status    `json:"status"`
	DateApplied time.Time `json:"dateApplied"`
	UserEmail   string    `json:"userEmail,omitempty"`
	LogoURL     string    `json:"logoUrl,omitempty"`
	Resume      string    `json:"resume,omitempty"`
	JobID       string    `json:"jobId,omitempty"`

	Extra map[string]any `json:"-"`
}

var applicationKnownKeys = map[string]struct{}{
	"id": {}, "jobTitle": {}, "company": {}, "status": {},
	"dateApplied": {}, "userEmail": {}, "logoUrl": {}, "resume": {}, "jobId": {},
}

// MarshalJSON flattens Extra next to the fixed fields. Extra never shadows
// a fixed field.
func (a Application) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Extra)+9)
	for k, v := range a.Extra {
		if _, known := applicationKnownKeys[k]; !known {
			out[k] = v
		}
	}

	out["id"] = a.ID
	out["jobTitle"] = a.JobTitle
	out["company"] = a.Company
	out["status"] = a.Status
	if !a.DateApplied.IsZero() {
		out["dateApplied"] = a.DateApplied.Format(time.RFC3339Nano)
	}
	if a.UserEmail != "" {
		out["userEmail"] = a.UserEmail
	}
	if a.LogoURL != "" {
		out["logoUrl"] = a.LogoURL
	}
	if a.Resume != "" {
		out["resume"] = a.Resume
	}
	if a.JobID != "" {
		out["jobId"] = a.JobID
	}

	return json.Marshal(out)
}

// UnmarshalJSON picks the fixed fields out of the document and keeps every
// unknown key in Extra. A dateApplied that fails to parse is left zero for
// the store's normalization pass to fill in.
func (a *Application) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.ID = asString(raw["id"])
	a.JobTitle = asString(raw["jobTitle"])
	a.Company = asString(raw["company"])
	a.Status = Status(asString(raw["status"]))
	a.UserEmail = asString(raw["userEmail"])
	a.LogoURL = asString(raw["logoUrl"])
	a.Resume = asString(raw["resume"])
	a.JobID = asString(raw["jobId"])

	a.DateApplied = time.Time{}
	if v, ok := raw["dateApplied"]; ok {
		if t, ok := parseAppliedDate(v); ok {
			a.DateApplied = t
		}
	}

	a.Extra = nil
	for k, v := range raw {
		if _, known := applicationKnownKeys[k]; known {
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]any)
		}
		a.Extra[k] = v
	}

	return nil
}

// ExtraString returns the named Extra field as a string, or "".
func (a Application) ExtraString(key string) string {
	if a.Extra == nil {
		return ""
	}
	return asString(a.Extra[key])
}
