package models

import (
	"strconv"
	"time"
)

// Credential is a registered user's login identity. The hash is stored under
// the legacy "password" key of the persisted credential collection.
type Credential struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password,omitempty"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
}

// Snapshot returns a copy safe to persist as the session user snapshot.
func (c Credential) Snapshot() Credential {
	c.PasswordHash = ""
	return c
}

// Status is the review state of an application record.
type Status string

const (
	StatusInReview Status = "IN-REVIEW"
	StatusReviewed Status = "REVIEWED"
	StatusSelected Status = "SELECTED"
	StatusRejected Status = "REJECTED"
)

// Terminal reports whether the status freezes the record against further
// automatic transitions.
func (s Status) Terminal() bool {
	return s == StatusSelected || s == StatusRejected
}

// parseAppliedDate accepts the date shapes found in persisted records:
// RFC 3339 strings (with or without sub-second precision), bare dates and
// epoch milliseconds.
func parseAppliedDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, d); err == nil {
				return t, true
			}
		}
	case float64:
		return time.UnixMilli(int64(d)), true
	}
	return time.Time{}, false
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}
