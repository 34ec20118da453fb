package model

import (
	"fmt"
	"time"
)

// SyncRunResult is returned to the caller of a batch sync.
type SyncRunResult struct {
	Success bool `json:"success"`

	CalendarID string `json:"calendarId,omitempty"`

	// Synced counts normalized events, i.e. after unresolvable objects
	// were dropped.
	Synced  int `json:"synced"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	// Errors counts events whose reconciliation failed.
	Errors int `json:"errors"`
	// Skipped counts raw objects dropped because no slug could be resolved.
	Skipped int `json:"skipped"`

	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// FailedRun builds the result of a run that aborted before extraction.
func FailedRun(calendarID string, err error) SyncRunResult {
	return SyncRunResult{
		Success:    false,
		CalendarID: calendarID,
		Error:      err.Error(),
	}
}

// Summary renders the human readable message for a successful run.
func (r SyncRunResult) Summary() string {
	msg := fmt.Sprintf("Synced %d events from %s (%d created, %d updated)", r.Synced, r.CalendarID, r.Created, r.Updated)
	if r.Errors > 0 {
		msg += fmt.Sprintf(", %d failed", r.Errors)
	}
	if r.Skipped > 0 {
		msg += fmt.Sprintf(", %d skipped", r.Skipped)
	}
	return msg
}

// EventMetadata is what the single-URL extractor returns for admin review.
type EventMetadata struct {
	Slug        string       `json:"slug"`
	Title       string       `json:"title"`
	Description *string      `json:"description"`
	StartDate   *string      `json:"startDate"`
	EndDate     *string      `json:"endDate"`
	Location    *string      `json:"location"`
	Coordinates *Coordinates `json:"coordinates"`
	CoverImage  *string      `json:"coverImage"`
	Timezone    string       `json:"timezone"`
	EventType   string       `json:"eventType"`
	Hosts       []string     `json:"hosts"`
	SourceURL   string       `json:"sourceUrl"`
}

// SyncRequest asks for one asynchronous run of a calendar.
type SyncRequest struct {
	CalendarID  string    `json:"calendarId"`
	RequestedAt time.Time `json:"requestedAt"`
}
