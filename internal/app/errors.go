package service

import "errors"

// Sentinel errors returned by the Service.
var (
	ErrRunInProgress   = errors.New("sync already running for calendar")
	ErrEmptyCalendarID = errors.New("calendar id is required")
	ErrQueueFull       = errors.New("sync queue is full")
	ErrNotStarted      = errors.New("service not started")
	ErrNoCalendars     = errors.New("no calendars configured")
	ErrStopped         = errors.New("service stopped")
)
