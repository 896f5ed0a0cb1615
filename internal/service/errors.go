package service

import "errors"

// ErrInvalidRefreshID indicates the refresh ID format is invalid.
var ErrInvalidRefreshID = errors.New("invalid refresh_id")

// ErrNotFound indicates the requested resource was not found.
var ErrNotFound = errors.New("not found")

// ErrInternal indicates an internal server error.
var ErrInternal = errors.New("internal error")

// ErrInternalQueue indicates an internal queue error.
var ErrInternalQueue = errors.New("internal queue error")

// ErrTrackingDisabled is returned when refresh tracking needs a database
// that is not configured.
var ErrTrackingDisabled = errors.New("refresh tracking is disabled")

// ErrLiveUnavailable means a refresh could only produce a degraded rate.
var ErrLiveUnavailable = errors.New("no live or pivot-composed rate available")
