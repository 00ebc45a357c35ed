// Package services defines the business logic for sightings, cats, matching,
// analysis, insights, and location normalization. This file centralizes
// common service-level error values so that they can be consistently returned
// by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Sighting-related errors.
var (
	// ErrEntryNotFound indicates that the requested sighting does not exist.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrEmptyText is returned when a request to create a sighting contains
	// an empty note.
	ErrEmptyText = errors.New("text is empty")

	// ErrTextTooLong is returned when a sighting note exceeds the maximum
	// configured length limit.
	ErrTextTooLong = errors.New("text too long")
)

// Cat-related errors.
var (
	// ErrCatNotFound indicates that the requested cat does not exist.
	ErrCatNotFound = errors.New("cat not found")

	// ErrEmptyName is returned when a cat rename request contains a blank name.
	ErrEmptyName = errors.New("name is empty")

	// ErrNoSightingIDs is returned when a link or create-from-sightings
	// request names no entries at all.
	ErrNoSightingIDs = errors.New("no sighting ids provided")
)

// Matching-related errors.
var (
	// ErrNoCoordinates is returned when a nearby query is made for an entry
	// whose location has not been geocoded yet.
	ErrNoCoordinates = errors.New("entry has no coordinates")
)

// Analysis and insight errors.
var (
	// ErrAnalysisNotFound indicates that no cached analysis exists for the entry.
	ErrAnalysisNotFound = errors.New("analysis not found")

	// ErrInvalidMode is returned when an insight request names an unknown mode.
	ErrInvalidMode = errors.New("invalid insight mode")

	// ErrNoSightings is returned when an insight is requested for a cat that
	// has no assigned sightings to draw on.
	ErrNoSightings = errors.New("cat has no sightings")
)
