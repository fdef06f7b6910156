// Package services defines the business logic for doubts and replies.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

// Doubt-related errors.
var (
	// ErrDoubtNotFound indicates that the requested doubt does not exist.
	ErrDoubtNotFound = errors.New("doubt not found")

	// ErrEmptyContent is returned when a doubt or reply is submitted with
	// no content after trimming.
	ErrEmptyContent = errors.New("content is empty")

	// ErrTooLong is returned when a doubt or reply exceeds the maximum
	// configured length limit.
	ErrTooLong = errors.New("content too long")

	// ErrNotOwner is returned when a student attempts to act on a doubt
	// they did not ask.
	ErrNotOwner = errors.New("doubt belongs to another student")

	// ErrAlreadyResolved is returned when an operation requires a doubt
	// that is still on the ladder but the doubt has already reached its
	// terminal status.
	ErrAlreadyResolved = errors.New("doubt already resolved")

	// ErrInvalidState is returned when an operation is only defined for a
	// specific status and the doubt has moved past it, for example marking
	// an answer solved after the doubt already escalated to the forum.
	ErrInvalidState = errors.New("doubt is not in a state that allows this operation")

	// ErrStateChanged is returned when the doubt's status changed between
	// reading it and applying the transition. The caller saw a stale
	// snapshot and should re-fetch.
	ErrStateChanged = errors.New("doubt state changed concurrently")

	// ErrInvalidRole is returned when a reply carries a role outside the
	// allowed set (student, senior, professor).
	ErrInvalidRole = errors.New("invalid replier role")

	// ErrEmptyCourse is returned when a doubt is asked without a course.
	ErrEmptyCourse = errors.New("course id is empty")

	// ErrInvalidStatusFilter is returned when a list request filters on a
	// status outside the known set.
	ErrInvalidStatusFilter = errors.New("invalid status filter")
)
