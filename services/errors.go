// Package services holds the business logic between the HTTP handlers and
// the database: OTP login, group membership and invites, habit tasks, and
// the activity feed. Every exported operation returns one of the sentinel
// errors below (possibly wrapped) so handlers can map failures to HTTP
// statuses without inspecting strings.
package services

import (
	"errors"
	"fmt"
)

var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrValidation          = errors.New("validation failed")
	ErrNoGroup             = errors.New("no group found for user")
	ErrAlreadyInGroup      = errors.New("already a member of a group")
	ErrMultipleMemberships = errors.New("user belongs to more than one group")
	ErrInviteInvalid       = errors.New("invalid or expired invite code")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")

	ErrCodeMismatch    = errors.New("incorrect verification code")
	ErrCodeExpired     = errors.New("verification code expired")
	ErrTooManyAttempts = errors.New("too many verification attempts")
)

// CreateGroupError reports which step of the two-step group creation failed.
// Step is "group_insert", "member_insert" or "rollback"; a "rollback" error
// means the compensating delete itself failed and an orphan group may exist.
type CreateGroupError struct {
	Step string
	Err  error
}

func (e *CreateGroupError) Error() string {
	return fmt.Sprintf("create group: step %s failed: %v", e.Step, e.Err)
}

func (e *CreateGroupError) Unwrap() error {
	return e.Err
}
