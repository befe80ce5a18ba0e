// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no session matches an id or prefix.
	ErrNotFound = errors.New("session not found")

	// ErrAmbiguousID is returned when an id prefix matches more than one session.
	ErrAmbiguousID = errors.New("session id prefix is ambiguous")

	// ErrProjectNotFound is returned when a project file does not exist.
	ErrProjectNotFound = errors.New("project not found")
)

// DecodeError reports a persisted document that could not be parsed.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// MirrorError reports that the session registry was written but the
// mirrored project record was not. The two records disagree until the next
// successful write or a Recover.
type MirrorError struct {
	SessionID string
	ProjectID string
	Err       error
}

func (e *MirrorError) Error() string {
	if e.ProjectID == "" {
		return fmt.Sprintf("session %s saved without a project mirror: %v", e.SessionID, e.Err)
	}
	return fmt.Sprintf("session %s saved but project %s was not updated: %v", e.SessionID, e.ProjectID, e.Err)
}

func (e *MirrorError) Unwrap() error { return e.Err }
