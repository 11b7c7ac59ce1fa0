package vcs

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by VCS operations.
//
// These errors can be checked using errors.Is() for proper error handling:
//
//	if errors.Is(err, vcs.ErrPushRejected) {
//	    // Suggest pulling first
//	}
var (
	// ErrNotInVCS is returned when the operation requires being inside
	// a repository but none was found.
	ErrNotInVCS = errors.New("not in a VCS repository")

	// ErrVCSNotAvailable is returned when the VCS binary is not
	// installed or not in PATH.
	ErrVCSNotAvailable = errors.New("VCS binary not available")

	// ErrRefExists is returned when attempting to create a reference
	// that already exists.
	ErrRefExists = errors.New("reference already exists")

	// ErrRefNotFound is returned when attempting to operate on
	// a reference that doesn't exist.
	ErrRefNotFound = errors.New("reference not found")

	// ErrInvalidRefName is returned for names git refuses as references.
	ErrInvalidRefName = errors.New("invalid reference name")

	// ErrNoRemote is returned when an operation requires a remote
	// but none is configured.
	ErrNoRemote = errors.New("no remote configured")

	// ErrNoUpstream is returned when HEAD does not track a remote branch.
	ErrNoUpstream = errors.New("no upstream branch")

	// ErrConflicts is returned when an operation cannot complete
	// due to unresolved conflicts.
	ErrConflicts = errors.New("unresolved conflicts")

	// ErrDirtyWorkTree is returned when an operation would overwrite
	// uncommitted changes in the working tree.
	ErrDirtyWorkTree = errors.New("working tree has uncommitted changes")

	// ErrDetached is returned when an operation requires being on
	// a branch but HEAD is detached.
	ErrDetached = errors.New("not on a branch")

	// ErrPushRejected is returned when a push is rejected by the remote,
	// typically due to non-fast-forward updates.
	ErrPushRejected = errors.New("push rejected by remote")

	// ErrAuthenticationFailed is returned when the remote refused the
	// credentials.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrBranchNotFullyMerged is returned when deleting a branch whose
	// commits are not reachable from HEAD.
	ErrBranchNotFullyMerged = errors.New("branch not fully merged")

	// ErrNoLocalChanges is returned when stashing a clean working tree.
	ErrNoLocalChanges = errors.New("no local changes")

	// ErrStashConflict is returned when popping a stash conflicts.
	ErrStashConflict = errors.New("stash conflict")

	// ErrRemoteUnreachable is returned when the remote cannot be accessed.
	ErrRemoteUnreachable = errors.New("remote unreachable")

	// ErrTimeout is returned when a VCS operation exceeds its timeout.
	ErrTimeout = errors.New("operation timed out")
)

// ErrorCode is a backend-independent classification of a failed command.
type ErrorCode string

const (
	CodeUnknown              ErrorCode = ""
	CodeNotAGitRepository    ErrorCode = "NotAGitRepository"
	CodeAuthenticationFailed ErrorCode = "AuthenticationFailed"
	CodeRemoteUnreachable    ErrorCode = "CantAccessRemote"
	CodeDirtyWorkTree        ErrorCode = "DirtyWorkTree"
	CodePushRejected         ErrorCode = "PushRejected"
	CodeBranchNotFullyMerged ErrorCode = "BranchNotFullyMerged"
	CodeBranchAlreadyExists  ErrorCode = "BranchAlreadyExists"
	CodeInvalidBranchName    ErrorCode = "InvalidBranchName"
	CodeNoRemoteReference    ErrorCode = "NoRemoteReference"
	CodeNoUpstreamBranch     ErrorCode = "NoUpstreamBranch"
	CodeConflict             ErrorCode = "Conflict"
	CodeNoLocalChanges       ErrorCode = "NoLocalChanges"
	CodeStashConflict        ErrorCode = "StashConflict"
	CodeTimeout              ErrorCode = "Timeout"
)

var codeSentinels = map[ErrorCode]error{
	CodeNotAGitRepository:    ErrNotInVCS,
	CodeAuthenticationFailed: ErrAuthenticationFailed,
	CodeRemoteUnreachable:    ErrRemoteUnreachable,
	CodeDirtyWorkTree:        ErrDirtyWorkTree,
	CodePushRejected:         ErrPushRejected,
	CodeBranchNotFullyMerged: ErrBranchNotFullyMerged,
	CodeBranchAlreadyExists:  ErrRefExists,
	CodeInvalidBranchName:    ErrInvalidRefName,
	CodeNoRemoteReference:    ErrRefNotFound,
	CodeNoUpstreamBranch:     ErrNoUpstream,
	CodeConflict:             ErrConflicts,
	CodeNoLocalChanges:       ErrNoLocalChanges,
	CodeStashConflict:        ErrStashConflict,
	CodeTimeout:              ErrTimeout,
}

// Error is a failed backend command.
type Error struct {
	// Op is the backend operation (e.g., "push")
	Op string

	// Args are the command arguments
	Args []string

	// Code classifies the failure, CodeUnknown when unrecognised
	Code ErrorCode

	// Stderr is the raw diagnostic output
	Stderr string

	// ExitCode is the process exit status, -1 if it never ran
	ExitCode int

	// Err is the underlying error
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s failed", e.Op)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += "\n" + s
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's code.
func (e *Error) Is(target error) bool {
	if s, ok := codeSentinels[e.Code]; ok {
		return s == target
	}
	return false
}

// CodeOf returns the ErrorCode carried by err, or CodeUnknown.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	for code, s := range codeSentinels {
		if errors.Is(err, s) {
			return code
		}
	}
	return CodeUnknown
}

// StderrOf returns the raw diagnostic output carried by err, if any.
func StderrOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Stderr
	}
	return ""
}

// IsRetryable returns true if the error is likely to succeed on retry.
// This is useful for transient network errors or temporary lock conflicts.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Timeouts are often transient
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrRemoteUnreachable) {
		return true
	}

	// Push rejections might succeed after a pull
	if errors.Is(err, ErrPushRejected) {
		return true
	}

	return false
}

// IsUserActionRequired returns true if the error requires user intervention
// to resolve (conflicts, dirty tree, credentials).
func IsUserActionRequired(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrConflicts),
		errors.Is(err, ErrStashConflict),
		errors.Is(err, ErrDirtyWorkTree),
		errors.Is(err, ErrPushRejected),
		errors.Is(err, ErrBranchNotFullyMerged),
		errors.Is(err, ErrAuthenticationFailed):
		return true
	}

	return false
}

// IsFatal returns true if the error indicates a non-recoverable state
// that requires manual intervention or re-initialization.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}

	// Not in VCS means we can't do anything
	if errors.Is(err, ErrNotInVCS) {
		return true
	}

	// Binary not available means we can't execute commands
	if errors.Is(err, ErrVCSNotAvailable) {
		return true
	}

	return false
}
