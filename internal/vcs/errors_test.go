package vcs

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorIsMapsCodeToSentinel(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		sentinel error
	}{
		{CodeAuthenticationFailed, ErrAuthenticationFailed},
		{CodeDirtyWorkTree, ErrDirtyWorkTree},
		{CodePushRejected, ErrPushRejected},
		{CodeBranchNotFullyMerged, ErrBranchNotFullyMerged},
		{CodeConflict, ErrConflicts},
		{CodeNoUpstreamBranch, ErrNoUpstream},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &Error{Op: "git", Code: tt.code})
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false, want true", err, tt.sentinel)
			}
			if got := CodeOf(err); got != tt.code {
				t.Errorf("CodeOf() = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestErrorUnknownCode(t *testing.T) {
	err := &Error{Op: "git status", Stderr: "fatal: something odd\n", Err: errors.New("exit status 128")}

	if errors.Is(err, ErrConflicts) {
		t.Error("unknown code should not match sentinels")
	}
	if CodeOf(err) != CodeUnknown {
		t.Errorf("CodeOf() = %q, want unknown", CodeOf(err))
	}
	if StderrOf(err) != "fatal: something odd\n" {
		t.Errorf("StderrOf() = %q", StderrOf(err))
	}
	if got, want := err.Error(), "git status failed: exit status 128\nfatal: something odd"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCodeOfSentinel(t *testing.T) {
	if got := CodeOf(fmt.Errorf("pull: %w", ErrConflicts)); got != CodeConflict {
		t.Errorf("CodeOf(ErrConflicts) = %q, want %q", got, CodeConflict)
	}
	if got := CodeOf(nil); got != CodeUnknown {
		t.Errorf("CodeOf(nil) = %q", got)
	}
}

func TestClassification(t *testing.T) {
	if !IsRetryable(ErrPushRejected) || IsRetryable(nil) || IsRetryable(ErrConflicts) {
		t.Error("IsRetryable classification mismatch")
	}
	if !IsUserActionRequired(&Error{Code: CodeAuthenticationFailed}) {
		t.Error("authentication failures require user action")
	}
	if IsUserActionRequired(ErrTimeout) {
		t.Error("timeouts do not require user action")
	}
	if !IsFatal(ErrNotInVCS) || !IsFatal(ErrVCSNotAvailable) || IsFatal(ErrPushRejected) {
		t.Error("IsFatal classification mismatch")
	}
}
