package commands

import (
	"errors"
	"regexp"
	"strings"

	"github.com/Mschirtzinger/stagehand/internal/staging"
	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

// OpenLogChoice is offered with every error message.
const OpenLogChoice = "Open Git Log"

// GenericErrorMessage is shown when an error carries no usable text.
const GenericErrorMessage = "Git error"

// Failure is a command error that has already been shown to the user.
type Failure struct {
	Command string
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Command + ": " + f.Message }

func (f *Failure) Unwrap() error { return f.Err }

var (
	errorPrefix = regexp.MustCompile(`(?mi)^error: `)
	huskyLine   = regexp.MustCompile(`(?mi)^> husky.*$`)
	lineBreak   = regexp.MustCompile(`[\r\n]`)
)

// ErrorMessage returns the user-facing message for err.
func ErrorMessage(err error) string {
	var ie *staging.InvariantError
	switch {
	case errors.As(err, &ie):
		return "Internal error: " + ie.Error()
	case errors.Is(err, vcs.ErrDirtyWorkTree):
		return "Please clean your repository working tree before checkout."
	case errors.Is(err, vcs.ErrPushRejected):
		return "Can't push refs to remote. Try running 'Pull' first to integrate your changes."
	case errors.Is(err, vcs.ErrAuthenticationFailed):
		return "Authentication failed. Check the credentials for the remote."
	}

	if hint := errorHint(err); hint != "" {
		return "Git: " + hint
	}
	return GenericErrorMessage
}

// errorHint is the first non-empty line of the backend's diagnostic
// output, or of the error text, with known noise removed.
func errorHint(err error) string {
	raw := vcs.StderrOf(err)
	if strings.TrimSpace(raw) == "" {
		raw = err.Error()
	}
	raw = replaceFirst(errorPrefix, raw, "")
	raw = replaceFirst(huskyLine, raw, "")

	for _, line := range lineBreak.Split(raw, -1) {
		if strings.TrimSpace(line) != "" {
			return line
		}
	}
	return ""
}

func replaceFirst(re *regexp.Regexp, s, repl string) string {
	loc := re.FindStringIndex(s)
	if loc == nil {
		return s
	}
	return s[:loc[0]] + repl + s[loc[1]:]
}
