package git

import (
	"regexp"
	"strings"

	"github.com/Mschirtzinger/stagehand/internal/vcs"
)

// stderrPatterns maps git diagnostics onto error codes. Order matters:
// the first match wins.
var stderrPatterns = []struct {
	re   *regexp.Regexp
	code vcs.ErrorCode
}{
	{regexp.MustCompile(`(?i)Authentication failed|could not read Username|Permission denied \(publickey`), vcs.CodeAuthenticationFailed},
	{regexp.MustCompile(`(?i)Not a git repository`), vcs.CodeNotAGitRepository},
	{regexp.MustCompile(`(?i)unable to access|Could not resolve host|Repository not found`), vcs.CodeRemoteUnreachable},
	{regexp.MustCompile(`branch '.+' is not fully merged`), vcs.CodeBranchNotFullyMerged},
	{regexp.MustCompile(`Couldn't find remote ref`), vcs.CodeNoRemoteReference},
	{regexp.MustCompile(`(?i)a branch named '.+' already exists|tag '.+' already exists`), vcs.CodeBranchAlreadyExists},
	{regexp.MustCompile(`'.+' is not a valid (branch|tag) name`), vcs.CodeInvalidBranchName},
	{regexp.MustCompile(`Please,? commit your changes or stash them|would be overwritten by`), vcs.CodeDirtyWorkTree},
	{regexp.MustCompile(`\[rejected\]|non-fast-forward|failed to push some refs`), vcs.CodePushRejected},
	{regexp.MustCompile(`has no upstream branch|no tracking information`), vcs.CodeNoUpstreamBranch},
	{regexp.MustCompile(`No local changes to save`), vcs.CodeNoLocalChanges},
}

// classify inspects command output and returns the matching error code.
func classify(stdout, stderr string) vcs.ErrorCode {
	for _, p := range stderrPatterns {
		if p.re.MatchString(stderr) {
			return p.code
		}
	}

	// Merge conflicts are reported on stdout
	if strings.Contains(stdout, "CONFLICT") || strings.Contains(stderr, "CONFLICT") {
		return vcs.CodeConflict
	}

	return vcs.CodeUnknown
}
