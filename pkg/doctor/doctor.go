// Package doctor audits a repository against the deployment checklist:
// credentials, ignore rules, process files and env profile conventions.
package doctor

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shipenv/shipenv/pkg/platform"
)

// Status classifies a check outcome.
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Result is the outcome of a single check.
type Result struct {
	Check  string `json:"check"`
	Status Status `json:"status"`
	Detail string `json:"detail,omitempty"`
	Remedy string `json:"remedy,omitempty"`
}

// Config points the checks at a repository.
type Config struct {
	// Dir is the repository root to audit.
	Dir string
	// CredentialsFile is the service account key path. Empty means discover
	// a candidate *.json in Dir.
	CredentialsFile string
	// Profile is the env profile file to audit. Empty means Dir/.env.
	Profile string
	// Platform supplies per-platform conventions and limits.
	Platform platform.Platform
	// Entrypoint is the application entry file scanned for PORT handling.
	Entrypoint string
}

type check struct {
	name string
	run  func(cfg Config) Result
}

var checks = []check{
	{"credentials", checkCredentials},
	{"gitignore", checkGitignore},
	{"tracked", checkTracked},
	{"procfile", checkProcfile},
	{"runtime", checkRuntime},
	{"requirements", checkRequirements},
	{"port-binding", checkPortBinding},
	{"profile", checkProfile},
	{"env-size", checkEnvSize},
}

// Run executes every check against cfg and returns the results in a stable
// order.
func Run(cfg Config) []Result {
	if cfg.Entrypoint == "" {
		cfg.Entrypoint = "app.py"
	}
	results := make([]Result, 0, len(checks))
	for _, c := range checks {
		r := c.run(cfg)
		r.Check = c.name
		results = append(results, r)
	}
	return results
}

// Failed reports whether any check failed outright.
func Failed(results []Result) bool {
	for _, r := range results {
		if r.Status == StatusFail {
			return true
		}
	}
	return false
}

// WriteTable renders results for a terminal.
func WriteTable(w io.Writer, results []Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, r := range results {
		line := fmt.Sprintf("%s\t%s\t%s", statusGlyph(r.Status), r.Check, r.Detail)
		if r.Remedy != "" && r.Status != StatusOK {
			line += "\t→ " + r.Remedy
		}
		fmt.Fprintln(tw, line)
	}
	return tw.Flush()
}

// WriteJSON renders results for scripts.
func WriteJSON(w io.Writer, results []Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func statusGlyph(s Status) string {
	switch s {
	case StatusOK:
		return "ok  "
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "FAIL"
	default:
		return "skip"
	}
}
