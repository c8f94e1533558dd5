package perfctl

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/perfboard/pkg/logger"
)

// SetupLogging initializes the logger writing to w. Verbose enables debug
// output.
func SetupLogging(w io.Writer, verbose bool) error {
	if err := logger.Init(logger.WithWriter(w)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return logger.SetLevelString("warn")
}

// ShowHelp prints usage information for perfctl.
func ShowHelp() {
	os.Stdout.WriteString(`perfctl
=======

Fetches a report from the evaluation backend, ranks it and prints it.

Usage:
  go run ./cmd/perfctl [options]

Options:
  -url string
        Backend API root (default "http://localhost:8000/api/")
  -token string
        Bearer token (default $PERFBOARD_UPSTREAM_TOKEN)
  -role string
        Role assumed for an opaque token (default "admin")
  -user string
        Log in with this user instead of a token
  -password string
        Password for -user
  -scope string
        weekly, manager, department or summary (default "weekly")
  -week string
        ISO week such as 2025-W10 (default: latest report week)
  -manager string
        Manager id for the manager scope
  -department string
        Department id for the department scope
  -search string
        Keep rows whose id, name, department or manager match
  -format string
        table or json (default "table")
  -verify
        Check the dense-rank ordering of the result
  -timeout duration
        Backend request timeout (default 30s)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Latest weekly report
  go run ./cmd/perfctl -token $TOKEN

  # One manager's team for a given week, verified, as JSON
  go run ./cmd/perfctl -token $TOKEN -scope manager -manager 17 -week 2025-W10 -verify -format json
`)
}
