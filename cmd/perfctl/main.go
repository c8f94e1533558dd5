package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/perfboard/internal/perfctl"
)

// Default configuration constants.
const (
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:8000/api/", "Backend API root")
		token      = flag.String("token", os.Getenv("PERFBOARD_UPSTREAM_TOKEN"), "Bearer token")
		role       = flag.String("role", "admin", "Role assumed for an opaque token")
		username   = flag.String("user", "", "Log in with this user instead of a token")
		password   = flag.String("password", "", "Password for -user")
		scope      = flag.String("scope", "weekly", "Report scope: weekly, manager, department or summary")
		week       = flag.String("week", "", "ISO week such as 2025-W10 (default: latest report week)")
		manager    = flag.String("manager", "", "Manager id for the manager scope")
		department = flag.String("department", "", "Department id for the department scope")
		search     = flag.String("search", "", "Search term applied after ranking")
		format     = flag.String("format", perfctl.FormatTable, "Output format: table or json")
		verify     = flag.Bool("verify", false, "Check the dense-rank ordering of the result")
		timeout    = flag.Duration("timeout", defaultTimeout, "Backend request timeout")
		pageSize   = flag.Int("page-size", 0, "Backend page size (default: client default)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		perfctl.ShowHelp()
		return
	}

	if err := perfctl.SetupLogging(os.Stderr, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg := &perfctl.Config{
		BaseURL:    *baseURL,
		Token:      *token,
		Role:       *role,
		Username:   *username,
		Password:   *password,
		Scope:      *scope,
		Week:       *week,
		Manager:    *manager,
		Department: *department,
		Search:     *search,
		Format:     *format,
		Verify:     *verify,
		Timeout:    *timeout,
		PageSize:   *pageSize,
		Verbose:    *verbose,
	}

	if err := perfctl.Run(ctx, cfg, os.Stdout); err != nil {
		os.Stderr.WriteString("perfctl: " + err.Error() + "\n")
		os.Exit(1)
	}
}
