package perfctl

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/perfboard/internal/adapters/upstream"
	service "github.com/okian/perfboard/internal/app"
	"github.com/okian/perfboard/internal/session"
	"github.com/okian/perfboard/pkg/logger"
)

// Run builds the configured report and writes it to out.
func Run(ctx context.Context, cfg *Config, out io.Writer) error {
	scope, week, filter, err := cfg.request()
	if err != nil {
		return err
	}
	log := logger.Named("perfctl")

	opts := []upstream.Option{upstream.WithLogger(log)}
	if cfg.Timeout > 0 {
		opts = append(opts, upstream.WithTimeout(cfg.Timeout))
	}
	if cfg.PageSize > 0 {
		opts = append(opts, upstream.WithPageSize(cfg.PageSize))
	}
	client, err := upstream.New(cfg.BaseURL, opts...)
	if err != nil {
		return err
	}

	sess, err := authenticate(ctx, client, cfg)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	svc := service.New(client, service.WithLogger(log))
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	log.Debug(ctx, "building report",
		logger.String("baseURL", cfg.BaseURL),
		logger.String("scope", string(scope)),
		logger.String("user", sess.Username),
		logger.String("role", string(sess.Role)))

	report, err := svc.Report(ctx, sess, service.ReportRequest{
		Scope:  scope,
		Week:   week,
		Filter: filter,
		ViewID: uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("report failed: %w", err)
	}

	if cfg.Verify {
		if err := verifyReport(ctx, report.Records, filter.Search != "", cfg.Verbose); err != nil {
			return err
		}
	}

	if strings.EqualFold(cfg.Format, FormatJSON) {
		return writeJSON(out, report)
	}
	return writeTable(out, report)
}

// authenticate logs in when a user is configured, otherwise wraps the token.
// A token that is not a readable JWT gets cfg.Role.
func authenticate(ctx context.Context, client *upstream.Client, cfg *Config) (session.Session, error) {
	if cfg.Username != "" {
		return client.Login(ctx, cfg.Username, cfg.Password)
	}
	if s, err := session.FromToken(cfg.Token); err == nil {
		return s, nil
	}
	return session.Static(cfg.Token, session.ParseRole(cfg.Role)), nil
}
