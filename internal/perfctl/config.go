package perfctl

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/perfboard/internal/domain/isoweek"
	"github.com/okian/perfboard/internal/domain/model"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// ErrInvalidConfig is returned for unusable command-line settings.
var ErrInvalidConfig = errors.New("perfctl: invalid configuration")

// ErrVerification is returned when a report breaks the dense-rank ordering.
var ErrVerification = errors.New("perfctl: verification failed")

// Config holds configuration for one report run
type Config struct {
	BaseURL    string        // Backend API root
	Token      string        // Bearer token; ignored when Username is set
	Role       string        // Role assumed for an opaque token
	Username   string        // Login user
	Password   string        // Login password
	Scope      string        // Report scope
	Week       string        // ISO week, empty for the latest report week
	Manager    string        // Manager id for the manager scope
	Department string        // Department id for the department scope
	Search     string        // Search term applied after ranking
	Format     string        // table or json
	Verify     bool          // Check the dense-rank ordering
	Timeout    time.Duration // Per-request timeout
	PageSize   int           // Backend page size
	Verbose    bool          // Log the score summary
}

// request validates c and turns it into the service's report parameters.
func (c *Config) request() (model.Scope, isoweek.WeekKey, model.Filter, error) {
	if c.BaseURL == "" {
		return "", isoweek.WeekKey{}, model.Filter{}, fmt.Errorf("%w: -url is required", ErrInvalidConfig)
	}
	if c.Token == "" && c.Username == "" {
		return "", isoweek.WeekKey{}, model.Filter{}, fmt.Errorf("%w: -token or -user is required", ErrInvalidConfig)
	}
	switch strings.ToLower(c.Format) {
	case "", FormatTable, FormatJSON:
	default:
		return "", isoweek.WeekKey{}, model.Filter{}, fmt.Errorf("%w: -format %q", ErrInvalidConfig, c.Format)
	}

	scope, err := model.ParseScope(c.Scope)
	if err != nil || !scope.Ranked() {
		return "", isoweek.WeekKey{}, model.Filter{}, fmt.Errorf("%w: -scope %q", ErrInvalidConfig, c.Scope)
	}

	var week isoweek.WeekKey
	if c.Week != "" {
		if week, err = isoweek.Parse(c.Week); err != nil {
			return "", isoweek.WeekKey{}, model.Filter{}, fmt.Errorf("%w: -week: %w", ErrInvalidConfig, err)
		}
	}

	return scope, week, model.Filter{Manager: c.Manager, Department: c.Department, Search: c.Search}, nil
}
