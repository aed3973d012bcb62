package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalid is wrapped by every ValidationError.
var ErrInvalid = errors.New("invalid configuration")

// ValidationError names a single offending option.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

// Validate reports option values the summary pipeline cannot run with.
// Callers treat a non-nil result as enable_summary=false.
func (c *Config) Validate() error {
	if c == nil {
		return &ValidationError{Field: "config", Reason: "missing"}
	}

	var errs []error
	if c.Summary.Timeout < 0 {
		errs = append(errs, &ValidationError{Field: "summary.timeout", Reason: "must be positive seconds"})
	}
	if c.Summary.MaxRetries != nil && *c.Summary.MaxRetries < 0 {
		errs = append(errs, &ValidationError{Field: "summary.max_retries", Reason: "must not be negative"})
	}
	if c.Summary.MaxConcurrency < 0 {
		errs = append(errs, &ValidationError{Field: "summary.max_concurrency", Reason: "must not be negative"})
	}
	if err := validateServiceURL(c.SummaryServiceURL()); err != nil {
		errs = append(errs, err)
	}
	for _, g := range c.Summary.BlacklistGroups {
		if strings.TrimSpace(g) == "" {
			errs = append(errs, &ValidationError{Field: "summary.blacklist_groups", Reason: "contains an empty group ID"})
			break
		}
	}
	return errors.Join(errs...)
}

func validateServiceURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: "summary.service_url", Reason: err.Error()}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: "summary.service_url", Reason: "must be an absolute http(s) URL"}
	}
	return nil
}
