package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

var metricNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,39}$`)

// ValidateIdea validates a business idea description
func ValidateIdea(idea string) error {
	trimmed := strings.TrimSpace(idea)

	if trimmed == "" {
		return errors.New("business idea is required")
	}

	if utf8.RuneCountInString(trimmed) > 500 {
		return errors.New("business idea is too long (max 500 characters)")
	}

	return nil
}

// ValidateGoal validates a goal description
func ValidateGoal(description string) error {
	trimmed := strings.TrimSpace(description)

	if trimmed == "" {
		return errors.New("goal description is required")
	}

	if utf8.RuneCountInString(trimmed) > 280 {
		return errors.New("goal description is too long (max 280 characters)")
	}

	return nil
}

// ValidateMetricName accepts short snake_case names like customers or mrr_usd
func ValidateMetricName(name string) error {
	if !metricNamePattern.MatchString(name) {
		return errors.New("metric name must be lowercase letters, digits or _ (max 40)")
	}
	return nil
}

// ValidateTimezone accepts IANA zone names
func ValidateTimezone(name string) error {
	if name == "" {
		return errors.New("timezone is required")
	}
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("unknown timezone %q (use a name like Europe/Berlin)", name)
	}
	return nil
}

// ValidateHour validates a local hour of day
func ValidateHour(hour int) error {
	if hour < 0 || hour > 23 {
		return errors.New("hour must be between 0 and 23")
	}
	return nil
}
