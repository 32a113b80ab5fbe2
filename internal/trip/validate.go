package trip

import (
	"errors"
	"fmt"
	"strings"
)

// MaxTripDays is the longest trip accepted.
const MaxTripDays = 365

// ErrInvalidInput is the sentinel for every rejected Parameters value.
var ErrInvalidInput = errors.New("invalid trip input")

// InputError names the offending field of a rejected trip.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func invalid(field, format string, args ...any) error {
	return &InputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks the parameters before any generation work starts.
func (p Parameters) Validate() error {
	if strings.TrimSpace(p.Destination) == "" {
		return invalid("destination", "destination is required")
	}

	if p.Dates.Start.IsZero() || p.Dates.End.IsZero() {
		return invalid("dates", "start and end dates are required")
	}

	if truncateDay(p.Dates.End).Before(truncateDay(p.Dates.Start)) {
		return invalid("dates", "end date %s is before start date %s",
			p.Dates.End.Format(DateLayout), p.Dates.Start.Format(DateLayout))
	}

	days := p.Dates.Days()
	if days < 1 {
		return invalid("dates", "trip duration must be at least 1 day")
	}
	if days > MaxTripDays {
		return invalid("dates", "trip duration of %d days exceeds %d", days, MaxTripDays)
	}

	if !isValidBudget(p.Preferences.Budget) {
		return invalid("budget_level", "%q is not one of: %s", p.Preferences.Budget, joinBudgets())
	}

	if !isValidPace(p.Preferences.Pace) {
		return invalid("pace_preference", "%q is not one of: %s", p.Preferences.Pace, joinPaces())
	}

	return nil
}

func isValidBudget(b BudgetTier) bool {
	for _, v := range ValidBudgetTiers() {
		if v == b {
			return true
		}
	}
	return false
}

func isValidPace(p Pace) bool {
	for _, v := range ValidPaces() {
		if v == p {
			return true
		}
	}
	return false
}

func joinBudgets() string {
	parts := make([]string, 0, 3)
	for _, b := range ValidBudgetTiers() {
		parts = append(parts, string(b))
	}
	return strings.Join(parts, ", ")
}

func joinPaces() string {
	parts := make([]string, 0, 3)
	for _, p := range ValidPaces() {
		parts = append(parts, string(p))
	}
	return strings.Join(parts, ", ")
}
