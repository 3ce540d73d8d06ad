package schedule

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

const specSeparator = ";"

// ParseSpecs splits a schedule of one or more cron expressions separated by
// semicolons and validates each one. Empty entries are ignored; duplicates
// are rejected.
//
//	"0 2 * * *;30 14 * * 1-5"
func ParseSpecs(schedule string) ([]string, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil, fmt.Errorf("%w: schedule cannot be empty", ErrInvalidCronSpec)
	}

	var specs []string
	for _, spec := range strings.Split(schedule, specSeparator) {
		spec = strings.Join(strings.Fields(spec), " ")
		if spec == "" {
			continue
		}
		if slices.Contains(specs, spec) {
			return nil, fmt.Errorf("%w: duplicate expression %q", ErrInvalidCronSpec, spec)
		}
		if _, err := parser.Parse(spec); err != nil {
			return nil, errors.Join(ErrInvalidCronSpec, fmt.Errorf("expression %q: %w", spec, err))
		}
		specs = append(specs, spec)
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no expressions in %q", ErrInvalidCronSpec, schedule)
	}
	return specs, nil
}
