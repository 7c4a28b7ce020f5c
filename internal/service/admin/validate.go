package admin

import (
	"fmt"
	"strings"

	"github.com/kirinyoku/tixgo/internal/domain"
)

func validateEvent(in CreateEventInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return domain.NewValidationError("title", "is required")
	}

	if in.StartsAt.IsZero() {
		return domain.NewValidationError("starts_at", "is required")
	}

	if len(in.Passes) == 0 {
		return domain.NewValidationError("passes", "at least one pass is required")
	}

	days := make(map[int]bool, len(in.Days))
	for _, d := range in.Days {
		if d.DayNumber < 1 {
			return domain.NewValidationError("days", "day_number must be at least 1")
		}
		if days[d.DayNumber] {
			return domain.NewValidationError("days", fmt.Sprintf("day %d listed twice", d.DayNumber))
		}
		days[d.DayNumber] = true
	}

	for _, p := range in.Passes {
		if strings.TrimSpace(p.Name) == "" {
			return domain.NewValidationError("passes", "name is required")
		}
		if p.PriceMinor < 0 {
			return domain.NewValidationError("passes", "price must not be negative")
		}
		if p.DayNumber < 0 {
			return domain.NewValidationError("passes", "day_number must not be negative")
		}
		if p.DayNumber > 0 && !days[p.DayNumber] {
			return domain.NewValidationError("passes",
				fmt.Sprintf("pass %q refers to unknown day %d", p.Name, p.DayNumber))
		}
	}

	return nil
}
