package admin

import (
	"testing"
	"time"

	"github.com/kirinyoku/tixgo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validEvent() CreateEventInput {
	return CreateEventInput{
		Title:    "Winter Fest",
		StartsAt: time.Date(2025, 12, 20, 18, 0, 0, 0, time.UTC),
		Days: []domain.EventDay{
			{DayNumber: 1},
			{DayNumber: 2},
		},
		Passes: []domain.Pass{
			{Name: "Festival", PriceMinor: 150000},
			{Name: "Day 2", DayNumber: 2, PriceMinor: 99900},
		},
	}
}

func TestValidateEvent(t *testing.T) {
	require.NoError(t, validateEvent(validEvent()))

	tests := []struct {
		name   string
		mutate func(*CreateEventInput)
		field  string
	}{
		{"no title", func(in *CreateEventInput) { in.Title = "  " }, "title"},
		{"no start", func(in *CreateEventInput) { in.StartsAt = time.Time{} }, "starts_at"},
		{"no passes", func(in *CreateEventInput) { in.Passes = nil }, "passes"},
		{"day zero", func(in *CreateEventInput) { in.Days[0].DayNumber = 0 }, "days"},
		{"duplicate day", func(in *CreateEventInput) { in.Days[1].DayNumber = 1 }, "days"},
		{"pass without name", func(in *CreateEventInput) { in.Passes[0].Name = "" }, "passes"},
		{"negative price", func(in *CreateEventInput) { in.Passes[0].PriceMinor = -1 }, "passes"},
		{"pass on unknown day", func(in *CreateEventInput) { in.Passes[1].DayNumber = 3 }, "passes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validEvent()
			tt.mutate(&in)

			var ve *domain.ValidationError
			require.ErrorAs(t, validateEvent(in), &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}
