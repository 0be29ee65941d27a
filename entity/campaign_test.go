package entity

import (
	"phishsim/pkg/goutil"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestCampaign(startDate, endDate, startTime, endTime string) *Campaign {
	c := &Campaign{
		StartDate: goutil.String(startDate),
		EndDate:   goutil.String(endDate),
	}
	if startTime != "" {
		c.StartTime = goutil.String(startTime)
	}
	if endTime != "" {
		c.EndTime = goutil.String(endTime)
	}
	return c
}

func TestEffectiveStartDefaultsToStartOfDay(t *testing.T) {
	c := newTestCampaign("2024-03-01", "2024-03-05", "", "")

	start, err := c.EffectiveStart(time.UTC)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), start)
}

func TestEffectiveStartWithTime(t *testing.T) {
	c := newTestCampaign("2024-03-01", "2024-03-05", "09:30:00", "")

	start, err := c.EffectiveStart(time.UTC)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), start)
}

func TestEffectiveStartAcceptsShortTimeLayout(t *testing.T) {
	c := newTestCampaign("2024-03-01", "2024-03-05", "09:30", "")

	start, err := c.EffectiveStart(time.UTC)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC), start)
}

func TestEffectiveEndDefaultsToEndOfDay(t *testing.T) {
	c := newTestCampaign("2024-03-01", "2024-03-05", "", "")

	end, err := c.EffectiveEnd(time.UTC)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC), end)
}

func TestEffectiveEndWithTime(t *testing.T) {
	c := newTestCampaign("2024-03-01", "2024-03-05", "", "17:00:00")

	end, err := c.EffectiveEnd(time.UTC)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 17, 0, 0, 0, time.UTC), end)
}

func TestContainsBoundaries(t *testing.T) {
	c := newTestCampaign("2024-03-01", "2024-03-01", "09:00:00", "17:00:00")

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before start", time.Date(2024, 3, 1, 8, 59, 59, 0, time.UTC), false},
		{"at start", time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), true},
		{"mid window", time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), true},
		{"at end", time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC), true},
		{"after end", time.Date(2024, 3, 1, 17, 0, 0, 1, time.UTC), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.Contains(tc.at)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestContainsDateOnlyWindowCoversWholeDays(t *testing.T) {
	c := newTestCampaign("2024-03-01", "2024-03-02", "", "")

	got, err := c.Contains(time.Date(2024, 3, 2, 23, 59, 59, 0, time.UTC))
	assert.NoError(t, err)
	assert.True(t, got)

	got, err = c.Contains(time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.False(t, got)
}

func TestContainsDate(t *testing.T) {
	c := newTestCampaign("2024-03-01", "2024-03-05", "09:00:00", "17:00:00")

	// date prefilter ignores time of day
	assert.True(t, c.ContainsDate(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, c.ContainsDate(time.Date(2024, 3, 5, 23, 0, 0, 0, time.UTC)))
	assert.False(t, c.ContainsDate(time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC)))
	assert.False(t, c.ContainsDate(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)))
}

func TestEnded(t *testing.T) {
	c := newTestCampaign("2024-03-01", "2024-03-01", "", "17:00:00")

	ended, err := c.Ended(time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.False(t, ended)

	ended, err = c.Ended(time.Date(2024, 3, 1, 17, 0, 0, 1, time.UTC))
	assert.NoError(t, err)
	assert.True(t, ended)
}

func TestValidateRejectsEndBeforeStart(t *testing.T) {
	c := newTestCampaign("2024-03-05", "2024-03-01", "", "")
	assert.ErrorIs(t, c.Validate(), ErrCampaignEndBeforeStart)

	c = newTestCampaign("2024-03-01", "2024-03-01", "17:00:00", "09:00:00")
	assert.ErrorIs(t, c.Validate(), ErrCampaignEndBeforeStart)
}

func TestValidateRejectsMalformedDateAndTime(t *testing.T) {
	c := newTestCampaign("01-03-2024", "2024-03-05", "", "")
	assert.ErrorIs(t, c.Validate(), ErrInvalidCampaignDate)

	c = newTestCampaign("2024-03-01", "2024-03-05", "9am", "")
	assert.ErrorIs(t, c.Validate(), ErrInvalidCampaignTime)
}

func TestValidateAcceptsSingleDayWindow(t *testing.T) {
	c := newTestCampaign("2024-03-01", "2024-03-01", "", "")
	assert.NoError(t, c.Validate())
}
