package entity

import (
	"errors"
	"fmt"
	"time"
)

const (
	DateFormat = "2006-01-02"
	TimeFormat = "15:04:05"
)

var (
	ErrInvalidCampaignDate    = errors.New("invalid campaign date")
	ErrInvalidCampaignTime    = errors.New("invalid campaign time")
	ErrCampaignEndBeforeStart = errors.New("campaign end must not be before start")
)

// Campaign is a time-boxed phishing-simulation exercise. The core treats it
// as read-only: only its window is consulted, by the dispatch job and the
// tracking endpoints alike.
type Campaign struct {
	ID         *uint64 `json:"id,omitempty"`
	Name       *string `json:"name,omitempty"`
	StartDate  *string `json:"start_date,omitempty"`
	EndDate    *string `json:"end_date,omitempty"`
	StartTime  *string `json:"start_time,omitempty"`
	EndTime    *string `json:"end_time,omitempty"`
	CreateTime *uint64 `json:"create_time,omitempty"`
}

func (e *Campaign) GetID() uint64 {
	if e != nil && e.ID != nil {
		return *e.ID
	}
	return 0
}

func (e *Campaign) GetName() string {
	if e != nil && e.Name != nil {
		return *e.Name
	}
	return ""
}

func (e *Campaign) GetStartDate() string {
	if e != nil && e.StartDate != nil {
		return *e.StartDate
	}
	return ""
}

func (e *Campaign) GetEndDate() string {
	if e != nil && e.EndDate != nil {
		return *e.EndDate
	}
	return ""
}

func (e *Campaign) GetStartTime() string {
	if e != nil && e.StartTime != nil {
		return *e.StartTime
	}
	return ""
}

func (e *Campaign) GetEndTime() string {
	if e != nil && e.EndTime != nil {
		return *e.EndTime
	}
	return ""
}

// EffectiveStart combines the start date with the start time, defaulting to
// the beginning of the day when no start time is set.
func (e *Campaign) EffectiveStart(loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateFormat, e.GetStartDate(), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidCampaignDate, err)
	}

	if e.GetStartTime() == "" {
		return day, nil
	}

	t, err := parseTimeOfDay(e.GetStartTime())
	if err != nil {
		return time.Time{}, err
	}

	return day.Add(t), nil
}

// EffectiveEnd combines the end date with the end time, defaulting to the
// last instant of the day when no end time is set.
func (e *Campaign) EffectiveEnd(loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateFormat, e.GetEndDate(), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidCampaignDate, err)
	}

	if e.GetEndTime() == "" {
		return day.Add(24*time.Hour - time.Nanosecond), nil
	}

	t, err := parseTimeOfDay(e.GetEndTime())
	if err != nil {
		return time.Time{}, err
	}

	return day.Add(t), nil
}

// Contains reports whether t falls within [effective start, effective end].
func (e *Campaign) Contains(t time.Time) (bool, error) {
	start, err := e.EffectiveStart(t.Location())
	if err != nil {
		return false, err
	}

	end, err := e.EffectiveEnd(t.Location())
	if err != nil {
		return false, err
	}

	return !t.Before(start) && !t.After(end), nil
}

// ContainsDate is the coarse date-only prefilter used by the dispatch
// candidate query: start_date <= day(t) <= end_date.
func (e *Campaign) ContainsDate(t time.Time) bool {
	day := t.Format(DateFormat)
	return e.GetStartDate() <= day && day <= e.GetEndDate()
}

// Ended reports whether t is past the campaign's effective end instant.
// Engagement marking is frozen once this is true.
func (e *Campaign) Ended(t time.Time) (bool, error) {
	end, err := e.EffectiveEnd(t.Location())
	if err != nil {
		return false, err
	}
	return t.After(end), nil
}

// Validate rejects malformed windows eagerly, at creation time.
func (e *Campaign) Validate() error {
	loc := time.Local

	start, err := e.EffectiveStart(loc)
	if err != nil {
		return err
	}

	end, err := e.EffectiveEnd(loc)
	if err != nil {
		return err
	}

	if end.Before(start) {
		return ErrCampaignEndBeforeStart
	}

	return nil
}

func parseTimeOfDay(s string) (time.Duration, error) {
	for _, layout := range []string{TimeFormat, "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCampaignTime, s)
}
