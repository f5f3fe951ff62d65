package date

import (
	"errors"
	"time"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

func ParseTime(input string) (time.Time, error) {
	t, _, err := ParseTimeWithFormat(input)
	return t, err
}

func ParseTimeWithFormat(input string) (time.Time, string, error) {
	allowedFormats := []string{
		"2006-01-02 15:04:05.000000Z07:00",
		"2006-01-02T15:04:05.000000Z07:00",
		"2006-01-02 15:04:05.000000",
		"2006-01-02T15:04:05.000000",
		"2006-01-02 15:04:05.000Z07:00",
		"2006-01-02T15:04:05.000Z07:00",
		"2006-01-02 15:04:05.000",
		"2006-01-02T15:04:05.000",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04Z07:00",
		"2006-01-02T15:04Z07:00",
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
		"02 Jan 2006 15:04:05.000Z07:00",
		"02 Jan 2006 15:04:05Z07:00",
		"02 Jan 2006 15:04Z07:00",
		"02 Jan 2006",
	}

	for _, format := range allowedFormats {
		t, err := time.Parse(format, input)
		if err == nil {
			return t, format, nil
		}
	}

	return time.Time{}, "", errors.New("invalid datetime format")
}

// FormatDateTime renders t in UTC as ISO-8601 with a literal Z suffix. Microseconds are only
// included when the value has a sub-second component.
func FormatDateTime(t time.Time) string {
	t = t.UTC()
	layout := dateTimeLayout
	if t.Nanosecond()/int(time.Microsecond) != 0 {
		layout += ".000000"
	}

	return t.Format(layout) + "Z"
}

func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}
