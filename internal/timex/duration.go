// Package timex contains time helpers shared by configuration and the
// emulator store adapter.
package timex

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration wraps time.Duration so JSON config files may use either a
// duration string such as "30m" or an integer number of nanoseconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		d.Duration = parsed
		return nil
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
}

// ReferenceDate is the epoch used by the emulator's object store for
// timestamp columns (2001-01-01 00:00:00 UTC).
var ReferenceDate = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// ToReferenceSeconds converts t into seconds since ReferenceDate.
func ToReferenceSeconds(t time.Time) float64 {
	return t.Sub(ReferenceDate).Seconds()
}

// FromReferenceSeconds is the inverse of ToReferenceSeconds.
func FromReferenceSeconds(s float64) time.Time {
	return ReferenceDate.Add(time.Duration(s * float64(time.Second))).UTC()
}
