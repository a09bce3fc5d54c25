package timex

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	var v struct {
		A Duration `json:"a"`
		B Duration `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"90m","b":1000000000}`), &v))
	assert.Equal(t, 90*time.Minute, v.A.Duration)
	assert.Equal(t, time.Second, v.B.Duration)
}

func TestDuration_UnmarshalJSON_Invalid(t *testing.T) {
	var d Duration
	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Duration{Duration: 2 * time.Hour})
	require.NoError(t, err)
	assert.Equal(t, `"2h0m0s"`, string(b))
}

func TestReferenceSeconds_RoundTrip(t *testing.T) {
	assert.Equal(t, 0.0, ToReferenceSeconds(ReferenceDate))
	assert.Equal(t, 86400.0, ToReferenceSeconds(ReferenceDate.Add(24*time.Hour)))

	now := time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)
	assert.True(t, now.Equal(FromReferenceSeconds(ToReferenceSeconds(now))))
}
