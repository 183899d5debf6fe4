package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected *Callback
	}{
		{
			name:     "parse select with counselor id",
			data:     "select:7",
			expected: &Callback{Action: "select", CounselorID: 7},
		},
		{
			name:     "parse start with counselor id",
			data:     "start:12",
			expected: &Callback{Action: "start", CounselorID: 12},
		},
		{
			name:     "parse home",
			data:     "home",
			expected: &Callback{Action: "home"},
		},
		{
			name:     "reject unknown action",
			data:     "delete:7",
			expected: nil,
		},
		{
			name:     "reject missing id",
			data:     "select:",
			expected: nil,
		},
		{
			name:     "reject non-numeric id",
			data:     "select:abc",
			expected: nil,
		},
		{
			name:     "reject zero id",
			data:     "start:0",
			expected: nil,
		},
		{
			name:     "reject negative id",
			data:     "start:-4",
			expected: nil,
		},
		{
			name:     "reject empty data",
			data:     "",
			expected: nil,
		},
		{
			name:     "reject plain text",
			data:     "hello",
			expected: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := parseCallback(tc.data)
			if tc.expected == nil {
				assert.Nil(t, result)
			} else {
				assert.Equal(t, tc.expected, result)
			}
		})
	}
}

func TestCallbackDataRoundTrip(t *testing.T) {
	assert.Equal(t, &Callback{Action: "select", CounselorID: 3}, parseCallback(selectCallback(3)))
	assert.Equal(t, &Callback{Action: "start", CounselorID: 3}, parseCallback(startCallback(3)))
}
