package docnum

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatches(t *testing.T) {
	tests := []struct {
		value   string
		matches bool
	}{
		{"0001-0001", true},
		{"9999-9999", true},
		{"0012-3456", true},
		{"1-1", false},
		{"00010001", false},
		{"0001-00010", false},
		{"ABCD-0001", false},
		{"DC/2019/14", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.matches, Matches(tt.value))
		})
	}
}

func TestIncrement(t *testing.T) {
	tests := []struct {
		name string
		last string
		want string
	}{
		{"simple increment", "0001-0001", "0001-0002"},
		{"mid range", "0003-0456", "0003-0457"},
		{"right segment rollover", "0001-9999", "0002-0001"},
		{"high left segment rollover", "0042-9999", "0043-0001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Increment(tt.last)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects non-matching value", func(t *testing.T) {
		_, err := Increment("legacy-123")
		assert.Error(t, err)
	})
}

func TestNext(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"empty set seeds first number", nil, FirstNumber},
		{"single value", []string{"0001-0007"}, "0001-0008"},
		{"picks numerically highest", []string{"0001-0009", "0001-0011", "0001-0002"}, "0001-0012"},
		{"higher left segment wins", []string{"0002-0001", "0001-9999"}, "0002-0002"},
		{"legacy values ignored", []string{"DC/2019/14", "old-99", "0001-0003"}, "0001-0004"},
		{"only legacy values seeds first number", []string{"DC/2019/14", "misc"}, FirstNumber},
		{"rollover from highest", []string{"0005-9999"}, "0006-0001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Next(tt.existing))
		})
	}
}
