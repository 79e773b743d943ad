package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDurationDefault(t *testing.T) {
	def := 5 * time.Second
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", def},
		{"90s", 90 * time.Second},
		{" 6h ", 6 * time.Hour},
		{"2.5", 2500 * time.Millisecond},
		{"-1s", def},
		{"soon", def},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseDurationDefault(tt.in, def), tt.in)
	}
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, SplitList(" k1:9092, ,k2:9092,"))
	assert.Nil(t, SplitList(" , "))
	assert.Equal(t, 7, ParseIntDefault(" 7", 1))
	assert.Equal(t, 1, ParseIntDefault("x", 1))
}
