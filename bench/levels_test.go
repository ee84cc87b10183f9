package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevels(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"1", []int{1}},
		{"1,2,4,8", []int{1, 2, 4, 8}},
		{"8, 1 ,4", []int{8, 1, 4}},
		{"2,2", []int{2, 2}},
	}
	for _, tt := range tests {
		got, err := ParseLevels(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseLevelsInvalid(t *testing.T) {
	for _, in := range []string{"", " ", "0", "1,0", "-2", "1,,2", "two", "1.5"} {
		_, err := ParseLevels(in)
		require.Error(t, err, "%q", in)
		assert.ErrorIs(t, err, NewError(KindConfig, CodeInvalidLevels, ""), "%q", in)
	}
}
