package sandbox

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		value any
		want  bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{0, false},
		{int64(-1), true},
		{uint8(0), false},
		{0.0, false},
		{math.NaN(), false},
		{0.5, true},
		{"", false},
		{"0", true},
		{map[string]any{}, true},
		{map[string]any(nil), false},
		{[]any{}, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, truthy(tt.value), "truthy(%#v)", tt.value)
	}
}
