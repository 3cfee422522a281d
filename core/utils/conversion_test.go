package utils_test

import (
	"encoding/json"
	"testing"

	"presence-sync/core/utils"

	"github.com/stretchr/testify/assert"
)

func TestToString(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want string
	}{
		{"String", "abc", "abc"},
		{"Bytes", []byte("abc"), "abc"},
		{"WholeFloat", float64(1), "1"},
		{"Float", 1.1, "1.1"},
		{"Float32", float32(2.5), "2.5"},
		{"Int", 42, "42"},
		{"Int64", int64(-7), "-7"},
		{"Number", json.Number("3.14"), "3.14"},
		{"Bool", true, "true"},
		{"Uint", uint8(9), "9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.ToString(tt.val))
		})
	}
}
