package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentDisposition(t *testing.T) {
	tests := map[string]struct {
		name     string
		expected string
	}{
		"Empty":    {name: "", expected: ""},
		"Plain":    {name: "heap.bin", expected: "attachment; filename=heap.bin"},
		"Quoted":   {name: "heap v2.bin", expected: `attachment; filename="heap v2.bin"`},
		"NonASCII": {name: "문제.zip", expected: "attachment; filename*=utf-8''%EB%AC%B8%EC%A0%9C.zip"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.expected, contentDisposition(tt.name))
		})
	}
}
