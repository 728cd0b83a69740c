package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidDocType(t *testing.T) {
	tests := []struct {
		name     string
		docType  string
		expected bool
	}{
		{"Valid work center", "workCenter", true},
		{"Valid work order", "workOrder", true},
		{"Invalid casing", "WorkOrder", false},
		{"Invalid empty", "", false},
		{"Invalid random", "machine", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsValidDocType(tt.docType))
		})
	}
}

func TestValidDocTypes(t *testing.T) {
	assert.Len(t, ValidDocTypes, 2)
}
