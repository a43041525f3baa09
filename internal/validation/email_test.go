package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"test@example.com", true},
		{"a@b.c", true},
		{"first.last+tag@sub.example.co.uk", true},
		{"invalid-email", false},
		{"a@b", false},
		{"", false},
		{"@example.com", false},
		{"user@", false},
		{"user@.", false},
		{"us er@example.com", false},
		{"user@exa mple.com", false},
		{"user@@example.com", false},
		{"user@example.com\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidEmail(tt.email))
		})
	}
}
