package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFileName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain", "ubuntu-24.04.iso", false},
		{"spaces", "Big Buck Bunny", false},
		{"empty", "", true},
		{"dot", ".", true},
		{"dotdot", "..", true},
		{"slash", "a/b", true},
		{"backslash", `a\b`, true},
		{"null byte", "a\x00b", true},
		{"too long", strings.Repeat("x", MaxFileNameLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFileName(tt.input, "name")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Linux ISOs", "name"))
	assert.Error(t, ValidateName("   ", "name"))
	assert.Error(t, ValidateName(strings.Repeat("n", MaxNameLength+1), "name"))
	assert.NoError(t, ValidateDescription("", "description"))
	assert.Error(t, ValidateID("", "id"))
}

func TestMatchesTerms(t *testing.T) {
	tests := []struct {
		text    string
		keyword string
		want    bool
	}{
		{"Ubuntu 24.04 Desktop", "ubuntu", true},
		{"Ubuntu 24.04 Desktop", "DESKTOP ubuntu", true},
		{"Ubuntu 24.04 Desktop", "ubuntu server", false},
		{"anything", "", true},
		{"anything", "   ", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchesTerms(tt.text, KeywordTerms(tt.keyword)), "%q ~ %q", tt.text, tt.keyword)
	}
}
