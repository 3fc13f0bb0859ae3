package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractOriginHost(t *testing.T) {
	assert.Equal(t, "echo88.app", extractOriginHost("https://echo88.app"))
	assert.Equal(t, "echo88.app:3000", extractOriginHost("http://echo88.app:3000"))
	assert.Equal(t, "localhost", extractOriginHost("localhost"))
}

func TestMatchOriginPattern(t *testing.T) {
	tests := []struct {
		pattern string
		host    string
		want    bool
	}{
		{"echo88.app", "echo88.app", true},
		{"echo88.app", "evil.com", false},
		{"*.echo88.app", "www.echo88.app", true},
		{"*.echo88.app", "echo88.app.evil.com", false},
		{"localhost:*", "localhost:3000", true},
		{"localhost:*", "localhostx", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchOriginPattern(tt.pattern, tt.host), "%s vs %s", tt.pattern, tt.host)
	}
}
