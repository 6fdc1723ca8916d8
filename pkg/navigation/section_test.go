package navigation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTopSection(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/contribution/chat", "contribution"},
		{"/hub/overview", "hub"},
		{"/hub", "hub"},
		{"/", ""},
		{"", ""},
		{"external", "external"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TopSection(tt.path), "path %q", tt.path)
	}
}

func TestSectionCrossing(t *testing.T) {
	assert.True(t, SectionCrossing("/contribution/chat", "/hub/overview"))
	assert.False(t, SectionCrossing("/hub/overview", "/hub/projects"))
	assert.True(t, SectionCrossing("/hub/overview", "external"), "unload always crosses")
	assert.False(t, SectionCrossing("/contribution/chat", "/contribution/files"))
}
