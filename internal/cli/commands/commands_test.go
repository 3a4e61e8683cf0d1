package commands

import (
	"testing"
	"time"

	"github.com/kutbudev/gtm-mcp/internal/resource"
	"github.com/stretchr/testify/assert"
)

func TestToolsMarkdown_ListsEveryTool(t *testing.T) {
	md := toolsMarkdown()
	for _, d := range resource.Catalog() {
		assert.Contains(t, md, "## "+d.Tool)
	}
	assert.Contains(t, md, "`gtm://schemas/tag`")
	assert.NotContains(t, md, "`gtm://schemas/`")
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "1234567...", truncateString("1234567890abc", 10))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, sub := range NewMcpCommand().Subcommands {
		names[sub.Name] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["config"])
	assert.True(t, names["tools"])

	assert.Equal(t, "auth", NewAuthCommand().Name)
	assert.Equal(t, "status", NewStatusCommand().Name)
	assert.Equal(t, "refresh", NewRefreshCommand().Name)
	assert.Equal(t, 5*time.Minute, authTimeout)
}
