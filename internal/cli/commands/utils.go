package commands

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/kutbudev/gtm-mcp/internal/config"
	"github.com/kutbudev/gtm-mcp/internal/credential"
	"github.com/kutbudev/gtm-mcp/internal/gtm"
	"github.com/kutbudev/gtm-mcp/internal/logging"
	"github.com/kutbudev/gtm-mcp/internal/mcp"
	"golang.org/x/term"
)

// Helper functions shared across commands

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	labelStyle = lipgloss.NewStyle().Faint(true).Width(14)
	urlStyle   = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("14"))
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.LogLevel, cfg.Debug)
	return cfg, nil
}

func openStore(cfg *config.Config) (credential.Store, error) {
	return credential.NewStore(cfg.Store, cfg.CredentialsFile, cfg.KeyringService)
}

func newRefresher(cfg *config.Config) *credential.OAuthRefresher {
	return credential.NewOAuthRefresher(cfg.TokenURL, nil)
}

func newDispatcher(cfg *config.Config) (*mcp.Dispatcher, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	registry, err := mcp.DefaultRegistry()
	if err != nil {
		return nil, err
	}
	gateway := gtm.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)
	return mcp.NewDispatcher(registry, store, newRefresher(cfg), gateway), nil
}

func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func printField(label, value string) {
	fmt.Printf("%s %s\n", labelStyle.Render(label), value)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
