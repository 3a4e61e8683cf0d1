package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/kutbudev/gtm-mcp/internal/mcp"
	"github.com/kutbudev/gtm-mcp/internal/resource"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

func NewMcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "MCP (Model Context Protocol) server management",
		Subcommands: []*cli.Command{
			NewServeCommand(),
			{
				Name:  "config",
				Usage: "Print MCP config examples for clients",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "client",
						Aliases: []string{"c"},
						Usage:   "target client (generic|codex|claude)",
						Value:   "generic",
					},
				},
				Action: func(c *cli.Context) error {
					switch strings.ToLower(c.String("client")) {
					case "codex":
						printCodexConfig()
					case "claude":
						printClaudeConfig()
					default:
						printGenericConfig()
					}
					return nil
				},
			},
			{
				Name:  "tools",
				Usage: "List available MCP tools",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "markdown",
						Usage: "print a readable summary instead of JSON",
					},
				},
				Action: func(c *cli.Context) error {
					if c.Bool("markdown") {
						return printToolsMarkdown()
					}
					registry, err := mcp.DefaultRegistry()
					if err != nil {
						return err
					}
					b, err := json.MarshalIndent(registry.Tools(), "", "  ")
					if err != nil {
						return err
					}
					os.Stdout.Write(b)
					os.Stdout.Write([]byte("\n"))
					return nil
				},
			},
		},
	}
}

// NewServeCommand runs the stdio server. It is registered both at the top
// level and under `mcp`.
func NewServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start MCP server (stdio)",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			d, err := newDispatcher(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := mcp.ServeStdio(ctx, d); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

func printGenericConfig() {
	cfg := map[string]interface{}{
		"mcpServers": map[string]interface{}{
			"gtm": map[string]interface{}{
				"command": "gtm-mcp",
				"args":    []string{"serve"},
			},
		},
	}
	b, _ := json.MarshalIndent(cfg, "", "  ")
	fmt.Println(string(b))
}

func printCodexConfig() {
	fmt.Println("# Add the following to ~/.codex/config.toml (merge with existing settings)")
	fmt.Println("[mcp_servers.gtm]")
	fmt.Println("command = \"gtm-mcp\"")
	fmt.Println("args = [\"serve\"]")
	fmt.Println("enabled = true")
}

func printClaudeConfig() {
	fmt.Println("# Register the server with the Claude CLI")
	fmt.Println("claude mcp add gtm -- gtm-mcp serve")
}

func toolsMarkdown() string {
	var b strings.Builder
	b.WriteString("# GTM MCP tools\n\n")
	for _, d := range resource.Catalog() {
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", d.Tool, d.Description)

		actions := make([]string, 0, len(d.Actions))
		for _, a := range d.Actions {
			actions = append(actions, "`"+a.String()+"`")
		}
		fmt.Fprintf(&b, "- **actions:** %s\n", strings.Join(actions, ", "))

		if len(d.Parents) > 0 {
			params := make([]string, 0, len(d.Parents))
			for _, p := range d.Parents {
				params = append(params, "`"+p.Param+"`")
			}
			fmt.Fprintf(&b, "- **requires:** %s\n", strings.Join(params, ", "))
		}
		fmt.Fprintf(&b, "- **addressed by:** `%s`\n", d.IDParam)
		if d.Schema != "" {
			fmt.Fprintf(&b, "- **config schema:** `gtm://schemas/%s`\n", d.Schema)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func printToolsMarkdown() error {
	md := toolsMarkdown()
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Print(md)
		return nil
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
