package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/kutbudev/gtm-mcp/internal/apperrors"
	"github.com/kutbudev/gtm-mcp/internal/credential"
	"github.com/urfave/cli/v2"
)

func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show the stored Google authorization",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}

			fmt.Println(titleStyle.Render("GTM MCP status"))
			printField("Backend", fmt.Sprint(store))

			file, err := store.Load(c.Context)
			if errors.Is(err, credential.ErrNotFound) {
				fmt.Println(warnStyle.Render(fmt.Sprintf("Not authorized. Run '%s'.", apperrors.AuthCommand)))
				return cli.Exit("", 1)
			}
			if err != nil {
				return err
			}
			credentialSummary(file, time.Now())
			return nil
		},
	}
}

func NewRefreshCommand() *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Refresh the stored access token now",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}

			file, err := store.Load(c.Context)
			if errors.Is(err, credential.ErrNotFound) {
				return cli.Exit(fmt.Sprintf("Not authorized. Run '%s'.", apperrors.AuthCommand), 1)
			}
			if err != nil {
				return err
			}

			next, err := newRefresher(cfg).Refresh(c.Context, file.Credentials)
			if err != nil {
				fmt.Println(errStyle.Render("✗ Refresh failed"))
				return cli.Exit(apperrors.Message(apperrors.RefreshFailure(err)), 1)
			}
			file.Credentials = next
			if err := store.Save(c.Context, file); err != nil {
				return fmt.Errorf("refreshed token could not be saved: %w", err)
			}

			fmt.Println(okStyle.Render("✓ Access token refreshed"))
			credentialSummary(file, time.Now())
			return nil
		},
	}
}
