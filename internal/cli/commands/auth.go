package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/atotto/clipboard"
	"github.com/kutbudev/gtm-mcp/internal/credential"
	"github.com/kutbudev/gtm-mcp/internal/setup"
	"github.com/urfave/cli/v2"
)

const authTimeout = 5 * time.Minute

func NewAuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authorize gtm-mcp with your Google account",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "secrets",
				Usage: "path to the OAuth client secrets JSON from the Google Cloud console",
			},
			&cli.StringFlag{
				Name:  "addr",
				Usage: "host:port for the local callback server (must match the client's redirect URI)",
			},
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "print the authorization URL without opening a browser",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "re-authorize without asking when a credential already exists",
			},
		},
		Action: runAuth,
	}
}

func runAuth(c *cli.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	if existing, err := store.Load(c.Context); err == nil && !c.Bool("force") && isInteractive() {
		reauth := false
		prompt := &survey.Confirm{
			Message: fmt.Sprintf("Already authorized as %s. Authorize again?", existing.User.Email),
			Default: false,
		}
		if err := survey.AskOne(prompt, &reauth); err != nil {
			return err
		}
		if !reauth {
			return nil
		}
	}

	secretsPath := c.String("secrets")
	if secretsPath == "" {
		secretsPath = cfg.ClientSecretsFile
	}
	secrets, err := setup.LoadClientSecrets(secretsPath)
	if err != nil {
		if !errors.Is(err, setup.ErrNoClientSecrets) || !isInteractive() {
			printSecretsHelp(secretsPath, cfg.CallbackAddr)
			return err
		}
		fmt.Println(warnStyle.Render("No client secrets file at " + secretsPath))
		if secrets, err = promptClientSecrets(); err != nil {
			return err
		}
	}
	fmt.Printf("%s %s\n", okStyle.Render("✓ Client ID"), truncateString(secrets.ClientID, 24))

	addr := c.String("addr")
	if addr == "" {
		addr = cfg.CallbackAddr
	}

	flow := setup.NewFlow(secrets, addr, store)
	ctx, cancel := context.WithTimeout(c.Context, authTimeout)
	defer cancel()

	file, err := flow.Run(ctx, addr, func(authURL string) {
		fmt.Println()
		fmt.Println(titleStyle.Render("Authorize Google Tag Manager access"))
		fmt.Println(urlStyle.Render(authURL))
		if err := clipboard.WriteAll(authURL); err == nil {
			fmt.Println(okStyle.Render("(copied to clipboard)"))
		}
		if !c.Bool("no-browser") {
			if err := setup.OpenBrowser(authURL); err != nil {
				fmt.Println(warnStyle.Render("Could not open a browser; open the link above manually."))
			}
		}
		fmt.Println("Waiting for the callback on http://" + addr + setup.CallbackPath + " ...")
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("timed out after %s waiting for authorization", authTimeout)
		}
		fmt.Println(errStyle.Render("✗ Authorization failed"))
		return err
	}

	fmt.Println()
	fmt.Println(okStyle.Render("✓ Authorization complete"))
	printField("User", file.User.Name)
	printField("Email", file.User.Email)
	printField("Stored in", fmt.Sprint(store))
	fmt.Println()
	fmt.Println("Restart your MCP client so it picks up the new credential.")
	return nil
}

func promptClientSecrets() (setup.ClientSecrets, error) {
	answers := struct {
		ClientID     string `survey:"client_id"`
		ClientSecret string `survey:"client_secret"`
	}{}
	qs := []*survey.Question{
		{
			Name:      "client_id",
			Prompt:    &survey.Input{Message: "OAuth client ID:"},
			Validate:  survey.Required,
			Transform: survey.TransformString(strings.TrimSpace),
		},
		{
			Name:      "client_secret",
			Prompt:    &survey.Password{Message: "OAuth client secret:"},
			Validate:  survey.Required,
			Transform: survey.TransformString(strings.TrimSpace),
		},
	}
	if err := survey.Ask(qs, &answers); err != nil {
		return setup.ClientSecrets{}, err
	}
	return setup.ClientSecrets{ClientID: answers.ClientID, ClientSecret: answers.ClientSecret}, nil
}

func printSecretsHelp(path, addr string) {
	fmt.Println(errStyle.Render("✗ Client secrets file missing or invalid: " + path))
	fmt.Println()
	fmt.Println("To create one:")
	fmt.Println("  1. Open https://console.cloud.google.com/ and pick a project")
	fmt.Println("  2. Enable the Google Tag Manager API")
	fmt.Println("  3. APIs & Services > Credentials > Create Credentials > OAuth client ID")
	fmt.Println("  4. Choose 'Web application' and add http://" + addr + setup.CallbackPath + " as a redirect URI")
	fmt.Println("  5. Download the JSON and save it as " + path + " (or pass --secrets)")
}

// credentialSummary prints what status and refresh report about a credential.
func credentialSummary(file *credential.File, now time.Time) {
	printField("User", file.User.Name)
	printField("Email", file.User.Email)
	printField("Client ID", truncateString(file.Credentials.ClientID, 24))

	expiry, ok := file.Credentials.Expiry()
	switch {
	case !ok:
		printField("Expires", "unknown")
	case credential.IsExpired(file.Credentials, now):
		printField("Expires", warnStyle.Render(expiry.Local().Format(time.RFC1123)+" (expired, refreshed on next call)"))
	default:
		printField("Expires", okStyle.Render(expiry.Local().Format(time.RFC1123)))
	}
}
