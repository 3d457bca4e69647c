package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/geocoder89/authhub/internal/client/api"
	"github.com/geocoder89/authhub/internal/client/session"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// rootConfig holds the persistent flags shared by every subcommand.
type rootConfig struct {
	server    string
	tokenFile string

	// readPassword is swapped in tests
	readPassword func(cmd *cobra.Command, prompt string) (string, error)
}

// NewRootCmd creates the root command for the authctl CLI.
func NewRootCmd() *cobra.Command {
	cfg := &rootConfig{readPassword: promptPassword}

	cmd := &cobra.Command{
		Use:           "authctl",
		Short:         "Sign up, sign in and inspect the current AuthHub session",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&cfg.server, "server", envOr("AUTHHUB_URL", "http://localhost:8080"), "API base URL")
	cmd.PersistentFlags().StringVar(&cfg.tokenFile, "token-file", "", "where the session token is kept (default: user config dir)")

	cmd.AddCommand(newSignupCmd(cfg))
	cmd.AddCommand(newSigninCmd(cfg))
	cmd.AddCommand(newMeCmd(cfg))
	cmd.AddCommand(newOpenCmd(cfg))
	cmd.AddCommand(newLogoutCmd(cfg))

	return cmd
}

// store builds the session store for one command invocation.
func (c *rootConfig) store() (*session.Store, error) {
	path := c.tokenFile
	if path == "" {
		p, err := session.DefaultTokenPath()
		if err != nil {
			return nil, fmt.Errorf("locate token file: %w", err)
		}
		path = p
	}

	return session.New(api.New(c.server), session.NewFileTokens(path)), nil
}

func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	cmd.Print(prompt)

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		cmd.Println()
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
