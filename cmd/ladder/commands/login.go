package commands

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/ladder/config"
	"github.com/teranos/ladder/engine"
	"github.com/teranos/ladder/linkedin"
	"github.com/teranos/ladder/logger"
)

// LoginCmd represents the login command
var LoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate and cache a session token",
	Long: `Exchange the configured client credentials for a session token and
cache it on disk. Pipeline commands reuse the cached token until it
expires and refresh it automatically; running login manually is only
needed after a logout or credential change.

Examples:
  ladder login            # Obtain and cache a token
  ladder login --status   # Show whether a usable token is cached
  ladder logout           # Remove the cached token`,
	RunE: runLogin,
}

// LogoutCmd removes the cached token.
var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the cached session token",
	RunE:  runLogout,
}

func init() {
	LoginCmd.Flags().Bool("status", false, "Show token status without logging in")
}

func newLinkedInClient() (*linkedin.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return linkedin.NewClient(linkedin.Config{
		BaseURL:           cfg.LinkedIn.BaseURL,
		ClientID:          cfg.LinkedIn.ClientID,
		ClientSecret:      cfg.LinkedIn.ClientSecret,
		RedirectURI:       cfg.LinkedIn.RedirectURI,
		TokenPath:         cfg.LinkedIn.TokenPath,
		RequestsPerMinute: cfg.LinkedIn.RequestsPerMinute,
		TimeoutSeconds:    cfg.LinkedIn.TimeoutSeconds,
		Logger:            logger.ComponentLogger("linkedin"),
	}), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	client, err := newLinkedInClient()
	if err != nil {
		return err
	}

	// Status only inspects the cache, it never exchanges credentials
	if statusOnly, _ := cmd.Flags().GetBool("status"); statusOnly {
		session, err := client.CachedSession()
		if err != nil {
			pterm.Info.Println("No cached token")
			return nil
		}
		pterm.Info.Println(describeTokenStatus(session, time.Now()))
		return nil
	}

	session, err := client.Login(cmd.Context())
	if err != nil {
		pterm.Error.Printf("Login failed: %v\n", err)
		return err
	}

	pterm.Success.Printf("Logged in, session valid until %s\n", session.Expiry.Format(time.RFC3339))
	return nil
}

// describeTokenStatus reports whether a cached session is usable at
// the given instant.
func describeTokenStatus(session *engine.Session, now time.Time) string {
	if session.ValidAt(now, 0) {
		return fmt.Sprintf("Session valid until %s", session.Expiry.Format(time.RFC3339))
	}
	return fmt.Sprintf("Cached session expired at %s, run login to renew", session.Expiry.Format(time.RFC3339))
}

func runLogout(cmd *cobra.Command, args []string) error {
	client, err := newLinkedInClient()
	if err != nil {
		return err
	}
	if err := client.ClearToken(); err != nil {
		return err
	}
	pterm.Success.Println("Cached token removed")
	return nil
}
