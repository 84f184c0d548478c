package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"golang.org/x/oauth2"

	"taskdeck/internal/auth"
	"taskdeck/internal/backend/googletasks"
	"taskdeck/internal/config"
	"taskdeck/internal/exitcode"
)

// LoginFunc runs an interactive OAuth flow and returns the issued token.
type LoginFunc func(ctx context.Context, oauthCfg *oauth2.Config, prompt io.Writer, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)

func init() {
	Register(&LoginCmd{login: auth.Login})
}

// LoginCmd implements the login command.
type LoginCmd struct {
	login  LoginFunc
	google bool
}

// SetLoginFunc replaces the interactive flow (for testing).
func (c *LoginCmd) SetLoginFunc(fn LoginFunc) {
	c.login = fn
}

func (c *LoginCmd) Name() string      { return "login" }
func (c *LoginCmd) Aliases() []string { return nil }
func (c *LoginCmd) Synopsis() string  { return "Sign in" }
func (c *LoginCmd) Usage() string     { return "taskdeck login [common flags] [--google]" }
func (c *LoginCmd) NeedsAuth() bool   { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	c.google = false
	fs.BoolVar(&c.google, "google", false, "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, env *Env, args []string, out, errOut io.Writer) int {
	if c.google {
		return c.loginGoogle(ctx, cfg, out, errOut)
	}

	oauthCfg, err := auth.OAuthConfig(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		fmt.Fprintf(errOut, "Set the [auth] section in %s or the %sAUTH_URL, %sTOKEN_URL and %sCLIENT_ID variables.\n",
			cfg.FilePath(), config.EnvPrefix, config.EnvPrefix, config.EnvPrefix)
		return exitcode.AuthError
	}

	if cfg.HasToken() && isSignedIn(ctx, cfg) {
		if !cfg.Quiet {
			fmt.Fprintln(out, "already logged in")
		}
		return exitcode.Success
	}

	token, err := c.login(ctx, oauthCfg, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	}
	if auth.IDTokenFrom(token) == "" {
		fmt.Fprintln(errOut, "error: auth error: provider returned no id_token (is the openid scope enabled?)")
		return exitcode.AuthError
	}
	if token.RefreshToken == "" {
		fmt.Fprintln(errOut, "error: auth error: provider returned no refresh token")
		return exitcode.AuthError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}
	if _, err := auth.SaveToken(cfg.TokenPath(), token, ""); err != nil {
		fmt.Fprintf(errOut, "error: failed to save token: %v\n", err)
		return exitcode.AuthError
	}
	return ok(cfg, out)
}

func (c *LoginCmd) loginGoogle(ctx context.Context, cfg *config.Config, out, errOut io.Writer) int {
	if !cfg.HasGoogleClient() {
		fmt.Fprintf(errOut, "error: %s not found in %s\n\n", config.GoogleClientFile, cfg.Dir)
		fmt.Fprintln(errOut, "Reminders are kept in Google Tasks. To enable them you need OAuth credentials:")
		fmt.Fprintln(errOut, "")
		fmt.Fprintln(errOut, "1. Go to https://console.cloud.google.com/apis/credentials")
		fmt.Fprintln(errOut, "2. Enable the Google Tasks API:")
		fmt.Fprintln(errOut, "   https://console.cloud.google.com/apis/library/tasks.googleapis.com")
		fmt.Fprintln(errOut, "3. Create an OAuth client ID of type 'Desktop app' and download the JSON file")
		fmt.Fprintf(errOut, "4. Save it as %s\n", cfg.GoogleClientPath())
		fmt.Fprintln(errOut, "")
		fmt.Fprintln(errOut, "Then run 'taskdeck login --google' again.")
		return exitcode.AuthError
	}

	oauthCfg, err := googletasks.OAuthConfig(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	}

	token, err := c.login(ctx, oauthCfg, errOut, oauth2.AccessTypeOffline)
	if err != nil {
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
		return exitcode.AuthError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.AuthError
	}
	if _, err := auth.SaveToken(cfg.GoogleTokenPath(), token, ""); err != nil {
		fmt.Fprintf(errOut, "error: failed to save token: %v\n", err)
		return exitcode.AuthError
	}
	return ok(cfg, out)
}

// isSignedIn reports whether the stored token still yields an ID token,
// refreshing it if needed.
func isSignedIn(ctx context.Context, cfg *config.Config) bool {
	creds, err := auth.NewCredentials(ctx, cfg)
	if err != nil {
		return false
	}
	_, err = creds.IDToken()
	return err == nil
}
