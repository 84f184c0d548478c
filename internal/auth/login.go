package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	// OAuth callback timeout
	callbackTimeout = 5 * time.Minute

	// Token exchange timeout
	exchangeTimeout = 30 * time.Second

	// Starting port for OAuth callback server
	startPort = 8085

	// Max port attempts
	maxPortAttempts = 5
)

// Login runs the authorization code flow with PKCE against a loopback
// redirect. The authorization URL is printed to prompt.
func Login(ctx context.Context, oauthCfg *oauth2.Config, prompt io.Writer, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	port, listener, err := findAvailablePort()
	if err != nil {
		return nil, fmt.Errorf("could not bind to local port for OAuth callback")
	}
	defer listener.Close()

	cfg := *oauthCfg
	cfg.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)

	verifier := oauth2.GenerateVerifier()
	state := oauth2.GenerateVerifier()
	authURL := cfg.AuthCodeURL(state, append([]oauth2.AuthCodeOption{oauth2.S256ChallengeOption(verifier)}, opts...)...)

	fmt.Fprintln(prompt, "Open this URL in your browser:")
	fmt.Fprintln(prompt, authURL)

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if subtle.ConstantTimeCompare([]byte(q.Get("state")), []byte(state)) != 1 {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			return
		}
		if e := q.Get("error"); e != "" {
			http.Error(w, "Authorization failed", http.StatusBadRequest)
			sendErr(errCh, fmt.Errorf("authorization failed: %s", e))
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "No code in callback", http.StatusBadRequest)
			sendErr(errCh, fmt.Errorf("no code in callback"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Authentication successful</h1><p>You may close this window.</p></body></html>")
		select {
		case codeCh <- code:
		default:
		}
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			sendErr(errCh, err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return nil, err
	case <-time.After(callbackTimeout):
		return nil, fmt.Errorf("oauth callback timed out")
	case <-ctx.Done():
		return nil, fmt.Errorf("cancelled")
	}

	exchangeCtx, cancel := context.WithTimeout(ctx, exchangeTimeout)
	defer cancel()

	tok, err := cfg.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code for token: %w", err)
	}
	return tok, nil
}

func sendErr(ch chan error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// findAvailablePort tries to find an available port starting from startPort.
func findAvailablePort() (int, net.Listener, error) {
	for i := 0; i < maxPortAttempts; i++ {
		port := startPort + i
		listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			return port, listener, nil
		}
	}
	return 0, nil, fmt.Errorf("no available port found")
}
