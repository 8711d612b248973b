// Package auth handles the Google OAuth2 sign-in used by cloud sync.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"

	"github.com/hy4ri/taskgrid/internal/config"
)

const (
	callbackPath    = "/callback"
	callbackTimeout = 5 * time.Minute
)

// Scopes are the permissions requested at sign-in. drive.file limits access
// to files created by the app.
var Scopes = []string{drive.DriveFileScope, "openid", "email", "profile"}

// ErrNotConfigured is returned when no OAuth client id is configured.
var ErrNotConfigured = errors.New("oauth client id is not configured")

// OAuthConfig builds the Google OAuth2 client configuration.
func OAuthConfig(cfg config.SyncConfig) (*oauth2.Config, error) {
	if cfg.ClientID == "" {
		return nil, ErrNotConfigured
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  fmt.Sprintf("http://127.0.0.1:%d%s", cfg.RedirectPort, callbackPath),
		Scopes:       Scopes,
	}, nil
}

// Flow runs the authorization code flow with PKCE through a loopback
// callback server.
type Flow struct {
	Config *oauth2.Config

	// Open shows the authorization URL to the user. Defaults to the system
	// browser.
	Open func(url string) error
	// Out receives the instructions printed while waiting.
	Out     io.Writer
	Timeout time.Duration
	Logger  *zap.Logger
}

type callbackResult struct {
	code string
	err  error
}

// Run opens the consent page and waits for the callback, then exchanges the
// code for a token.
func (f *Flow) Run(ctx context.Context) (*oauth2.Token, error) {
	if f.Config == nil || f.Config.ClientID == "" {
		return nil, ErrNotConfigured
	}
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = callbackTimeout
	}
	open := f.Open
	if open == nil {
		open = openBrowser
	}
	out := f.Out
	if out == nil {
		out = io.Discard
	}

	redirect, err := url.Parse(f.Config.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect url: %w", err)
	}
	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	// Port 0 asks the system for a free port; the redirect must name it.
	conf := *f.Config
	redirect.Host = listener.Addr().String()
	conf.RedirectURL = redirect.String()

	state, err := generateState()
	if err != nil {
		listener.Close()
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	server := &http.Server{
		Handler:           callbackRouter(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			deliver(results, callbackResult{err: fmt.Errorf("callback server error: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)

	fmt.Fprintln(out, "Opening browser for Google authorization...")
	fmt.Fprintf(out, "If the browser doesn't open, please visit:\n%s\n\n", authURL)
	if err := open(authURL); err != nil {
		logger.Warn("failed to open browser", zap.Error(err))
	}
	fmt.Fprintln(out, "Waiting for authorization...")

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-results:
		if res.err != nil {
			return nil, res.err
		}
		tok, err := conf.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
		if err != nil {
			return nil, fmt.Errorf("failed to exchange code for token: %w", err)
		}
		logger.Info("authorization completed")
		return tok, nil
	case <-timer.C:
		return nil, fmt.Errorf("authorization timed out after %v", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// callbackRouter serves the redirect target. Only the first result is
// delivered.
func callbackRouter(state string, results chan<- callbackResult) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		w.Header().Set("Content-Type", "text/html")

		if errMsg := query.Get("error"); errMsg != "" {
			deliver(results, callbackResult{err: fmt.Errorf("authorization denied: %s", errMsg)})
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `<html><body><h1>Authorization Failed</h1><p>%s</p><p>You can close this window.</p></body></html>`, template.HTMLEscapeString(errMsg))
			return
		}

		if query.Get("state") != state {
			deliver(results, callbackResult{err: errors.New("authorization state mismatch")})
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `<html><body><h1>Authorization Failed</h1><p>State mismatch.</p><p>You can close this window.</p></body></html>`)
			return
		}

		code := query.Get("code")
		if code == "" {
			deliver(results, callbackResult{err: errors.New("no authorization code received")})
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `<html><body><h1>Authorization Failed</h1><p>No authorization code received.</p><p>You can close this window.</p></body></html>`)
			return
		}

		fmt.Fprint(w, `<html><body><h1>Authorization Successful!</h1><p>You can close this window and return to the terminal.</p></body></html>`)
		deliver(results, callbackResult{code: code})
	}).Methods(http.MethodGet)
	return r
}

func deliver(results chan<- callbackResult, res callbackResult) {
	select {
	case results <- res:
	default:
	}
}

// generateState generates a random state string for CSRF protection.
func generateState() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// openBrowser opens the default browser to the given URL.
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default: // Linux and others
		cmd = exec.Command("xdg-open", url)
	}

	return cmd.Start()
}
