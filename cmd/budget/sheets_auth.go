package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	gsheet "budget/internal/sheets/google"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
)

var (
	flagRedirectPort string
	flagTokenOut     string
)

var sheetsAuthCmd = &cobra.Command{
	Use:   "sheets-auth",
	Short: "Authorize the spreadsheet mirror with a Google account and save the OAuth token",
	Long: "Reads the OAuth client from GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE, prints a consent URL\n" +
		"and waits for the redirect on http://localhost:PORT/callback. The client must list that redirect URI.",
	RunE: runSheetsAuth,
}

func init() {
	sheetsAuthCmd.Flags().StringVar(&flagRedirectPort, "port", "8085", "Local port for the OAuth redirect")
	sheetsAuthCmd.Flags().StringVar(&flagTokenOut, "out", "", "Token file (default GOOGLE_OAUTH_TOKEN_FILE or token.json)")
	rootCmd.AddCommand(sheetsAuthCmd)
}

func runSheetsAuth(cmd *cobra.Command, _ []string) error {
	if !appConfig.SheetsOAuthClient() {
		return errors.New("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	}
	clientJSON, err := gsheet.ReadSecret(appConfig.GoogleOAuthClientJSON, appConfig.GoogleOAuthClientFile)
	if err != nil {
		return err
	}
	cfg, err := gsheet.OAuthConfig(clientJSON)
	if err != nil {
		return err
	}
	cfg.RedirectURL = "http://localhost:" + flagRedirectPort + "/callback"

	out := flagTokenOut
	if out == "" {
		out = appConfig.GoogleOAuthTokenFile
	}
	if out == "" {
		out = "token.json"
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	state := uuid.NewString()
	code, err := awaitAuthCode(ctx, net.JoinHostPort("localhost", flagRedirectPort), state, func() {
		fmt.Fprintf(cmd.OutOrStdout(), "Open this URL to authorize:\n%s\n", cfg.AuthCodeURL(state, oauth2.AccessTypeOffline))
	})
	if err != nil {
		return err
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("token exchange: %w", err)
	}
	if err := gsheet.WriteTokenFile(out, tok); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved token to %s\n", out)
	return nil
}

// awaitAuthCode serves /callback on addr until a redirect carrying state
// delivers a code, or ctx ends. ready runs once the listener is up.
func awaitAuthCode(ctx context.Context, addr, state string, ready func()) (string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen for oauth redirect: %w", err)
	}

	type result struct {
		code string
		err  error
	}
	results := make(chan result, 1)
	deliver := func(r result) {
		select {
		case results <- r:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("error") != "":
			http.Error(w, "OAuth error: "+q.Get("error"), http.StatusBadRequest)
			deliver(result{err: fmt.Errorf("authorization denied: %s", q.Get("error"))})
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
		case q.Get("code") == "":
			http.Error(w, "missing code", http.StatusBadRequest)
		default:
			fmt.Fprintln(w, "You may close this window and return to the terminal.")
			deliver(result{code: q.Get("code")})
		}
	})

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if ready != nil {
		ready()
	}

	select {
	case r := <-results:
		return r.code, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("authorization not completed: %w", ctx.Err())
	}
}
