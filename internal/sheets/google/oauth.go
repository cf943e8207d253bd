package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"
)

// OAuthConfig parses an OAuth client secret (installed or web app) for the
// Sheets scope.
func OAuthConfig(clientJSON []byte) (*oauth2.Config, error) {
	cfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

// ParseToken decodes a token saved by WriteTokenFile. A token without a
// refresh token cannot outlive its first hour and is rejected.
func ParseToken(data []byte) (*oauth2.Token, error) {
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, errors.New("oauth token: no access or refresh token")
	}
	return &tok, nil
}

// WriteTokenFile stores tok readable by the owner only.
func WriteTokenFile(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

// ReadSecret returns inline when set, else the content of path. Both empty
// yields nil, nil.
func ReadSecret(inline, path string) ([]byte, error) {
	if strings.TrimSpace(inline) != "" {
		return []byte(inline), nil
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (o Options) usesOAuth() bool {
	return (o.OAuthClientJSON != "" || o.OAuthClientFile != "") &&
		(o.OAuthTokenJSON != "" || o.OAuthTokenFile != "")
}

func oauthTokenSource(ctx context.Context, o Options) (oauth2.TokenSource, error) {
	clientJSON, err := ReadSecret(o.OAuthClientJSON, o.OAuthClientFile)
	if err != nil {
		return nil, err
	}
	cfg, err := OAuthConfig(clientJSON)
	if err != nil {
		return nil, err
	}
	tokenJSON, err := ReadSecret(o.OAuthTokenJSON, o.OAuthTokenFile)
	if err != nil {
		return nil, err
	}
	tok, err := ParseToken(tokenJSON)
	if err != nil {
		return nil, err
	}
	return cfg.TokenSource(ctx, tok), nil
}
