package netatmo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const tokenTimeout = 10 * time.Second

// ErrNoCredentials means neither a refresh token nor a username/password
// pair was configured.
var ErrNoCredentials = errors.New("netatmo credentials missing: set a refresh token or username and password")

// DefaultScopes grants read access to weather stations and home coaches.
var DefaultScopes = []string{"read_station", "read_homecoach"}

// Token is an access token with its absolute expiry.
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// Expired reports whether the token can no longer be used at now.
func (t Token) Expired(now time.Time) bool {
	return t.AccessToken == "" || !now.Before(t.Expiry)
}

// Credentials identify the application and the account.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	Username     string
	Password     string
	Scopes       []string
}

// TokenSource obtains and refreshes tokens from the Netatmo OAuth2 endpoint.
type TokenSource struct {
	cfg     oauth2.Config
	creds   Credentials
	http    *http.Client
	timeout time.Duration
}

// NewTokenSource builds a TokenSource against baseURL (empty uses the public
// API). httpClient may be nil.
func NewTokenSource(baseURL string, creds Credentials, httpClient *http.Client) (*TokenSource, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	scopes := creds.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: tokenTimeout}
	}
	return &TokenSource{
		cfg: oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				TokenURL:  strings.TrimSuffix(base.String(), "/") + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		creds:   creds,
		http:    httpClient,
		timeout: tokenTimeout,
	}, nil
}

// Acquire obtains the first token, preferring the configured refresh token
// over the password grant.
func (s *TokenSource) Acquire(ctx context.Context) (Token, error) {
	switch {
	case s.creds.RefreshToken != "":
		return s.Refresh(ctx, Token{RefreshToken: s.creds.RefreshToken})
	case s.creds.Username != "":
		ctx, cancel := s.exchangeContext(ctx)
		defer cancel()
		tok, err := s.cfg.PasswordCredentialsToken(ctx, s.creds.Username, s.creds.Password)
		if err != nil {
			return Token{}, fmt.Errorf("password grant: %w", err)
		}
		return fromOAuth2(tok), nil
	default:
		return Token{}, ErrNoCredentials
	}
}

// Refresh exchanges t's refresh token for a new access token. Netatmo may
// rotate the refresh token; the returned Token carries whichever is current.
func (s *TokenSource) Refresh(ctx context.Context, t Token) (Token, error) {
	if t.RefreshToken == "" {
		return Token{}, fmt.Errorf("refresh token: %w", ErrNoCredentials)
	}
	ctx, cancel := s.exchangeContext(ctx)
	defer cancel()
	tok, err := s.cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: t.RefreshToken}).Token()
	if err != nil {
		return Token{}, fmt.Errorf("refresh token: %w", err)
	}
	out := fromOAuth2(tok)
	if out.RefreshToken == "" {
		out.RefreshToken = t.RefreshToken
	}
	return out, nil
}

func (s *TokenSource) exchangeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.http)
	return context.WithTimeout(ctx, s.timeout)
}

func fromOAuth2(tok *oauth2.Token) Token {
	return Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}
}
