package netatmo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func tokenServer(t *testing.T, handle func(form map[string]string) string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/token" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		form := map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(handle(form)))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestTokenSource_AcquireUsesRefreshToken(t *testing.T) {
	var got map[string]string
	server := tokenServer(t, func(form map[string]string) string {
		got = form
		return `{"access_token":"access-2","refresh_token":"refresh-2","expires_in":10800}`
	})

	src, err := NewTokenSource(server.URL, Credentials{ClientID: "id", ClientSecret: "secret", RefreshToken: "refresh-1"}, nil)
	if err != nil {
		t.Fatalf("NewTokenSource: %v", err)
	}
	before := time.Now()
	tok, err := src.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if got["grant_type"] != "refresh_token" || got["refresh_token"] != "refresh-1" {
		t.Fatalf("form = %v", got)
	}
	if got["client_id"] != "id" || got["client_secret"] != "secret" {
		t.Fatalf("client credentials not sent in body: %v", got)
	}
	if tok.AccessToken != "access-2" || tok.RefreshToken != "refresh-2" {
		t.Fatalf("token = %+v", tok)
	}
	if tok.Expiry.Before(before.Add(3*time.Hour-time.Minute)) || tok.Expired(before) {
		t.Fatalf("expiry = %v, want about three hours out", tok.Expiry)
	}
}

func TestTokenSource_PasswordGrant(t *testing.T) {
	var got map[string]string
	server := tokenServer(t, func(form map[string]string) string {
		got = form
		return `{"access_token":"a","refresh_token":"r","expires_in":60}`
	})
	src, err := NewTokenSource(server.URL, Credentials{ClientID: "id", Username: "me@example.com", Password: "pw"}, nil)
	if err != nil {
		t.Fatalf("NewTokenSource: %v", err)
	}
	if _, err := src.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if got["grant_type"] != "password" || got["username"] != "me@example.com" || got["scope"] != "read_station read_homecoach" {
		t.Fatalf("form = %v", got)
	}
}

func TestTokenSource_RefreshKeepsRefreshTokenWhenNotRotated(t *testing.T) {
	server := tokenServer(t, func(map[string]string) string {
		return `{"access_token":"new","expires_in":60}`
	})
	src, err := NewTokenSource(server.URL, Credentials{ClientID: "id"}, nil)
	if err != nil {
		t.Fatalf("NewTokenSource: %v", err)
	}
	tok, err := src.Refresh(context.Background(), Token{AccessToken: "old", RefreshToken: "keep"})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if tok.AccessToken != "new" || tok.RefreshToken != "keep" {
		t.Fatalf("token = %+v", tok)
	}
}

func TestTokenSource_NoCredentials(t *testing.T) {
	src, err := NewTokenSource("http://127.0.0.1:1", Credentials{ClientID: "id"}, nil)
	if err != nil {
		t.Fatalf("NewTokenSource: %v", err)
	}
	if _, err := src.Acquire(context.Background()); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("Acquire error = %v, want ErrNoCredentials", err)
	}
}

func TestToken_Expired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tok := Token{AccessToken: "a", Expiry: now}
	if !tok.Expired(now) {
		t.Fatalf("token expiring now reported valid")
	}
	if tok.Expired(now.Add(-time.Second)) {
		t.Fatalf("token reported expired before its expiry")
	}
	if !(Token{Expiry: now.Add(time.Hour)}).Expired(now) {
		t.Fatalf("empty access token reported valid")
	}
}
