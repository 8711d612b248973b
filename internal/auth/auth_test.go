package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
	"golang.org/x/oauth2"

	"github.com/hy4ri/taskgrid/internal/clock"
	"github.com/hy4ri/taskgrid/internal/config"
)

var epoch = time.Date(2026, 3, 9, 9, 0, 0, 0, time.UTC)

func idToken(t *testing.T, sub string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub}).SignedString([]byte("test"))
	require.NoError(t, err)
	return signed
}

func newStore(t *testing.T) Store {
	t.Helper()
	keyring.MockInit()
	return Store{Secrets: config.Secrets{Dir: t.TempDir()}}
}

// tokenServer answers refresh and code grants, counting requests.
func tokenServer(t *testing.T, calls *int32, handle func(form url.Values) map[string]any) *oauth2.Config {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(handle(r.Form))
	}))
	t.Cleanup(server.Close)
	return &oauth2.Config{
		ClientID:    "client",
		Endpoint:    oauth2.Endpoint{AuthURL: server.URL + "/auth", TokenURL: server.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
		RedirectURL: "http://127.0.0.1:0/callback",
		Scopes:      Scopes,
	}
}

func TestToken_ValidAt(t *testing.T) {
	tests := []struct {
		name string
		tok  Token
		want bool
	}{
		{"fresh", Token{AccessToken: "a", Expiry: epoch.Add(time.Minute)}, true},
		{"inside leeway", Token{AccessToken: "a", Expiry: epoch.Add(4 * time.Second)}, false},
		{"expired", Token{AccessToken: "a", Expiry: epoch.Add(-time.Second)}, false},
		{"no access token", Token{Expiry: epoch.Add(time.Hour)}, false},
		{"no expiry", Token{AccessToken: "a"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tok.ValidAt(epoch))
		})
	}
}

func TestToken_Subject(t *testing.T) {
	assert.Equal(t, "1234", Token{IDToken: idToken(t, "1234")}.Subject())
	assert.Empty(t, Token{IDToken: "garbage"}.Subject())
	assert.Empty(t, Token{}.Subject())
}

func TestFromOAuth2_DefaultLifetime(t *testing.T) {
	tok := FromOAuth2(&oauth2.Token{AccessToken: "a"}, epoch)
	assert.Equal(t, epoch.Add(DefaultLifetime), tok.Expiry)
}

func TestStore_RoundTrip(t *testing.T) {
	store := newStore(t)

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	want := Token{AccessToken: "a", RefreshToken: "r", Expiry: epoch}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.True(t, want.Expiry.Equal(got.Expiry))

	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestSource_ValidTokenIsNotRefreshed(t *testing.T) {
	var calls int32
	conf := tokenServer(t, &calls, func(url.Values) map[string]any { return nil })
	store := newStore(t)
	require.NoError(t, store.Save(Token{AccessToken: "live", RefreshToken: "r", Expiry: epoch.Add(time.Hour)}))

	src := NewSource(conf, store, clock.NewManual(epoch), nil)
	got, err := src.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "live", got)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestSource_RefreshesOnceForConcurrentCallers(t *testing.T) {
	var calls int32
	conf := tokenServer(t, &calls, func(form url.Values) map[string]any {
		assert.Equal(t, "refresh_token", form.Get("grant_type"))
		assert.Equal(t, "r", form.Get("refresh_token"))
		time.Sleep(20 * time.Millisecond)
		return map[string]any{"access_token": "renewed", "token_type": "Bearer", "expires_in": 3600}
	})
	// The oauth2 package stamps expiry from the wall clock.
	now := time.Now()
	store := newStore(t)
	require.NoError(t, store.Save(Token{AccessToken: "stale", RefreshToken: "r", Expiry: now.Add(-time.Minute)}))

	src := NewSource(conf, store, clock.NewManual(now), nil)

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = src.AccessToken(context.Background())
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, "renewed", r)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	persisted, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "renewed", persisted.AccessToken)
	assert.Equal(t, "r", persisted.RefreshToken, "refresh token is kept when the server omits it")
}

func TestSource_Errors(t *testing.T) {
	store := newStore(t)
	src := NewSource(&oauth2.Config{}, store, clock.NewManual(epoch), nil)

	_, err := src.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.False(t, src.Authenticated())

	require.NoError(t, src.Set(Token{AccessToken: "old", Expiry: epoch.Add(-time.Hour)}))
	_, err = src.AccessToken(context.Background())
	assert.ErrorIs(t, err, ErrNoRefreshToken)

	require.NoError(t, src.Clear())
	assert.False(t, src.Authenticated())
}

func TestOAuthConfig(t *testing.T) {
	_, err := OAuthConfig(config.SyncConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	conf, err := OAuthConfig(config.SyncConfig{ClientID: "id", RedirectPort: 8765})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8765/callback", conf.RedirectURL)
	assert.Contains(t, conf.Scopes, "openid")
}

func TestFlow_Run(t *testing.T) {
	var calls int32
	sub := idToken(t, "acct-7")
	conf := tokenServer(t, &calls, func(form url.Values) map[string]any {
		assert.Equal(t, "authorization_code", form.Get("grant_type"))
		assert.Equal(t, "the-code", form.Get("code"))
		assert.NotEmpty(t, form.Get("code_verifier"))
		return map[string]any{
			"access_token":  "access",
			"refresh_token": "refresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"id_token":      sub,
		}
	})

	flow := &Flow{
		Config:  conf,
		Timeout: 5 * time.Second,
		Open: func(authURL string) error {
			u, err := url.Parse(authURL)
			require.NoError(t, err)
			q := u.Query()
			assert.Equal(t, "S256", q.Get("code_challenge_method"))
			assert.Equal(t, "offline", q.Get("access_type"))

			go func() {
				resp, err := http.Get(q.Get("redirect_uri") + "?code=the-code&state=" + url.QueryEscape(q.Get("state")))
				if err == nil {
					resp.Body.Close()
				}
			}()
			return nil
		},
	}

	tok, err := flow.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access", tok.AccessToken)
	assert.Equal(t, "acct-7", FromOAuth2(tok, epoch).Subject())
}

func TestCallbackRouter(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
		wantErr  string
		status   int
	}{
		{"success", "?code=abc&state=s1", "abc", "", http.StatusOK},
		{"denied", "?error=access_denied&state=s1", "", "authorization denied", http.StatusBadRequest},
		{"state mismatch", "?code=abc&state=other", "", "state mismatch", http.StatusBadRequest},
		{"missing code", "?state=s1", "", "no authorization code", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make(chan callbackResult, 1)
			rec := httptest.NewRecorder()
			callbackRouter("s1", results).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil))

			assert.Equal(t, tt.status, rec.Code)
			res := <-results
			if tt.wantErr != "" {
				assert.ErrorContains(t, res.err, tt.wantErr)
				return
			}
			require.NoError(t, res.err)
			assert.Equal(t, tt.wantCode, res.code)
		})
	}
}
