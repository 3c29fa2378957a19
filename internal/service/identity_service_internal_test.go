package service

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"learnhire_backend/internal/config"
	"learnhire_backend/internal/model"
	"learnhire_backend/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIssuer = "https://clerk.learnhire.test"

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestVerifyToken_DevSecret(t *testing.T) {
	id := NewClerkIdentity(config.AuthConfig{Issuer: testIssuer, DevSecret: "dev-secret"})
	exp := time.Now().Add(time.Hour).Unix()

	token := signHS256(t, "dev-secret", jwt.MapClaims{
		"sub": "user_1", "iss": testIssuer, "exp": exp,
		"metadata": map[string]any{"role": "educator"},
	})
	claims, err := id.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, model.UserID("user_1"), claims.UserID)
	assert.Equal(t, model.Educator, claims.EffectiveRole())

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"wrong secret", signHS256(t, "other", jwt.MapClaims{"sub": "user_1", "iss": testIssuer, "exp": exp})},
		{"wrong issuer", signHS256(t, "dev-secret", jwt.MapClaims{"sub": "user_1", "iss": "https://evil.test", "exp": exp})},
		{"expired", signHS256(t, "dev-secret", jwt.MapClaims{"sub": "user_1", "iss": testIssuer, "exp": time.Now().Add(-time.Hour).Unix()})},
		{"no expiry", signHS256(t, "dev-secret", jwt.MapClaims{"sub": "user_1", "iss": testIssuer})},
		{"no subject", signHS256(t, "dev-secret", jwt.MapClaims{"iss": testIssuer, "exp": exp})},
		{"garbage", "not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := id.VerifyToken(context.Background(), tt.token)
			assert.ErrorIs(t, err, util.ErrUnauthorized)
		})
	}
}

func TestVerifyToken_HS256RejectedWithoutDevSecret(t *testing.T) {
	id := NewClerkIdentity(config.AuthConfig{})
	token := signHS256(t, "dev-secret", jwt.MapClaims{"sub": "user_1", "exp": time.Now().Add(time.Hour).Unix()})
	_, err := id.VerifyToken(context.Background(), token)
	assert.ErrorIs(t, err, util.ErrUnauthorized)
}

func TestVerifyToken_JWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	var fetches int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fetches, 1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{{
			"kty": "RSA",
			"kid": "kid-1",
			"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	}))
	defer srv.Close()

	id := NewClerkIdentity(config.AuthConfig{JWKSURL: srv.URL})
	clock := time.Now()
	id.now = func() time.Time { return clock }
	sign := func(kid string) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
			"sub": "user_rsa", "exp": time.Now().Add(time.Hour).Unix(), "role": "student",
		})
		tok.Header["kid"] = kid
		s, err := tok.SignedString(key)
		require.NoError(t, err)
		return s
	}

	for i := 0; i < 2; i++ {
		claims, err := id.VerifyToken(context.Background(), sign("kid-1"))
		require.NoError(t, err)
		assert.Equal(t, model.UserID("user_rsa"), claims.UserID)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&fetches), "keys are cached")

	for i := 0; i < 3; i++ {
		_, err = id.VerifyToken(context.Background(), sign("kid-unknown"))
		assert.ErrorIs(t, err, util.ErrUnauthorized)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&fetches), "unknown kids do not refetch right after a fetch")

	clock = clock.Add(2 * time.Minute)
	_, err = id.VerifyToken(context.Background(), sign("kid-unknown"))
	assert.ErrorIs(t, err, util.ErrUnauthorized)
	assert.EqualValues(t, 2, atomic.LoadInt32(&fetches), "refetch allowed once the minimum interval passed")
}

func TestVerifyToken_RoleFallbackIsCached(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/users/user_2", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"user_2","public_metadata":{"role":"educator"}}`))
	}))
	defer srv.Close()

	id := NewClerkIdentity(config.AuthConfig{DevSecret: "dev", APIKey: "sk_test", APIBaseURL: srv.URL})
	token := signHS256(t, "dev", jwt.MapClaims{"sub": "user_2", "exp": time.Now().Add(time.Hour).Unix()})

	for i := 0; i < 3; i++ {
		claims, err := id.VerifyToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, model.Educator, claims.EffectiveRole())
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestFetchUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/user_3" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"user_3","first_name":"Grace","last_name":"Hopper",
			"image_url":"https://img.test/g.png","email_addresses":[{"email_address":"grace@example.com"}]}`))
	}))
	defer srv.Close()

	id := NewClerkIdentity(config.AuthConfig{APIKey: "sk_test", APIBaseURL: srv.URL})
	u, err := id.FetchUser(context.Background(), "user_3")
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", u.Name)
	assert.Equal(t, "grace@example.com", u.Email)

	u, err = id.FetchUser(context.Background(), "user_missing")
	require.NoError(t, err)
	assert.Nil(t, u)
}

// svixHeaders 按 svix 规则签名：v1,base64(HMAC-SHA256(id.ts.payload))
func svixHeaders(secret []byte, msgID string, ts time.Time, payload []byte) http.Header {
	stamp := strconv.FormatInt(ts.Unix(), 10)
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(msgID + "." + stamp + "."))
	mac.Write(payload)
	h := http.Header{}
	h.Set("svix-id", msgID)
	h.Set("svix-timestamp", stamp)
	h.Set("svix-signature", "v0,ignored v1,"+base64.StdEncoding.EncodeToString(mac.Sum(nil)))
	return h
}

func TestParseWebhook(t *testing.T) {
	secret := []byte("super-secret-signing-key")
	id := NewClerkIdentity(config.AuthConfig{WebhookSecret: "whsec_" + base64.StdEncoding.EncodeToString(secret)})
	now := time.Now()

	payload := []byte(`{"type":"user.created","data":{"id":"user_9","first_name":"Linus","last_name":"",
		"email_addresses":[{"email_address":"linus@example.com"}]}}`)

	ev, err := id.ParseWebhook(svixHeaders(secret, "msg_1", now, payload), payload)
	require.NoError(t, err)
	assert.Equal(t, "user.created", ev.Type)
	assert.Equal(t, model.UserID("user_9"), ev.User.ID)
	assert.Equal(t, "Linus", ev.User.Name)
	assert.Equal(t, "linus@example.com", ev.User.Email)

	var verr *util.ValidationError

	tampered := append([]byte(nil), payload...)
	tampered[10] = 'X'
	_, err = id.ParseWebhook(svixHeaders(secret, "msg_1", now, payload), tampered)
	assert.True(t, errors.As(err, &verr), "tampered payload")

	_, err = id.ParseWebhook(svixHeaders(secret, "msg_1", now.Add(-10*time.Minute), payload), payload)
	assert.True(t, errors.As(err, &verr), "stale timestamp")

	_, err = id.ParseWebhook(http.Header{}, payload)
	assert.True(t, errors.As(err, &verr), "missing signature headers")

	_, err = id.ParseWebhook(svixHeaders([]byte("other-key"), "msg_1", now, payload), payload)
	assert.True(t, errors.As(err, &verr), "signed with another secret")

	unsigned := NewClerkIdentity(config.AuthConfig{})
	_, err = unsigned.ParseWebhook(svixHeaders(secret, "msg_1", now, payload), payload)
	assert.True(t, errors.As(err, &verr), "no secret configured")
}
