package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", time.Second)
}

func TestClientLoginSuccess(t *testing.T) {
	expires := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req LoginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, LoginRequest{Identifier: "24104156040", Password: "secret1"}, req)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(LoginResponse{
			Success: true,
			Session: &Session{UserID: "42", Identifier: "24104156040", Role: "student", Token: "tok", ExpiresAt: expires},
		})
	})

	res, err := c.Login(context.Background(), "24104156040", "secret1")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotNil(t, res.Session)
	assert.Equal(t, "42", res.Session.UserID)
	assert.Equal(t, "tok", res.Session.Token)
	assert.True(t, expires.Equal(res.Session.ExpiresAt))
}

func TestClientLoginRejected(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(LoginResponse{Error: "Invalid Registration Number or Password"})
	})

	res, err := c.Login(context.Background(), "24104156040", "wrong-pw")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Nil(t, res.Session)
	assert.Equal(t, "Invalid Registration Number or Password", res.Message)
}

func TestClientLoginRejectedWithoutMessage(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"success":false}`))
	})

	res, err := c.Login(context.Background(), "CS123456", "secret1")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, res.Message)
}

func TestClientLoginUnavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"bad gateway with json", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte(`{"success":false,"error":"upstream"}`))
		}},
		{"not json", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("nope"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, tt.handler)
			res, err := c.Login(context.Background(), "24104156040", "secret1")
			assert.Nil(t, res)
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestClientLoginSuccessWithoutSession(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})

	res, err := c.Login(context.Background(), "24104156040", "secret1")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Nil(t, res.Session)
}

func TestClientLoginTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res, err := NewClient(url, 200*time.Millisecond).Login(context.Background(), "24104156040", "secret1")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFuncAdapter(t *testing.T) {
	var g Gateway = Func(func(ctx context.Context, identifier, password string) (*AuthResult, error) {
		return &AuthResult{Success: identifier == "a@b.co"}, nil
	})
	res, err := g.Login(context.Background(), "a@b.co", "secret1")
	require.NoError(t, err)
	assert.True(t, res.Success)
}
