package app

import (
	"Gin_postgres_redis_loan_tracker/loans"
	"Gin_postgres_redis_loan_tracker/session"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSessions map[string]session.Principal

func (m memSessions) Get(_ context.Context, id string) (*session.AppSession, error) {
	p, ok := m[id]
	if !ok {
		return nil, errors.New("redis: nil")
	}
	return &session.AppSession{Principal: p}, nil
}

func newAuthRouter(tokens *session.Tokens, sess SessionReader, cfg Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthRequired(tokens, sess, cfg), func(c *gin.Context) {
		a, _ := ActorFrom(c)
		c.JSON(http.StatusOK, a)
	})
	r.GET("/admin", AuthRequired(tokens, sess, cfg), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthRequired(t *testing.T) {
	tokens := session.NewTokens("s3cret", time.Hour)
	cfg := Config{AdminEmails: []string{"boss@example.com"}}
	sess := memSessions{"sid-1": {UID: "u-cookie", Email: "cookie@example.com"}}
	r := newAuthRouter(tokens, sess, cfg)

	staffTok, err := tokens.Issue(session.Principal{UID: "u-1", Email: "Staff@Example.com"})
	require.NoError(t, err)
	roleTok, err := tokens.Issue(session.Principal{UID: "u-2", Email: "x@example.com", Role: session.RoleAdmin})
	require.NoError(t, err)
	listedTok, err := tokens.Issue(session.Principal{UID: "u-3", Email: "BOSS@example.com"})
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		cookie string
		status int
		want   loans.Actor
	}{
		{"no credentials", "", "", http.StatusUnauthorized, loans.Actor{}},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized, loans.Actor{}},
		{"unknown cookie", "", "sid-x", http.StatusUnauthorized, loans.Actor{}},
		{"staff token", "Bearer " + staffTok, "", http.StatusOK, loans.Actor{UID: "u-1", Email: "staff@example.com"}},
		{"admin role", "bearer " + roleTok, "", http.StatusOK, loans.Actor{UID: "u-2", Email: "x@example.com", IsAdmin: true}},
		{"admin email", "Bearer " + listedTok, "", http.StatusOK, loans.Actor{UID: "u-3", Email: "boss@example.com", IsAdmin: true}},
		{"cookie", "", "sid-1", http.StatusOK, loans.Actor{UID: "u-cookie", Email: "cookie@example.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AppSessionCookie, Value: tc.cookie})
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tc.status, w.Code, w.Body.String())
			if tc.status != http.StatusOK {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, "UNAUTHORIZED", body["code"])
				return
			}
			var got loans.Actor
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAdminOnly(t *testing.T) {
	tokens := session.NewTokens("s3cret", time.Hour)
	r := newAuthRouter(tokens, memSessions{}, Config{})

	staffTok, err := tokens.Issue(session.Principal{UID: "u-1"})
	require.NoError(t, err)
	adminTok, err := tokens.Issue(session.Principal{UID: "u-2", Role: session.RoleAdmin})
	require.NoError(t, err)

	for tok, want := range map[string]int{staffTok: http.StatusForbidden, adminTok: http.StatusNoContent} {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code)
	}
}
