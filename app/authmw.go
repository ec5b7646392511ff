package app

import (
	"Gin_postgres_redis_loan_tracker/loans"
	"Gin_postgres_redis_loan_tracker/session"
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const AppSessionCookie = "loan_session"

const actorKey = "actor"

type SessionReader interface {
	Get(ctx context.Context, id string) (*session.AppSession, error)
}

// AuthRequired resolves the caller from a bearer token or, failing that, the
// session cookie, and stores a loans.Actor on the context. Admin comes from
// the token's role claim or ADMIN_EMAILS.
func AuthRequired(tokens *session.Tokens, sessions SessionReader, cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var p *session.Principal

		if raw, ok := bearer(c.GetHeader("Authorization")); ok {
			v, err := tokens.Verify(raw)
			if err != nil {
				Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
				return
			}
			p = v
		} else if ck, err := c.Request.Cookie(AppSessionCookie); err == nil && ck.Value != "" {
			as, err := sessions.Get(c.Request.Context(), ck.Value)
			if err != nil {
				Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session")
				return
			}
			p = &as.Principal
		}
		if p == nil {
			Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
			return
		}

		c.Set(actorKey, loans.Actor{
			UID:     p.UID,
			Email:   strings.ToLower(p.Email),
			IsAdmin: p.Role == session.RoleAdmin || cfg.IsAdminEmail(p.Email),
		})
		c.Next()
	}
}

func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := ActorFrom(c)
		if !ok {
			Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
			return
		}
		if !a.IsAdmin {
			Abort(c, http.StatusForbidden, "FORBIDDEN", "forbidden")
			return
		}
		c.Next()
	}
}

func ActorFrom(c *gin.Context) (loans.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return loans.Actor{}, false
	}
	a, ok := v.(loans.Actor)
	return a, ok
}

func Abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, H{"error": msg, "code": code})
}

func bearer(h string) (string, bool) {
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}
