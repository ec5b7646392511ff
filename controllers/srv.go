// controllers/srv.go
package controllers

import (
	"context"
	"net/http"
	"time"

	"Gin_postgres_redis_loan_tracker/app"
	"Gin_postgres_redis_loan_tracker/db"
	"Gin_postgres_redis_loan_tracker/loans"
	"Gin_postgres_redis_loan_tracker/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionStore interface {
	Create(ctx context.Context, id string, p session.Principal) error
	Get(ctx context.Context, id string) (*session.AppSession, error)
	Delete(ctx context.Context, id string) error
	RevokeAllForUser(ctx context.Context, uid string) error
	TTL() time.Duration
}

type IdempotencyGuard interface {
	Reserve(ctx context.Context, uid, key string) (requestID string, reserved bool, err error)
	Complete(ctx context.Context, uid, key, requestID string) error
	Release(ctx context.Context, uid, key string) error
}

type Srv struct {
	Loans   *loans.Service
	Repo    *db.Repo
	AppSess SessionStore
	Idem    IdempotencyGuard
	Cfg     app.Config
	Log     *zap.Logger
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Loans:   a.Loans,
		Repo:    a.Repo(),
		AppSess: a.AppSessions(),
		Idem:    a.Idempotency(),
		Cfg:     a.Config,
		Log:     a.Log,
	}
}

// --- helpers ---

func (s *Srv) setAppCookie(w http.ResponseWriter, sessionID string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.Cfg.SecureCookies(),
		MaxAge:   int(maxAge / time.Second),
	})
}

func (s *Srv) clearAppCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.Cfg.SecureCookies(),
	})
}

// actor is set by app.AuthRequired; handlers behind it can rely on it.
func actor(c *gin.Context) (loans.Actor, bool) {
	a, ok := app.ActorFrom(c)
	if !ok {
		app.Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	}
	return a, ok
}
