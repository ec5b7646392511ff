package controllers

import (
	"net/http"

	"Gin_postgres_redis_loan_tracker/app"
	"Gin_postgres_redis_loan_tracker/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SessionController struct{ *Srv }

func NewSessionController(s *Srv) *SessionController { return &SessionController{Srv: s} }

// POST /api/session trades a verified bearer token for a session cookie.
func (sc *SessionController) Create(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	p := session.Principal{UID: a.UID, Email: a.Email}
	if a.IsAdmin {
		p.Role = session.RoleAdmin
	}
	id := uuid.NewString()
	if err := sc.AppSess.Create(c.Request.Context(), id, p); err != nil {
		sc.writeErr(c, err)
		return
	}
	sc.setAppCookie(c.Writer, id, sc.AppSess.TTL())
	sc.Log.Info("session created", zap.String("uid", a.UID))
	c.JSON(http.StatusCreated, app.H{"uid": a.UID, "email": a.Email, "isAdmin": a.IsAdmin})
}

// GET /api/session
func (sc *SessionController) WhoAmI(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, app.H{"uid": a.UID, "email": a.Email, "isAdmin": a.IsAdmin})
}

// DELETE /api/session[?all=true]
func (sc *SessionController) Delete(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if c.Query("all") == "true" {
		if err := sc.AppSess.RevokeAllForUser(ctx, a.UID); err != nil {
			sc.writeErr(c, err)
			return
		}
	} else if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		if err := sc.AppSess.Delete(ctx, ck.Value); err != nil {
			sc.writeErr(c, err)
			return
		}
	}
	sc.clearAppCookie(c.Writer)
	c.JSON(http.StatusOK, app.H{"ok": true})
}
