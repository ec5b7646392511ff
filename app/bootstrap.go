// app/bootstrap.go
package app

import (
	"fmt"
	"io"

	"Gin_postgres_redis_loan_tracker/session"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BootstrapAdminToken mints an admin bearer token for BOOTSTRAP_ADMIN_EMAIL so
// a fresh install can be driven before the identity provider is wired up.
// The token itself goes to out once (stderr in main), never to the log sink.
func BootstrapAdminToken(cfg Config, tokens *session.Tokens, lg *zap.Logger, out io.Writer) {
	if cfg.BootstrapEmail == "" {
		return
	}
	p := session.Principal{
		UID:   "bootstrap-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(cfg.BootstrapEmail)).String(),
		Email: cfg.BootstrapEmail,
		Role:  session.RoleAdmin,
	}
	raw, err := tokens.Issue(p)
	if err != nil {
		lg.Error("bootstrap token failed", zap.Error(err))
		return
	}
	lg.Warn("[BOOTSTRAP] admin token issued; printed once on stderr",
		zap.String("email", p.Email),
		zap.String("uid", p.UID),
		zap.Duration("ttl", cfg.SessionTTL))
	fmt.Fprintf(out, "[BOOTSTRAP] Authorization: Bearer %s\n", raw)
}
