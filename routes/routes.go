package routes

import (
	"Gin_postgres_redis_loan_tracker/app"
	"Gin_postgres_redis_loan_tracker/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	s := controllers.GetSrv(a)
	authMW := app.AuthRequired(a.Tokens, a.AppSessions(), a.Config)
	Register(r, s, authMW, a.RateLimit())
}

// Register mounts the API on r. auth must put a loans.Actor on the context;
// limit guards the mutating routes.
func Register(r *gin.Engine, s *controllers.Srv, auth, limit gin.HandlerFunc) {
	sessCtl := controllers.NewSessionController(s)
	eqCtl := controllers.NewEquipmentController(s)
	reqCtl := controllers.NewLoanRequestController(s)
	adminMW := app.AdminOnly()

	api := r.Group("/api", auth)

	// ------------------------------
	// Session
	// ------------------------------
	api.POST("/session", limit, sessCtl.Create)
	api.GET("/session", sessCtl.WhoAmI)
	api.DELETE("/session", sessCtl.Delete)

	// ------------------------------
	// Equipment catalog
	// ------------------------------
	api.GET("/equipment", eqCtl.List)
	eqAdmin := api.Group("/equipment", adminMW, limit)
	{
		eqAdmin.POST("", eqCtl.Create)
		eqAdmin.PATCH("/:id", eqCtl.Patch)
		eqAdmin.DELETE("/:id", eqCtl.Delete)
	}

	// ------------------------------
	// Loan requests (requester)
	// ------------------------------
	reqs := api.Group("/requests")
	{
		reqs.POST("", limit, reqCtl.Submit)
		reqs.GET("/mine", reqCtl.Mine)
		reqs.GET("/:id", reqCtl.Get)
		reqs.GET("/:id/events", reqCtl.Events)
		reqs.POST("/:id/cancel", limit, reqCtl.Cancel)
	}

	// ------------------------------
	// Loan requests (admin)
	// ------------------------------
	reqAdmin := api.Group("/requests", adminMW)
	{
		reqAdmin.GET("", reqCtl.Search)
		reqAdmin.GET("/pending", reqCtl.Pending)
		reqAdmin.POST("/:id/approve", limit, reqCtl.Approve)
		reqAdmin.POST("/:id/reject", limit, reqCtl.Reject)
		reqAdmin.POST("/:id/return", limit, reqCtl.Return)
	}
}
