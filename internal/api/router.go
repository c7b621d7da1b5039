package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "errdeck/internal/api/context"
	"errdeck/internal/api/handlers"
	"errdeck/internal/api/middleware"
)

type Dependencies struct {
	AppHandler     *handlers.AppHandler
	UserHandler    *handlers.UserHandler
	HealthHandler  *handlers.HealthHandler
	AuthMiddleware *middleware.AuthMiddleware
	LoginLimiter   *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/healthz", wrap(deps.HealthHandler.Check))

	// Account bootstrap and login are public
	router.POST("/api/v1/users", wrap(deps.UserHandler.Create))
	router.POST("/api/v1/users/login", chain(deps.UserHandler.Login, deps.LoginLimiter.Handle))
	router.GET("/api/v1/users/count", wrap(deps.UserHandler.Count))
	router.GET("/api/v1/users/admin-name", wrap(deps.UserHandler.AdminName))

	authMid := deps.AuthMiddleware

	// Account management
	router.GET("/api/v1/users", chain(deps.UserHandler.List, authMid.Handle))
	router.GET("/api/v1/users/me", chain(deps.UserHandler.GetProfile, authMid.Handle))
	router.PATCH("/api/v1/users/me", chain(deps.UserHandler.UpdateProfile, authMid.Handle))
	router.PATCH("/api/v1/users/me/password", chain(deps.UserHandler.UpdatePassword, authMid.Handle))
	router.POST("/api/v1/users/add", chain(deps.UserHandler.Add, authMid.Handle))
	router.DELETE("/api/v1/users/:user_id", chain(deps.UserHandler.Remove, authMid.Handle))

	// App metadata
	router.GET("/api/v1/app/updates", chain(deps.AppHandler.CheckUpdates, authMid.Handle))

	// Integration settings
	router.GET("/api/v1/integrations/slack", chain(deps.AppHandler.GetSlackDetails, authMid.Handle))
	router.POST("/api/v1/integrations/slack", chain(deps.AppHandler.AddSlackDetails, authMid.Handle))
	router.PATCH("/api/v1/integrations/slack", chain(deps.AppHandler.UpdateSlackDetails, authMid.Handle))
	router.DELETE("/api/v1/integrations/slack", chain(deps.AppHandler.DeleteSlackDetails, authMid.Handle))
	router.POST("/api/v1/integrations/slack/test", chain(deps.AppHandler.TestSlackNotification, authMid.Handle))

	router.GET("/api/v1/integrations/email", chain(deps.AppHandler.GetEmailDetails, authMid.Handle))
	router.POST("/api/v1/integrations/email", chain(deps.AppHandler.AddEmailDetails, authMid.Handle))
	router.PATCH("/api/v1/integrations/email", chain(deps.AppHandler.UpdateEmailDetails, authMid.Handle))
	router.DELETE("/api/v1/integrations/email", chain(deps.AppHandler.DeleteEmailDetails, authMid.Handle))
	router.POST("/api/v1/integrations/email/test", chain(deps.AppHandler.TestEmailNotification, authMid.Handle))

	router.GET("/api/v1/integrations/alert-url", chain(deps.AppHandler.GetAlertURLDetails, authMid.Handle))
	router.POST("/api/v1/integrations/alert-url", chain(deps.AppHandler.AddAlertURLDetails, authMid.Handle))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
