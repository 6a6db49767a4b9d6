package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/mfe-orchestrator/internal/http/handlers"
	httpMW "github.com/yungbote/mfe-orchestrator/internal/http/middleware"
	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *httpMW.AuthMiddleware

	ServeHandler          *httpH.ServeHandler
	DeploymentHandler     *httpH.DeploymentHandler
	CanaryUserHandler     *httpH.CanaryUserHandler
	MicrofrontendHandler  *httpH.MicrofrontendHandler
	GlobalVariableHandler *httpH.GlobalVariableHandler
	HealthHandler         *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	// Serve (public, anonymous). Mixed id/slug routes share a prefix at
	// different arities, so params are registered generically and decoded
	// in the handler.
	if cfg.ServeHandler != nil {
		serve := r.Group("/serve")
		{
			serve.GET("/all/:a", cfg.ServeHandler.GetAllByEnvironment)
			serve.GET("/all/:a/:b", cfg.ServeHandler.GetAllByProjectAndSlug)
			serve.GET("/deployment/:deploymentId", cfg.ServeHandler.GetByDeployment)
			serve.GET("/mfe/:a", cfg.ServeHandler.GetMicrofrontend)
			serve.GET("/mfe/:a/:b", cfg.ServeHandler.GetMicrofrontend)
			serve.GET("/mfe/:a/:b/:c", cfg.ServeHandler.GetMicrofrontendBySlug)
			serve.GET("/global-variables/:a", cfg.ServeHandler.GetVariablesByEnvironment)
			serve.GET("/global-variables/:a/:b", cfg.ServeHandler.GetVariablesByProjectAndSlug)
		}
	}

	// Management (authenticated)
	api := r.Group("/api")
	{
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.DeploymentHandler != nil {
			api.POST("/deployments", cfg.DeploymentHandler.CreateForEnvironments)
			api.POST("/deployments/environment/:environmentId", cfg.DeploymentHandler.Create)
			api.GET("/deployments/environment/:environmentId", cfg.DeploymentHandler.ListByEnvironment)
			api.POST("/deployments/:deploymentId/redeploy", cfg.DeploymentHandler.Redeploy)
		}

		if cfg.CanaryUserHandler != nil {
			api.GET("/deployment/:deploymentId/canary-users", cfg.CanaryUserHandler.List)
			api.POST("/deployment/:deploymentId/canary-users", cfg.CanaryUserHandler.Upsert)
			api.DELETE("/deployment/:deploymentId/canary-users", cfg.CanaryUserHandler.Delete)
		}

		if cfg.MicrofrontendHandler != nil {
			api.GET("/environments/:environmentId/microfrontends", cfg.MicrofrontendHandler.ListByEnvironment)
			api.POST("/microfrontends", cfg.MicrofrontendHandler.Create)
			api.PUT("/microfrontends/:id", cfg.MicrofrontendHandler.Update)
		}

		if cfg.GlobalVariableHandler != nil {
			api.GET("/environments/:environmentId/global-variables", cfg.GlobalVariableHandler.ListByEnvironment)
			api.PUT("/environments/:environmentId/global-variables", cfg.GlobalVariableHandler.Set)
			api.DELETE("/environments/:environmentId/global-variables", cfg.GlobalVariableHandler.Delete)
		}
	}

	return r
}
