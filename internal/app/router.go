package app

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"seatledger.io/ledger/internal/api/handlers"
	"seatledger.io/ledger/internal/api/middleware"
	"seatledger.io/ledger/internal/config"
	"seatledger.io/ledger/internal/pkg/logger"
)

const apiBasePath = "/api/v1"

// defaultDevOrigins are allowed when no origins are configured.
var defaultDevOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
}

func newRouter(cfg *config.Config, server *handlers.Server, jwtCfg middleware.JWTConfig, admins middleware.AdminChecker) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		cors.New(buildCORSConfig(cfg)),
		middleware.PrometheusMetrics(),
		middleware.MustOpenAPIValidator(apiBasePath),
		middleware.ErrorHandler(),
	)

	server.RegisterHealth(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logLevel := router.Group("/log/level", middleware.JWTAuth(jwtCfg), middleware.RequireStoreAdmin(admins))
	logLevel.GET("", gin.WrapH(logger.HTTPHandler()))
	logLevel.PUT("", gin.WrapH(logger.HTTPHandler()))

	api := router.Group(apiBasePath, middleware.JWTAuth(jwtCfg))
	server.RegisterRoutes(api)
	return router
}

// buildCORSConfig never combines a wildcard origin with credentials.
func buildCORSConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: cfg.Server.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}

	if cfg.Server.UnsafeAllowAllOrigins {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
		return corsCfg
	}

	origins := make([]string, 0, len(cfg.Server.AllowedOrigins))
	for _, origin := range cfg.Server.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" || origin == "*" {
			continue
		}
		origins = append(origins, origin)
	}
	if len(origins) == 0 {
		origins = append(origins, defaultDevOrigins...)
	}
	corsCfg.AllowOrigins = origins
	return corsCfg
}
