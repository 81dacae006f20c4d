package relayhttp

import (
	"fmt"
	"net/http"

	"github.com/LubyRuffy/aurachat"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var corsAllowHeaders = []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"}

func RegisterGinRoutes(r gin.IRouter, cfg Config) error {
	if r == nil {
		return fmt.Errorf("router is nil")
	}
	chatHandler, err := Handler(cfg)
	if err != nil {
		return err
	}

	group := r.Group(normalizeBasePath(cfg.BasePath), corsMiddleware(cfg.AllowOrigins))
	chatPath := joinPath("/", aurachat.RelayFunctionName)
	group.POST(chatPath, gin.WrapF(chatHandler))
	// 预检请求由 cors 中间件直接应答
	group.OPTIONS(chatPath, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	group.GET("/models", gin.WrapF(handleModels))
	group.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodPost, http.MethodOptions, http.MethodGet},
		AllowHeaders:  corsAllowHeaders,
		ExposeHeaders: []string{requestIDHeader},
	}
	allowAll := len(origins) == 0
	for _, origin := range origins {
		if origin == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
