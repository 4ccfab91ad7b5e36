// Package server
/*
 自定义echo中间件
*/
package server

import (
	"fmt"
	"net/http"
	"strings"

	"augment-gateway/pkg/common/consts"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

// CORS will handle the CORS middleware
func CORS(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Access-Control-Allow-Origin", "*")
		c.Response().Header().Add("Access-Control-Allow-Headers", "Content-Type,AccessToken,X-CSRF-Token, Authorization, Token, "+consts.HeaderParamAdminSecret)
		c.Response().Header().Add("Access-Control-Allow-Credentials", "true")
		c.Response().Header().Add("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		if c.Request().Method == http.MethodOptions {
			return c.NoContent(http.StatusNoContent)
		}
		return next(c)
	}
}

func RequestLoggerWithConfig() echo.MiddlewareFunc {
	return echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogURI:      true,
		LogRemoteIP: true,
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		Skipper: func(c echo.Context) bool {
			return strings.Contains(c.Request().URL.Path, "/system/health")
		},
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			logger.Info(fmt.Sprintf("%s %s %d %v %v", v.Method, v.URI, v.Status, v.Latency, v.Error))
			return nil
		},
	})
}

// RequestID 为每个请求附加唯一标识
func RequestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get(consts.HeaderParamRequestId) == "" {
			c.Request().Header.Set(consts.HeaderParamRequestId, uuid.NewString())
		}
		return next(c)
	}
}

func GzipWithConfig() echo.MiddlewareFunc {
	return echoMiddleware.GzipWithConfig(echoMiddleware.GzipConfig{Level: 5})
}
