// Package server
/*
 项目启动
 组装schema持有器、插件管线、调度器和Bridge并注册路由
 收到SIGINT/SIGTERM后优雅关停
*/
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"augment-gateway/pkg/api"
	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"augment-gateway/pkg/engine/directives"
	"augment-gateway/pkg/engine/pipeline"
	"augment-gateway/pkg/engine/proxy"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

var logger *zap.Logger

// Run 启动网关并阻塞到终止信号
func Run(beforeStarted func()) {
	logger = zap.L()

	plugins := directives.EnabledPlugins()
	holder := proxy.NewSchemaHolder(plugins)
	if err := holder.Reload(); err != nil {
		// 启动时上游不可达不致命，旧schema缺位时校验被跳过
		logger.Warn("initial schema load failed", zap.Error(err))
	}
	holder.StartPeriodicRefresh()

	runner := pipeline.NewRunner(plugins)
	dispatcher := proxy.NewDispatcher(runner, holder)
	bridge := proxy.NewBridge(dispatcher)

	e := initEchoRoot(holder, bridge)
	address := fmt.Sprintf(":%s", utils.GetStringWithLockViper(consts.EnginePort))
	logger.Info("gateway started",
		zap.String("address", address),
		zap.Int("pluginCount", len(plugins)))
	go beforeStarted()
	go func() {
		if err := e.Start(address); err != nil && err != http.ErrServerClosed {
			logger.Error("gateway stopped", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("gateway shutdown failed", zap.Error(err))
	}
}

func initEchoRoot(holder *proxy.SchemaHolder, bridge *proxy.Bridge) *echo.Echo {
	e := echo.New()
	e.HideBanner, e.HidePort = true, true
	e.HTTPErrorHandler = httpErrorHandler
	e.Use(echoMiddleware.Recover(), CORS, RequestLoggerWithConfig(), RequestID, GzipWithConfig())

	api.GraphqlRouter(e, bridge)
	apiRouter := e.Group("/api")
	api.SchemaRouter(apiRouter, holder)
	api.SystemRouter(apiRouter)
	return e
}

// 错误统一处理
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		httpErr = echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	logger.Warn("request failed", zap.String("path", c.Request().URL.Path), zap.Error(err))
	if jsonErr := c.JSON(httpErr.Code, map[string]interface{}{"message": httpErr.Message}); jsonErr != nil {
		logger.Error("error writing error response", zap.Error(jsonErr))
	}
}
