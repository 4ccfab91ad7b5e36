package api

import (
	"net/http"
	"time"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"github.com/labstack/echo/v4"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
)

func SystemRouter(router *echo.Group) {
	handler := &systemApi{startedAt: time.Now()}
	systemRouter := router.Group("/system")
	systemRouter.GET("/health", handler.getHealth)
	systemRouter.GET("/load", handler.getLoad)
}

type systemApi struct {
	startedAt time.Time
}

// @Tags system
// @Description "运行状态"
// @Success 200 {object} map[string]any "成功"
// @Router /api/system/health [get]
func (s *systemApi) getHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		consts.ActiveMode: utils.GetStringWithLockViper(consts.ActiveMode),
		consts.DevMode:    utils.GetBoolWithLockViper(consts.DevMode),
		"version":         utils.GetStringWithLockViper(consts.GatewayVersion),
		"uptimeSeconds":   int64(time.Since(s.startedAt).Seconds()),
	})
}

// @Tags system
// @Description "主机负载"
// @Success 200 {object} map[string]any "成功"
// @Router /api/system/load [get]
func (s *systemApi) getLoad(c echo.Context) error {
	load := make(map[string]interface{}, 3)
	if hostInfo, err := host.Info(); err == nil {
		load["host"] = map[string]interface{}{
			"hostname":      hostInfo.Hostname,
			"os":            hostInfo.OS,
			"platform":      hostInfo.Platform,
			"uptimeSeconds": hostInfo.Uptime,
		}
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		load["cpuPercent"] = percents[0]
	}
	if virtualMemory, err := mem.VirtualMemory(); err == nil {
		load["memory"] = map[string]interface{}{
			"total":       virtualMemory.Total,
			"available":   virtualMemory.Available,
			"usedPercent": virtualMemory.UsedPercent,
		}
	}
	return c.JSON(http.StatusOK, load)
}
