package api

import (
	"net/http"
	"strings"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"augment-gateway/pkg/engine/proxy"
	"augment-gateway/pkg/engine/servicedef"
	"github.com/labstack/echo/v4"
)

func SchemaRouter(router *echo.Group, holder *proxy.SchemaHolder) {
	handler := &schemaApi{holder: holder}
	schemaRouter := router.Group("/schema")
	schemaRouter.GET("", handler.getSchema)
	schemaRouter.POST("/reload", handler.reloadSchema)

	servicedefRouter := router.Group("/servicedef")
	servicedefRouter.GET("/proto", handler.getProto)
	servicedefRouter.GET("/jsonschema", handler.getJsonSchema)
}

type schemaApi struct {
	holder *proxy.SchemaHolder
}

// @Tags schema
// @Description "当前合并schema的SDL"
// @Success 200 {string} string "成功"
// @Router /api/schema [get]
func (s *schemaApi) getSchema(c echo.Context) error {
	return c.String(http.StatusOK, s.holder.SDL())
}

// @Tags schema
// @Description "重新拉取上游SDL并原子替换合并schema"
// @Success 200 {object} map[string]any "成功"
// @Router /api/schema/reload [post]
func (s *schemaApi) reloadSchema(c echo.Context) error {
	if err := s.holder.Reload(); err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}

	current := s.holder.Current()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"reloaded": true,
		"mergedAt": utils.TimeFormat(current.MergedAt),
	})
}

// @Tags schema
// @Description "proto3形式的服务描述"
// @Success 200 {string} string "成功"
// @Router /api/servicedef/proto [get]
func (s *schemaApi) getProto(c echo.Context) error {
	definition := servicedef.FromSchema(s.holder.Schema(), serviceName())
	rendered, err := definition.RenderProto("gateway")
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.String(http.StatusOK, rendered)
}

// @Tags schema
// @Description "JSON Schema形式的服务描述"
// @Success 200 {object} map[string]any "成功"
// @Router /api/servicedef/jsonschema [get]
func (s *schemaApi) getJsonSchema(c echo.Context) error {
	definition := servicedef.FromSchema(s.holder.Schema(), serviceName())
	rendered, err := definition.JSONSchema()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSONBlob(http.StatusOK, rendered)
}

// serviceName 网关名转为合法的服务标识
func serviceName() string {
	words := strings.Split(consts.GatewayName, "-")
	for i := range words {
		words[i] = utils.UppercaseFirst(words[i])
	}
	return strings.Join(words, "")
}
