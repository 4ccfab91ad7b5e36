// Package api
/*
 对外HTTP路由
 /graphql 为客户端入口，/graphql-internal 供协议适配器和Bridge回环使用
 /gql/:format 注入file指令后直接回写文件附件
*/
package api

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/engine/graphql"
	"augment-gateway/pkg/engine/proxy"
	"github.com/labstack/echo/v4"
)

func GraphqlRouter(e *echo.Echo, bridge *proxy.Bridge) {
	handler := &graphqlApi{bridge: bridge}
	e.POST("/graphql", handler.postOperation)
	e.POST("/graphql-internal", handler.postOperation)
	e.POST(fmt.Sprintf("/gql/:%s", consts.PathParamFormat), handler.postFileOperation)
}

type graphqlApi struct {
	bridge *proxy.Bridge
}

// @Tags graphql
// @Description "执行GraphQL operation"
// @Success 200 {object} graphql.ExecutionResult "成功"
// @Router /graphql [post]
func (g *graphqlApi) postOperation(c echo.Context) error {
	request, err := g.readRequest(c)
	if err != nil {
		return c.JSON(http.StatusOK, badRequestResult(err))
	}

	result := g.bridge.Invoke(c.Request().Context(), &proxy.InvokeOptions{
		OperationName: request.OperationName,
		Query:         request.Query,
		Variables:     request.Variables,
		Headers:       c.Request().Header,
	})
	return c.JSON(http.StatusOK, result)
}

// @Tags graphql
// @Description "执行GraphQL operation并以文件格式返回"
// @Param format path string true "CSV/TSV/JSON/HTML/MARKDOWN"
// @Success 200 {string} string "文件内容"
// @Router /gql/{format} [post]
func (g *graphqlApi) postFileOperation(c echo.Context) error {
	request, err := g.readRequest(c)
	if err != nil {
		return c.JSON(http.StatusOK, badRequestResult(err))
	}

	format := strings.ToUpper(c.Param(consts.PathParamFormat))
	result := g.bridge.Invoke(c.Request().Context(), &proxy.InvokeOptions{
		OperationName:   request.OperationName,
		Query:           request.Query,
		Variables:       request.Variables,
		Headers:         c.Request().Header,
		InjectDirective: fmt.Sprintf("@file(format: %s, output: BASE64)", format),
		Response:        c.Response(),
	})
	// 文件插件已直接写回附件
	if c.Response().Committed {
		return nil
	}
	return c.JSON(http.StatusOK, result)
}

func (g *graphqlApi) readRequest(c echo.Context) (*graphql.Request, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, err
	}
	return graphql.ParseRequestBody(body)
}

func badRequestResult(err error) *graphql.ExecutionResult {
	result := &graphql.ExecutionResult{}
	result.AddError(err, map[string]interface{}{graphql.ErrorCodeExtension: proxy.ErrorCodeInvalidGraphql})
	return result
}
