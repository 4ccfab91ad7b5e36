// Package proxy
/*
 代理核心：schema合并、指令剥离、请求调度和进程内重入
 通过联邦自省从上游引擎拉取SDL，合并所有启用插件的指令声明和补充定义
 合并结果以原子指针持有，重载失败时旧schema继续服务
*/
package proxy

import (
	"fmt"
	"sync/atomic"
	"time"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"augment-gateway/pkg/engine/directives"
	json "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"go.uber.org/zap"
)

const sdlQuery = `query SDLQuery { _service { sdl } }`

const sdlQueryTimeout = 30

type (
	MergedSchema struct {
		Schema     *ast.Schema
		EngineSDL  string
		PluginsSDL string
		MergedAt   time.Time
	}
	SchemaHolder struct {
		plugins []directives.Plugin
		current atomic.Pointer[MergedSchema]
		logger  *zap.Logger
	}
)

func NewSchemaHolder(plugins []directives.Plugin) *SchemaHolder {
	return &SchemaHolder{plugins: plugins, logger: zap.L()}
}

// Current 当前生效的合并schema，未加载成功时为nil
func (h *SchemaHolder) Current() *MergedSchema {
	return h.current.Load()
}

// Schema nil安全地返回当前schema
func (h *SchemaHolder) Schema() *ast.Schema {
	if current := h.current.Load(); current != nil {
		return current.Schema
	}
	return nil
}

// SDL 当前合并schema的完整SDL文本
func (h *SchemaHolder) SDL() string {
	current := h.current.Load()
	if current == nil {
		return ""
	}
	return current.EngineSDL + "\n" + current.PluginsSDL
}

// Reload 重新拉取上游SDL并合并插件定义，成功后原子替换当前schema
// 读取方永远不会观察到构建中的schema；失败时保持旧schema服务
func (h *SchemaHolder) Reload() error {
	engineSDL, err := h.fetchEngineSDL()
	if err != nil {
		return err
	}

	pluginsSDL := directives.RenderPluginsSDL(h.plugins)
	schema, err := gqlparser.LoadSchema(
		&ast.Source{Name: "engine.graphql", Input: engineSDL},
		&ast.Source{Name: "plugins.graphql", Input: pluginsSDL},
	)
	if err != nil {
		return err
	}

	h.current.Store(&MergedSchema{
		Schema:     schema,
		EngineSDL:  engineSDL,
		PluginsSDL: pluginsSDL,
		MergedAt:   time.Now(),
	})
	h.logger.Info("schema reloaded", zap.Int("typeCount", len(schema.Types)))
	return nil
}

// StartPeriodicRefresh 按照配置的间隔定期重载schema，重载失败只记录日志
func (h *SchemaHolder) StartPeriodicRefresh() {
	seconds := utils.GetIntWithLockViper(consts.SchemaRefreshSeconds)
	if seconds <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(time.Duration(seconds) * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := h.Reload(); err != nil {
				h.logger.Error("periodic schema reload failed", zap.Error(err))
			}
		}
	}()
}

// fetchEngineSDL 通过联邦自省查询拉取上游引擎的SDL
func (h *SchemaHolder) fetchEngineSDL() (string, error) {
	engineUri := utils.GetStringWithLockViper(consts.HasuraUri)
	if engineUri == "" {
		return "", fmt.Errorf("%s required", consts.HasuraUri)
	}

	reqBody, err := json.Marshal(map[string]string{
		consts.GraphqlKeyOperationName: "SDLQuery",
		consts.GraphqlKeyQuery:         sdlQuery,
	})
	if err != nil {
		return "", err
	}

	headers := map[string]string{consts.HeaderParamContentType: consts.ContentTypeJson}
	if adminSecret := utils.GetStringWithLockViper(consts.HasuraAdminSecret); adminSecret != "" {
		headers[consts.HeaderParamAdminSecret] = adminSecret
	}
	respBody, err := utils.HttpPost(engineUri, reqBody, headers, sdlQueryTimeout)
	if err != nil {
		return "", err
	}

	sdl := gjson.GetBytes(respBody, utils.JoinString(utils.StringDot,
		consts.GraphqlKeyData, consts.GraphqlFederationField, "sdl"))
	if !sdl.Exists() {
		return "", fmt.Errorf("engine introspection response missing %s.sdl", consts.GraphqlFederationField)
	}
	return sdl.String(), nil
}
