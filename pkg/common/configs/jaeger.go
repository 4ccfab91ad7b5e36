// Package configs
/*
 优先读取JAEGER_CONFIG_FILE指向的yaml配置，否则回退到jaeger的环境变量配置
 初始化后替换opentracing全局tracer，插件管线以span形式记录指令参数
*/
package configs

import (
	"os"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"github.com/ghodss/yaml"
	"github.com/opentracing/opentracing-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	jaegerlog "github.com/uber/jaeger-client-go/log"
	"go.uber.org/zap"
)

type jaegerConfiguration struct {
	jaegercfg.Configuration
}

func (j *jaegerConfiguration) setGlobalTracer() {
	yamlConfig := &j.Configuration
	if _, err := yamlConfig.FromEnv(); err != nil {
		zap.L().Error("setGlobalTracer FromEnv failed", zap.Error(err))
		return
	}
	if yamlConfig.Disabled {
		return
	}

	if yamlConfig.ServiceName == "" {
		yamlConfig.ServiceName = consts.GatewayName
	}
	yamlConfig.Gen128Bit = true
	tracer, _, err := yamlConfig.NewTracer(jaegercfg.Logger(jaegerlog.StdLogger))
	if err != nil {
		zap.L().Error("setGlobalTracer NewTracer failed", zap.Error(err))
		return
	}

	opentracing.SetGlobalTracer(tracer)
}

func init() {
	utils.RegisterInitMethod(15, func() {
		config := &jaegerConfiguration{}
		if filename := utils.GetStringWithLockViper(consts.JaegerConfigFile); filename != "" {
			content, err := os.ReadFile(filename)
			if err != nil {
				zap.L().Error("read jaeger config failed", zap.Error(err))
				return
			}
			if err = yaml.Unmarshal(content, config); err != nil {
				zap.L().Error("unmarshal jaeger config failed", zap.Error(err))
				return
			}
		}
		config.setGlobalTracer()
	})
}
