package main

import (
	"augment-gateway/cmd"

	// 注册配置、日志、链路追踪的初始化方法及内置插件
	_ "augment-gateway/pkg/common/configs"
	_ "augment-gateway/pkg/engine/plugins"
)

var (
	GatewayVersion string
	GatewayCommit  string
)

func main() {
	cmd.Execute(GatewayVersion, GatewayCommit)
}
