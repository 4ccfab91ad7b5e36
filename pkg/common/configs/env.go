// Package configs
/*
 通过gotenv读取工作目录下的.env配置并写入viper
 envEffectiveName根据命令行参数--active的值来添加后缀
 viper.AutomaticEnv使得环境变量始终优先生效
*/
package configs

import (
	"os"
	"strings"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const defaultEnvName = ".env"

func init() {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	utils.RegisterInitMethod(10, loadEnvFile)
}

func loadEnvFile() {
	envEffectiveName := defaultEnvName
	if mode := utils.GetStringWithLockViper(consts.ActiveMode); mode != "" {
		envEffectiveName += utils.StringDot + mode
	}

	file, err := os.Open(envEffectiveName)
	if err != nil {
		return
	}

	defer func() { _ = file.Close() }()
	for key, value := range gotenv.Parse(file) {
		if !viper.IsSet(key) {
			utils.SetWithLockViper(key, value)
		}
	}
}
