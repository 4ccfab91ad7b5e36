// Package configs
/*
 通过添加writeSyncer，日志会输出到控制台及滚动日志文件
 不同的启动模式，日志有不同的默认配置
 替换全局日志记录器，使得可以在全局引用同时去依赖
*/
package configs

import (
	"os"
	"time"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	loggerLevel        zapcore.Level
	loggerWriteSyncers []zapcore.WriteSyncer
)

func init() {
	utils.RegisterInitMethod(13, func() {
		var zapOptions []zap.Option
		var defaultEncoderConfig zapcore.EncoderConfig
		if utils.GetBoolWithLockViper(consts.DevMode) {
			defaultEncoderConfig = zap.NewDevelopmentEncoderConfig()
			loggerLevel = zapcore.DebugLevel
			host, _ := os.Hostname()
			zapOptions = append(zapOptions,
				zap.AddCaller(),
				zap.AddStacktrace(zap.ErrorLevel),
				zap.Fields(zap.String("hostname", host), zap.Int("pid", os.Getpid())))
		} else {
			defaultEncoderConfig = zap.NewProductionEncoderConfig()
			loggerLevel = zapcore.InfoLevel
		}

		defaultEncoderConfig.ConsoleSeparator = " "
		defaultEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		defaultEncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339Nano)

		loggerWriteSyncers = append(loggerWriteSyncers, zapcore.AddSync(os.Stdout))
		if fileSyncer := newFileWriteSyncer(); fileSyncer != nil {
			loggerWriteSyncers = append(loggerWriteSyncers, fileSyncer)
		}

		var levelEnablerFunc zap.LevelEnablerFunc = func(level zapcore.Level) bool {
			return loggerLevel.Enabled(level)
		}
		consoleCore := zapcore.NewCore(
			zapcore.NewConsoleEncoder(defaultEncoderConfig),
			zapcore.NewMultiWriteSyncer(loggerWriteSyncers...),
			levelEnablerFunc,
		)
		zap.ReplaceGlobals(zap.New(consoleCore, zapOptions...))
	})
}
