// Package configs
/*
 通过lumberjack.Logger提供滚动日志文件的支持
 写入文件时去除控制台颜色转义
*/
package configs

import (
	"regexp"

	"augment-gateway/pkg/common/consts"
	"augment-gateway/pkg/common/utils"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var colorRegexp = regexp.MustCompile(`\x1b\[[^m]+m([^ ]+)\x1b\[0m`)

type lumberjackLogger lumberjack.Logger

func (l *lumberjackLogger) Write(p []byte) (n int, err error) {
	return (*lumberjack.Logger)(l).Write(removeColorText(p))
}

func (l *lumberjackLogger) Sync() error {
	return nil
}

func removeColorText(p []byte) []byte {
	return []byte(colorRegexp.ReplaceAllString(string(p), "$1"))
}

func newFileWriteSyncer() zapcore.WriteSyncer {
	filename := utils.GetStringWithLockViper(consts.LogFilename)
	if filename == "" {
		return nil
	}

	return &lumberjackLogger{
		Filename:   filename,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
	}
}
