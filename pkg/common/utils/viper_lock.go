package utils

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/viper"
)

var viperMutex = &sync.Mutex{}

// SetWithLockViper 带锁设置viper的值
func SetWithLockViper(key string, value interface{}) {
	viperMutex.Lock()
	defer viperMutex.Unlock()

	viper.Set(key, value)
	_ = os.Setenv(key, fmt.Sprintf("%v", value))
}

// GetBoolWithLockViper 带锁获取viper中的bool值
func GetBoolWithLockViper(key string) bool {
	viperMutex.Lock()
	defer viperMutex.Unlock()

	return viper.GetBool(key)
}

// GetStringWithLockViper 带锁获取viper中的string值
func GetStringWithLockViper(key string) string {
	viperMutex.Lock()
	defer viperMutex.Unlock()

	return viper.GetString(key)
}

// GetIntWithLockViper 带锁获取viper中的int值
func GetIntWithLockViper(key string) int {
	viperMutex.Lock()
	defer viperMutex.Unlock()

	return viper.GetInt(key)
}

// GetStringSliceWithLockViper 带锁获取viper中的string切片
func GetStringSliceWithLockViper(key string) []string {
	viperMutex.Lock()
	defer viperMutex.Unlock()

	return viper.GetStringSlice(key)
}
