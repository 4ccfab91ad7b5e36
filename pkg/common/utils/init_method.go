package utils

import (
	"sync"

	"golang.org/x/exp/slices"
)

var (
	initMethods []*initMethod
	initMutex   = &sync.Mutex{}
)

type initMethod struct {
	order  int
	index  int
	method func()
}

// RegisterInitMethod 注册初始化函数，使得原本不可控的init函数得以按顺序执行
// 编排系统启动时的初始化函数
func RegisterInitMethod(order int, method func()) {
	initMutex.Lock()
	defer initMutex.Unlock()

	initMethods = append(initMethods, &initMethod{
		order:  order,
		index:  len(initMethods),
		method: method,
	})
}

// ExecuteInitMethods 执行初始化函数，order优先，同order按照注册顺序
func ExecuteInitMethods() {
	initMutex.Lock()
	defer initMutex.Unlock()

	slices.SortStableFunc(initMethods, func(a, b *initMethod) bool {
		return a.order < b.order || a.order == b.order && a.index < b.index
	})

	for _, item := range initMethods {
		item.method()
	}
}
