// Package shutdown 把异步上下文（信号转发 goroutine、服务控制回调）中的请求
// 投递到 dispatcher 可观察的 socket 上。
//
// Post 可以在任意 goroutine 上调用：它只做原子读、原子 CAS 和一次 write，
// 不加锁、不分配、不记录日志。
package shutdown

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/davinci26/envoy/internal/assert"
)

// Key 为逻辑信号
type Key int

const (
	Terminate Key = iota
	Interrupt
	ReopenLogs
	Hangup

	numKeys
)

var keyNames = [numKeys]string{
	Terminate:  "Terminate",
	Interrupt:  "Interrupt",
	ReopenLogs: "ReopenLogs",
	Hangup:     "Hangup",
}

func (k Key) String() string {
	if !k.valid() {
		return fmt.Sprintf("Key(%d)", int(k))
	}
	return keyNames[k]
}

func (k Key) valid() bool { return k >= 0 && k < numKeys }

// Keys 返回全部逻辑信号
func Keys() []Key {
	return []Key{Terminate, Interrupt, ReopenLogs, Hangup}
}

// Registry 为每个 Key 保存至多一个活跃的 Endpoint
type Registry struct {
	slots [numKeys]atomic.Pointer[Endpoint]
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default 返回进程级注册表，首次调用时创建，之后不会销毁
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register 发布 key 的写端；同一 key 已有活跃注册属于编程错误
func (r *Registry) Register(key Key, e *Endpoint) {
	assert.Release(key.valid(), "key.valid()", "unknown shutdown key %d", int(key))
	assert.Release(e != nil, "e != nil", "nil endpoint for %s", key)
	assert.Release(r.slots[key].CompareAndSwap(nil, e), "slot empty",
		"%s already has a registered endpoint", key)
}

// Unregister 仅当当前注册的是 e 时清空槽位
func (r *Registry) Unregister(key Key, e *Endpoint) bool {
	if !key.valid() {
		return false
	}
	return r.slots[key].CompareAndSwap(e, nil)
}

func (r *Registry) Registered(key Key) bool {
	return key.valid() && r.slots[key].Load() != nil
}

// Post 尽力投递，不阻塞；未注册时为空操作
func (r *Registry) Post(key Key) {
	if !key.valid() {
		return
	}
	if e := r.slots[key].Load(); e != nil {
		e.Post()
	}
}
