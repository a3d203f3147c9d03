package event

import (
	"os"
	"os/signal"

	"github.com/davinci26/envoy/shutdown"
)

// notifier 把 OS 信号源接到注册表投递上
type notifier interface {
	stop()
}

type signalNotifier struct {
	ch   chan os.Signal
	done chan struct{}
}

// startNotifier 为有 OS 信号源的 key 启动转发 goroutine，否则返回 nil。
// 运行时的信号处理函数负责异步信号安全，转发 goroutine 只调用 post。
func startNotifier(key shutdown.Key, post func()) notifier {
	sig, ok := keySignals[key]
	if !ok {
		return nil
	}
	n := &signalNotifier{
		ch:   make(chan os.Signal, 1),
		done: make(chan struct{}),
	}
	signal.Notify(n.ch, sig)
	go n.forward(post)
	return n
}

func (n *signalNotifier) forward(post func()) {
	for {
		select {
		case <-n.ch:
			post()
		case <-n.done:
			return
		}
	}
}

func (n *signalNotifier) stop() {
	signal.Stop(n.ch)
	close(n.done)
}
