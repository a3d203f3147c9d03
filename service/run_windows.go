//go:build windows

package service

import (
	"fmt"
	"os"

	"golang.org/x/sys/windows/svc"
)

// TryRunAsService 在由服务控制管理器启动时以服务方式运行 h 并阻塞到服务结束，
// 返回 true；以控制台方式启动时返回 false。
func TryRunAsService(name string, h *Host) (bool, error) {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false, err
	}
	if !isService {
		return false, nil
	}
	if err := svc.Run(name, &scmHandler{host: h}); err != nil {
		panic(fmt.Sprintf("could not dispatch %s to start as a service: %v", name, err))
	}
	return true, nil
}

type scmHandler struct {
	host *Host
}

// Execute 实现 svc.Handler。Host 在独立 goroutine 上运行，
// 本函数只负责转发控制请求。
func (s *scmHandler) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	done := make(chan struct{})
	defer close(done)

	s.host.mu.Lock()
	s.host.supervisor = &scmSupervisor{changes: changes, done: done}
	s.host.mu.Unlock()

	// 服务参数的第一个元素为服务名
	argv := append([]string{}, os.Args[1:]...)
	if len(args) > 1 {
		argv = append(argv, args[1:]...)
	}

	exit := make(chan ExitCode, 1)
	go func() { exit <- s.host.Start(argv) }()

	for {
		select {
		case c := <-r:
			switch c.Cmd {
			case svc.Interrogate:
				changes <- toSvcStatus(s.host.Status())
			case svc.Stop:
				s.host.RequestStop(ControlStop)
			case svc.Shutdown:
				s.host.RequestStop(ControlShutdown)
			case svc.PreShutdown:
				s.host.RequestStop(ControlPreShutdown)
			default:
				s.host.logger.Warn("unexpected service control request", "cmd", uint32(c.Cmd))
			}
		case code := <-exit:
			return serviceExitCode(code)
		}
	}
}

// serviceExitCode 转换为 svc.Handler 的返回值
func serviceExitCode(code ExitCode) (svcSpecific bool, exitCode uint32) {
	switch {
	case !code.Failed():
		return false, 0
	case code.IsWin32():
		return false, code.Win32()
	}
	return true, uint32(code)
}

type scmSupervisor struct {
	changes chan<- svc.Status
	done    <-chan struct{}
}

func (s *scmSupervisor) SetStatus(st Status) error {
	select {
	case s.changes <- toSvcStatus(st):
		return nil
	case <-s.done:
		return nil
	}
}

func toSvcStatus(st Status) svc.Status {
	return svc.Status{
		State:                   svc.State(st.State),
		Accepts:                 svc.Accepted(st.Accepts),
		CheckPoint:              st.CheckPoint,
		WaitHint:                uint32(st.WaitHint.Milliseconds()),
		Win32ExitCode:           st.Win32ExitCode,
		ServiceSpecificExitCode: st.ServiceSpecificExitCode,
	}
}
