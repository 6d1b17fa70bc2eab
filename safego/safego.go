package safego

import (
	"time"
)

//RestartTimeout is a pause before a panicked goroutine is restarted
var RestartTimeout = 2 * time.Second

type RecoverHandler func(value interface{})

//GlobalRecoverHandler is called with a recovered panic value. appconfig sets it to log the panic.
var GlobalRecoverHandler RecoverHandler = func(value interface{}) {}

type Execution struct {
	f              func()
	recoverHandler RecoverHandler
	restartTimeout time.Duration
}

//RunWithRestart run a new goroutine and add panic handler:
//write logs, wait 2 seconds and restart the goroutine
func RunWithRestart(f func()) *Execution {
	exec := Execution{
		f:              f,
		recoverHandler: GlobalRecoverHandler,
		restartTimeout: RestartTimeout,
	}
	return exec.run()
}

func (exec *Execution) run() *Execution {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				exec.recoverHandler(r)

				if exec.restartTimeout > 0 {
					time.Sleep(exec.restartTimeout)
					exec.run()
				}
			}
		}()
		exec.f()
	}()
	return exec
}
