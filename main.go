package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jitsucom/sheetloader/cmd"
	"github.com/jitsucom/sheetloader/logging"
)

//tag is set with -ldflags "-X main.tag=v1.0.0"
var tag string

func main() {
	//Setup default timezone for time.Now() calls
	time.Local = time.UTC

	//listen to shutdown signal to cancel running statements
	ctx, cancel := context.WithCancel(context.Background())
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-c
		logging.Info("Received signal. Cancelling...")
		cancel()
	}()

	cmd.Execute(ctx, tag)
	cancel()
}
