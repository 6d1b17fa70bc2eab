package logging

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/jitsucom/sheetloader/safego"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logFileMaxSizeMB = 100

//WriterProxy is a lumberjack.Logger wrapper which rotates the file on Close() if it is configured
type WriterProxy struct {
	lWriter       *lumberjack.Logger
	rotateOnClose bool
	ticker        *time.Ticker
}

//NewRollingWriter returns rolling file writer (lumberjack) which is rotated every config.RotationMin minutes
func NewRollingWriter(config Config) io.WriteCloser {
	fileNamePath := filepath.Join(config.FileDir, fmt.Sprintf("%s.log", config.FileName))
	lWriter := &lumberjack.Logger{
		Filename: fileNamePath,
		MaxSize:  logFileMaxSizeMB,
		Compress: config.Compress,
	}
	if config.MaxBackups > 0 {
		lWriter.MaxBackups = config.MaxBackups
	}

	if config.RotationMin == 0 {
		config.RotationMin = 1440 //24 hours
	}
	rotation := time.Duration(config.RotationMin) * time.Minute
	ticker := time.NewTicker(rotation)
	safego.RunWithRestart(func() {
		for range ticker.C {
			if err := lWriter.Rotate(); err != nil {
				Errorf("Error rotating log file [%s]: %v", fileNamePath, err)
			}
		}
	})

	return &WriterProxy{lWriter: lWriter, rotateOnClose: config.RotateOnClose, ticker: ticker}
}

func (wp *WriterProxy) Write(p []byte) (int, error) {
	return wp.lWriter.Write(p)
}

func (wp *WriterProxy) Close() error {
	wp.ticker.Stop()
	if wp.rotateOnClose {
		if err := wp.lWriter.Rotate(); err != nil {
			Errorf("Error rotating log file: %v", err)
		}
	}

	return wp.lWriter.Close()
}
