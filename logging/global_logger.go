package logging

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/gookit/color"
)

const (
	errPrefix   = "[ERROR]:"
	warnPrefix  = "[WARN]:"
	infoPrefix  = "[INFO]:"
	debugPrefix = "[DEBUG]:"

	//GlobalType is a value of sql_debug_log.*.path which means "write into the main log"
	GlobalType = "global"
)

var GlobalLogsWriter io.Writer

var LogLevel = INFO

type Config struct {
	FileName    string
	FileDir     string
	RotationMin int64
	MaxBackups  int
	Compress    bool

	RotateOnClose bool
}

func (c Config) Validate() error {
	if c.FileName == "" {
		return errors.New("Logger file name can't be empty")
	}
	if c.FileDir == "" {
		return errors.New("Logger file dir can't be empty")
	}

	return nil
}

//InitGlobalLogger initializes main logger
func InitGlobalLogger(writer io.Writer, levelStr string) error {
	level := ToLevel(levelStr)
	if level == UNKNOWN {
		return fmt.Errorf("Unknown log level: %q. Available levels: debug, info, warn, error", levelStr)
	}

	dateTimeWriter := DateTimeWriterProxy{
		writer: writer,
	}
	log.SetOutput(dateTimeWriter)
	log.SetFlags(0)

	LogLevel = level
	return nil
}

func Errorf(format string, v ...interface{}) {
	Error(fmt.Sprintf(format, v...))
}

func Error(v ...interface{}) {
	if LogLevel <= ERROR {
		log.Println(errMsg(v...))
	}
}

func Infof(format string, v ...interface{}) {
	Info(fmt.Sprintf(format, v...))
}

func Info(v ...interface{}) {
	if LogLevel <= INFO {
		log.Println(append([]interface{}{infoPrefix}, v...)...)
	}
}

func Debugf(format string, v ...interface{}) {
	Debug(fmt.Sprintf(format, v...))
}

func Debug(v ...interface{}) {
	if LogLevel <= DEBUG {
		log.Println(append([]interface{}{debugPrefix}, v...)...)
	}
}

func Warnf(format string, v ...interface{}) {
	Warn(fmt.Sprintf(format, v...))
}

func Warn(v ...interface{}) {
	if LogLevel <= WARN {
		log.Println(append([]interface{}{warnPrefix}, v...)...)
	}
}

func Fatal(v ...interface{}) {
	log.Fatal(errMsg(v...))
}

func Fatalf(format string, v ...interface{}) {
	log.Fatal(errMsg(fmt.Sprintf(format, v...)))
}

func errMsg(values ...interface{}) string {
	valuesStr := []string{errPrefix}
	for _, v := range values {
		valuesStr = append(valuesStr, fmt.Sprint(v))
	}
	return color.Red.Sprint(strings.Join(valuesStr, " "))
}
