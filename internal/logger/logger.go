package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
)

type LogLevel string

const (
	LevelInfo    LogLevel = "INFO"
	LevelSuccess LogLevel = "SUCCESS"
	LevelWarning LogLevel = "WARNING"
	LevelError   LogLevel = "ERROR"
	LevelDebug   LogLevel = "DEBUG"
)

var (
	mu sync.Mutex

	// Console output. snakeserver swaps this for stderr since stdout carries MCP.
	out io.Writer = os.Stdout

	errorLogger  *stdlog.Logger
	errorLogFile *os.File

	// Separate agent logger that doesn't write to the error log
	agentLogger  *stdlog.Logger
	agentLogFile *os.File
)

// Init opens error.log and agent.log under dir. Without Init only the console is written.
func Init(dir string) error {
	mu.Lock()
	defer mu.Unlock()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	var err error
	errorLogFile, err = os.OpenFile(filepath.Join(dir, "error.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open error log: %w", err)
	}
	errorLogger = stdlog.New(errorLogFile, "", 0)

	agentLogFile, err = os.OpenFile(filepath.Join(dir, "agent.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open agent log: %w", err)
	}
	agentLogger = stdlog.New(agentLogFile, "", 0)

	return nil
}

// SetOutput redirects console output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// CloseLogFile should be called during shutdown to properly close all log files
func CloseLogFile() {
	mu.Lock()
	defer mu.Unlock()

	if errorLogFile != nil {
		errorLogFile.Close()
		errorLogFile, errorLogger = nil, nil
	}

	if agentLogFile != nil {
		agentLogFile.Close()
		agentLogFile, agentLogger = nil, nil
	}
}

var colorMap = map[string]func(a ...interface{}) string{
	string(LevelInfo):    color.New(color.FgBlue).SprintFunc(),
	string(LevelSuccess): color.New(color.FgGreen).SprintFunc(),
	string(LevelWarning): color.New(color.FgYellow).SprintFunc(),
	string(LevelError):   color.New(color.FgRed).SprintFunc(),
	string(LevelDebug):   color.New(color.FgCyan).SprintFunc(),

	"magenta": color.New(color.FgMagenta).SprintFunc(),
	"white":   color.New(color.FgWhite).SprintFunc(),
}

func GetColorFunc(colorName string) func(a ...interface{}) string {
	if fn, ok := colorMap[colorName]; ok {
		return fn
	}
	return colorMap["white"]
}

func logMessage(level LogLevel, format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("2006-01-02 15:04:05")

	mu.Lock()
	defer mu.Unlock()

	colorFunc := GetColorFunc(string(level))
	fmt.Fprintln(out, colorFunc(fmt.Sprintf("[%s] ", level))+message)

	// Only errors and warnings go to error.log
	if level == LevelError || level == LevelWarning {
		if errorLogger != nil {
			errorLogger.Printf("[%s] %s: %s", level, timestamp, message)
		}
	}
}

func Infof(format string, args ...interface{}) {
	logMessage(LevelInfo, format, args...)
}

func Successf(format string, args ...interface{}) {
	logMessage(LevelSuccess, format, args...)
}

func Warnf(format string, args ...interface{}) {
	logMessage(LevelWarning, format, args...)
}

func Errorf(format string, args ...interface{}) {
	logMessage(LevelError, format, args...)
}

func Debugf(format string, args ...interface{}) {
	logMessage(LevelDebug, format, args...)
}

// AgentDebugf logs agent-loop debug messages to agent.log instead of error.log
// so tool traffic doesn't drown out real failures.
func AgentDebugf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("2006-01-02 15:04:05")

	mu.Lock()
	defer mu.Unlock()

	colorFunc := GetColorFunc(string(LevelDebug))
	fmt.Fprintln(out, colorFunc("[AGENT-DEBUG] ")+message)

	if agentLogger != nil {
		agentLogger.Printf("[DEBUG] %s: %s", timestamp, message)
	}
}

// Framef prints inbound socket traffic.
func Framef(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	mu.Lock()
	defer mu.Unlock()

	colorFunc := GetColorFunc("magenta")
	fmt.Fprintln(out, colorFunc("[FRAME] ")+message)
}
