package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// transcriptLogger keeps a daily transcript of conversation turns
type transcriptLogger struct {
	baseDir     string
	file        *os.File
	mutex       sync.Mutex
	currentDate string
}

// Disabled until EnableTranscript is called.
var transcript = &transcriptLogger{}

func getTranscriptLogger() *transcriptLogger {
	return transcript
}

// EnableTranscript starts writing daily transcript files under dir.
func EnableTranscript(dir string) {
	tl := getTranscriptLogger()
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	if tl.file != nil {
		tl.file.Close()
		tl.file = nil
	}
	tl.baseDir = filepath.Join(dir, "transcript")
}

// writer returns the file for today, rotating when the date changes
func (tl *transcriptLogger) writer() *os.File {
	currentDate := time.Now().Format("2006-01-02")

	if tl.file != nil && currentDate == tl.currentDate {
		return tl.file
	}

	if tl.file != nil {
		tl.file.Close()
		tl.file = nil
	}

	if err := os.MkdirAll(tl.baseDir, 0755); err != nil {
		Errorf("Failed to create transcript directory: %v", err)
		return nil
	}

	path := filepath.Join(tl.baseDir, fmt.Sprintf("%s.log", currentDate))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		Errorf("Failed to open transcript file %s: %v", path, err)
		return nil
	}

	tl.file = file
	tl.currentDate = currentDate
	return file
}

// LogTurn appends one conversation message to the transcript.
func LogTurn(role, content string) {
	tl := getTranscriptLogger()
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	if tl.baseDir == "" {
		return
	}

	w := tl.writer()
	if w == nil {
		return
	}

	timestamp := time.Now().Format("15:04:05")
	content = strings.ReplaceAll(content, "\n", "\n    ")
	if _, err := fmt.Fprintf(w, "[%s] <%s> %s\n", timestamp, role, content); err != nil {
		Errorf("Failed to write transcript: %v", err)
	}
}

// CloseTranscript closes the open transcript file, if any.
func CloseTranscript() {
	tl := getTranscriptLogger()
	tl.mutex.Lock()
	defer tl.mutex.Unlock()

	if tl.file != nil {
		tl.file.Close()
		tl.file = nil
	}
}
