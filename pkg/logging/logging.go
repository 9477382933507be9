package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileLogger returns a logger that writes JSON lines to a size-rotated file
// and human-readable output to stderr. The returned closer owns the file.
func FileLogger(level logrus.Level, logPath string) (io.Closer, *logrus.Logger, error) {
	if dir := filepath.Dir(logPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}

	rotated := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(rotated)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.AddHook(&stderrHook{
		formatter: &logrus.TextFormatter{FullTimestamp: true},
	})
	return rotated, logger, nil
}

// ConsoleLogger is used by CLI entrypoints where file rotation is unwanted.
func ConsoleLogger(level logrus.Level) *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return logger
}

type stderrHook struct {
	formatter logrus.Formatter
}

func (h *stderrHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *stderrHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = os.Stderr.Write(line)
	return err
}
