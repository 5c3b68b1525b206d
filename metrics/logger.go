package metrics

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type Logger interface {
	Log(info *SubsetInfo)
}

// StdoutLogger writes one JSON line per record.
type StdoutLogger struct {
	Out io.Writer
	mu  sync.Mutex
}

func NewStdoutLogger() *StdoutLogger {
	return &StdoutLogger{Out: os.Stdout}
}

func (l *StdoutLogger) Log(info *SubsetInfo) {
	infoStr, err := info.ToJSON()
	if err != nil {
		logrus.WithError(err).Error("StdoutLogger: encoding metrics")
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := io.WriteString(l.Out, infoStr); err != nil {
		logrus.WithError(err).Error("StdoutLogger: write error")
	}
}

const defaultQueueSize = 2000
const defaultLogWriters = 2
const defaultMaxLogFileSize = 1024 * 1024 * 1024
const defaultMaxLogFiles = 10

// FileLogger appends records to log<N> files in LogDir, one per writer
// goroutine, rotating a file to log<N>.<i> once it reaches MaxLogFileSize.
// When MaxLogFiles rotated files exist the oldest one is overwritten.
type FileLogger struct {
	MetricsQueue   chan *SubsetInfo
	LogDir         string
	MaxLogFileSize int64
	MaxLogFiles    int
	Verbose        bool

	wg  sync.WaitGroup
	log logrus.FieldLogger
}

func NewFileLogger(logDir string, maxLogFileSize int64, maxLogFiles int, verbose bool) *FileLogger {
	if maxLogFileSize <= 0 {
		maxLogFileSize = defaultMaxLogFileSize
	}
	if maxLogFiles <= 0 {
		maxLogFiles = defaultMaxLogFiles
	}
	logger := &FileLogger{
		MetricsQueue:   make(chan *SubsetInfo, defaultQueueSize),
		LogDir:         logDir,
		MaxLogFileSize: maxLogFileSize,
		MaxLogFiles:    maxLogFiles,
		Verbose:        verbose,
		log:            logrus.WithField("component", "FileLogger"),
	}

	for i := 0; i < defaultLogWriters; i++ {
		logger.wg.Add(1)
		go logger.startLogWriter(i)
	}

	return logger
}

func (l *FileLogger) Log(info *SubsetInfo) {
	l.MetricsQueue <- info
}

// Close stops accepting records and waits until the queue is written out.
func (l *FileLogger) Close() {
	close(l.MetricsQueue)
	l.wg.Wait()
}

func (l *FileLogger) startLogWriter(idx int) {
	defer l.wg.Done()
	log := l.log.WithField("writer", idx)

	f, err := l.openLogFile(idx)
	if err != nil {
		log.WithError(err).Error("log open error")
	}
	defer func() {
		if f != nil {
			f.Close()
		}
	}()

	for info := range l.MetricsQueue {
		infoStr, err := info.ToJSON()
		if err != nil {
			log.WithError(err).Error("encoding metrics")
			continue
		}
		if f == nil {
			if f, err = l.openLogFile(idx); err != nil {
				log.WithError(err).Error("log open error")
				continue
			}
		}
		f, err = l.tryRotateLogFile(f, idx)
		if err != nil {
			continue
		}
		if _, err := f.WriteString(infoStr); err != nil {
			log.WithError(err).Error("write error")
			continue
		}
		f.Sync()
	}
}

func (l *FileLogger) logFileName(idx int) string {
	return fmt.Sprintf("log%d", idx)
}

func (l *FileLogger) openLogFile(idx int) (*os.File, error) {
	logFilePath := path.Join(l.LogDir, l.logFileName(idx))
	return os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
}

func (l *FileLogger) tryRotateLogFile(currFile *os.File, idx int) (*os.File, error) {
	log := l.log.WithField("writer", idx)
	info, err := currFile.Stat()
	if err != nil {
		log.WithError(err).Error("log rotation error")
		return currFile, nil
	}
	if info.Size() < l.MaxLogFileSize {
		return currFile, nil
	}

	currLogFilePath := path.Join(l.LogDir, l.logFileName(idx))
	var rotatedLogFilePath string
	for i := 0; i < l.MaxLogFiles; i++ {
		filePath := path.Join(l.LogDir, fmt.Sprintf("%s.%d", l.logFileName(idx), i))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			rotatedLogFilePath = filePath
			break
		}
	}

	if len(rotatedLogFilePath) == 0 {
		entries, err := os.ReadDir(l.LogDir)
		if err != nil {
			log.WithError(err).Error("log rotation error")
			return currFile, nil
		}

		var oldestFile os.FileInfo
		oldestTime := time.Now()
		for _, entry := range entries {
			if !entry.Type().IsRegular() {
				continue
			}
			fileName := filepath.Base(entry.Name())
			if fileName == l.logFileName(idx) || strings.TrimSuffix(fileName, path.Ext(fileName)) != l.logFileName(idx) {
				continue
			}
			file, err := entry.Info()
			if err != nil {
				continue
			}
			if file.ModTime().Before(oldestTime) {
				oldestFile = file
				oldestTime = file.ModTime()
			}
		}

		if oldestFile != nil {
			rotatedLogFilePath = path.Join(l.LogDir, oldestFile.Name())
		} else {
			rotatedLogFilePath = path.Join(l.LogDir, fmt.Sprintf("%s.%d", l.logFileName(idx), 0))
		}

		if l.Verbose {
			log.WithField("file", rotatedLogFilePath).Info("maximum number of log files reached, overwriting")
		}
		if err := os.Remove(rotatedLogFilePath); err != nil {
			log.WithError(err).Error("log rotation error")
			return currFile, nil
		}
	}

	currFile.Close()
	if err := os.Rename(currLogFilePath, rotatedLogFilePath); err != nil {
		log.WithError(err).Error("log rotation error")
	} else if l.Verbose {
		log.WithField("file", rotatedLogFilePath).Info("log file rotated")
	}

	f, err := l.openLogFile(idx)
	if err != nil {
		log.WithError(err).Error("log rotation error")
	}
	return f, err
}
