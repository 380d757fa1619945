package conduct

import (
	"sync"

	"go.uber.org/zap"
)

// Level 通知级别
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier shows transient messages to the inspector.
type Notifier interface {
	Notify(level Level, message string)
}

// LogNotifier 把通知写入日志（CLI 使用）
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(level Level, message string) {
	switch level {
	case LevelError:
		n.logger.Warn(message, zap.String("level", string(level)))
	default:
		n.logger.Info(message, zap.String("level", string(level)))
	}
}

// Notification is one recorded message.
type Notification struct {
	Level   Level
	Message string
}

// RecordingNotifier keeps every notification in memory.
type RecordingNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (n *RecordingNotifier) Notify(level Level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, Notification{Level: level, Message: message})
}

// Notifications returns a copy of everything recorded so far.
func (n *RecordingNotifier) Notifications() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.notes...)
}
