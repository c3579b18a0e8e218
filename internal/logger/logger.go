package logger

import (
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Logger writes one JSON object per event, stamped with the service name
// and host.
type Logger struct {
	service  string
	hostname string
	entry    *logrus.Logger
}

// New creates a logger writing to stdout
func New(service string) *Logger {
	return NewWithWriter(service, os.Stdout)
}

// NewWithWriter creates a logger writing to w
func NewWithWriter(service string, w io.Writer) *Logger {
	hostname, _ := os.Hostname()

	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "timestamp",
			logrus.FieldKeyMsg:  "message",
		},
	})

	return &Logger{
		service:  service,
		hostname: hostname,
		entry:    l,
	}
}

// SetLevel changes the minimum level; unknown names are ignored
func (l *Logger) SetLevel(level string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		l.entry.SetLevel(lvl)
	}
}

func (l *Logger) Info(action, message, requestID string, fields map[string]interface{}) {
	l.with(action, requestID, fields).Info(message)
}

func (l *Logger) Debug(action, message, requestID string, fields map[string]interface{}) {
	l.with(action, requestID, fields).Debug(message)
}

func (l *Logger) Warn(action, message, requestID string, fields map[string]interface{}) {
	l.with(action, requestID, fields).Warn(message)
}

// Error logs at error level. err may be nil for failures that carry no
// underlying error value.
func (l *Logger) Error(action, message, requestID string, err error, fields map[string]interface{}) {
	e := l.with(action, requestID, fields)
	if err != nil {
		e = e.WithField("error", logrus.Fields{
			"msg":   err.Error(),
			"stack": string(debug.Stack()),
		})
	}
	e.Error(message)
}

func (l *Logger) with(action, requestID string, fields map[string]interface{}) *logrus.Entry {
	e := l.entry.WithFields(logrus.Fields{
		"service":    l.service,
		"hostname":   l.hostname,
		"action":     action,
		"request_id": requestID,
	})
	if len(fields) > 0 {
		e = e.WithFields(logrus.Fields(fields))
	}
	return e
}

// GenerateRequestID returns a fresh correlation id
func GenerateRequestID() string {
	return uuid.NewString()
}
