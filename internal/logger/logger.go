package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus logger
type Logger struct {
	*logrus.Logger
}

// New creates a JSON logger tagged with the service name. Level comes from
// LOG_LEVEL (debug/info/warn/error), defaulting to info.
func New(serviceName string) *Logger {
	log := logrus.New()

	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	log.SetOutput(os.Stdout)

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	log.AddHook(&serviceHook{serviceName: serviceName})

	return &Logger{Logger: log}
}

// WithLaunch tags entries with the launch being mutated.
func (l *Logger) WithLaunch(launchID string) *logrus.Entry {
	return l.WithField("launch_id", launchID)
}

// WithWeek tags entries with an ISO week key.
func (l *Logger) WithWeek(weekNumber string) *logrus.Entry {
	return l.WithField("week_number", weekNumber)
}

type serviceHook struct {
	serviceName string
}

func (h *serviceHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *serviceHook) Fire(entry *logrus.Entry) error {
	entry.Data["service"] = h.serviceName
	return nil
}
