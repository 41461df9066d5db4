package log

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

type logrusAdapter struct {
	entry *logrus.Entry
}

func initByConfig(cfg *LoggerConfig) error {
	l := logrus.New()
	pattern := cfg.Pattern
	if pattern == "" {
		pattern = "%time [%level] %field%msg\n"
	}
	timeFmt := cfg.Time
	if timeFmt == "" {
		timeFmt = "2006-01-02T15:04:05.000Z07:00"
	}
	l.SetFormatter(&formatter{pattern: pattern, time: timeFmt})

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	mw := NewMultiWriter()
	if len(cfg.Appenders) == 0 {
		mw.Add(os.Stdout)
	}
	for _, ac := range cfg.Appenders {
		switch ac.Type {
		case "stdout", "":
			mw.Add(os.Stdout)
		case "stderr":
			mw.Add(os.Stderr)
		case "file":
			opt, err := decodeFileAppenderOptions(ac.Options)
			if err != nil {
				return fmt.Errorf("log: configuring file appender: %w", err)
			}
			mw.AddFileAppender(opt)
		case "kafka":
			opt, err := decodeKafkaAppenderOptions(ac.Options)
			if err != nil {
				return fmt.Errorf("log: configuring kafka appender: %w", err)
			}
			mw.AddKafkaAppender(opt)
		default:
			return fmt.Errorf("log: unknown appender type %q", ac.Type)
		}
	}
	l.SetOutput(mw)

	logger = &logrusAdapter{entry: logrus.NewEntry(l)}
	return nil
}

func decodeFileAppenderOptions(opts map[string]interface{}) (FileAppenderOpt, error) {
	var out FileAppenderOpt
	if v, ok := opts["filename"].(string); ok {
		out.Filename = v
	} else {
		return out, fmt.Errorf("file appender requires a \"filename\" option")
	}
	if v, ok := opts["max_size"].(int); ok {
		out.MaxSize = v
	}
	if v, ok := opts["max_backups"].(int); ok {
		out.MaxBackups = v
	}
	if v, ok := opts["max_age"].(int); ok {
		out.MaxAge = v
	}
	if v, ok := opts["compress"].(bool); ok {
		out.Compress = v
	}
	return out, nil
}

func decodeKafkaAppenderOptions(opts map[string]interface{}) (KafkaAppenderOpt, error) {
	var out KafkaAppenderOpt
	if raw, ok := opts["brokers"].([]interface{}); ok {
		for _, b := range raw {
			if s, ok := b.(string); ok {
				out.Brokers = append(out.Brokers, s)
			}
		}
	}
	if v, ok := opts["topic"].(string); ok {
		out.Topic = v
	} else {
		return out, fmt.Errorf("kafka appender requires a \"topic\" option")
	}
	if len(out.Brokers) == 0 {
		return out, fmt.Errorf("kafka appender requires at least one broker")
	}
	return out, nil
}

func (l *logrusAdapter) Print(args ...interface{})                 { l.entry.Print(args...) }
func (l *logrusAdapter) Printf(format string, args ...interface{}) { l.entry.Printf(format, args...) }

func (l *logrusAdapter) Trace(args ...interface{})                 { l.entry.Trace(args...) }
func (l *logrusAdapter) Tracef(format string, args ...interface{}) { l.entry.Tracef(format, args...) }

func (l *logrusAdapter) Debug(args ...interface{})                 { l.entry.Debug(args...) }
func (l *logrusAdapter) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

func (l *logrusAdapter) Info(args ...interface{})                 { l.entry.Info(args...) }
func (l *logrusAdapter) Infof(format string, args ...interface{}) { l.entry.Infof(format, args...) }

func (l *logrusAdapter) Warn(args ...interface{})                 { l.entry.Warn(args...) }
func (l *logrusAdapter) Warnf(format string, args ...interface{}) { l.entry.Warnf(format, args...) }

func (l *logrusAdapter) Error(args ...interface{})                 { l.entry.Error(args...) }
func (l *logrusAdapter) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

func (l *logrusAdapter) Fatal(args ...interface{})                 { l.entry.Fatal(args...) }
func (l *logrusAdapter) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

func (l *logrusAdapter) Panic(args ...interface{})                 { l.entry.Panic(args...) }
func (l *logrusAdapter) Panicf(format string, args ...interface{}) { l.entry.Panicf(format, args...) }

func (l *logrusAdapter) WithField(field string, value interface{}) Logger {
	return &logrusAdapter{entry: l.entry.WithField(field, value)}
}
func (l *logrusAdapter) WithFields(fields map[string]interface{}) Logger {
	return &logrusAdapter{entry: l.entry.WithFields(fields)}
}
func (l *logrusAdapter) WithError(err error) Logger {
	return &logrusAdapter{entry: l.entry.WithError(err)}
}

func (l *logrusAdapter) IsTraceEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.TraceLevel)
}
func (l *logrusAdapter) IsDebugEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
}
func (l *logrusAdapter) IsInfoEnabled() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.InfoLevel)
}
