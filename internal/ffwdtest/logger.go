// Package ffwdtest provides small in-memory fakes (logger, clock) shared by
// package-level tests across the module.
package ffwdtest

import (
	"fmt"
	"sync"

	log "github.com/relaydaemon/ffwdd/internal/log"
)

// Entry is one recorded log call.
type Entry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	Err     error
}

// store is the backing buffer shared by a root Logger and every Logger
// derived from it via WithField/WithFields/WithError, so assertions made
// against the root see entries logged through a derived instance too.
type store struct {
	mu      sync.Mutex
	entries []Entry
}

// Logger is an in-memory log.Logger that records every call instead of
// writing anywhere, so tests can assert on drop/error logging without
// parsing stdout.
type Logger struct {
	store  *store
	fields map[string]interface{}
	err    error
}

func NewLogger() *Logger {
	return &Logger{store: &store{}, fields: map[string]interface{}{}}
}

func (l *Logger) Entries() []Entry {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	return append([]Entry(nil), l.store.entries...)
}

func (l *Logger) record(level, msg string) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	l.store.entries = append(l.store.entries, Entry{Level: level, Message: msg, Fields: l.fields, Err: l.err})
}

func (l *Logger) Print(args ...interface{})                 { l.record("print", fmt.Sprint(args...)) }
func (l *Logger) Printf(f string, args ...interface{})      { l.record("print", fmt.Sprintf(f, args...)) }
func (l *Logger) Trace(args ...interface{})                 { l.record("trace", fmt.Sprint(args...)) }
func (l *Logger) Tracef(f string, args ...interface{})      { l.record("trace", fmt.Sprintf(f, args...)) }
func (l *Logger) Debug(args ...interface{})                 { l.record("debug", fmt.Sprint(args...)) }
func (l *Logger) Debugf(f string, args ...interface{})      { l.record("debug", fmt.Sprintf(f, args...)) }
func (l *Logger) Info(args ...interface{})                  { l.record("info", fmt.Sprint(args...)) }
func (l *Logger) Infof(f string, args ...interface{})       { l.record("info", fmt.Sprintf(f, args...)) }
func (l *Logger) Warn(args ...interface{})                  { l.record("warn", fmt.Sprint(args...)) }
func (l *Logger) Warnf(f string, args ...interface{})       { l.record("warn", fmt.Sprintf(f, args...)) }
func (l *Logger) Error(args ...interface{})                 { l.record("error", fmt.Sprint(args...)) }
func (l *Logger) Errorf(f string, args ...interface{})      { l.record("error", fmt.Sprintf(f, args...)) }
func (l *Logger) Fatal(args ...interface{})                 { l.record("fatal", fmt.Sprint(args...)) }
func (l *Logger) Fatalf(f string, args ...interface{})      { l.record("fatal", fmt.Sprintf(f, args...)) }
func (l *Logger) Panic(args ...interface{})                 { l.record("panic", fmt.Sprint(args...)) }
func (l *Logger) Panicf(f string, args ...interface{})      { l.record("panic", fmt.Sprintf(f, args...)) }

func (l *Logger) WithField(field string, value interface{}) log.Logger {
	return l.WithFields(map[string]interface{}{field: value})
}

func (l *Logger) WithFields(fields map[string]interface{}) log.Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{store: l.store, fields: merged, err: l.err}
}

func (l *Logger) WithError(err error) log.Logger {
	return &Logger{store: l.store, fields: l.fields, err: err}
}

func (l *Logger) IsTraceEnabled() bool { return true }
func (l *Logger) IsDebugEnabled() bool { return true }
func (l *Logger) IsInfoEnabled() bool  { return true }

var _ log.Logger = (*Logger)(nil)
