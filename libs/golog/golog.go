// Package golog implements a leveled logger with optional key/value
// context and pluggable output handlers.
package golog

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Level represents a log level (CRIT, ERR, ...)
type Level int32

// Log levels
const (
	CRIT  Level = iota // For panics (code bugs)
	ERR                // General errors (e.g. errors from the store, transport, ...)
	WARN               // e.g. correctable but inconsistent state
	INFO               // e.g. worker cycle summaries
	DEBUG              // Normally turned off but can help to track down issues
)

// Levels maps log level to a string
var Levels = map[Level]string{
	CRIT:  "CRIT",
	ERR:   "ERR",
	WARN:  "WARN",
	INFO:  "INFO",
	DEBUG: "DEBUG",
}

func (l Level) String() string {
	if s := Levels[l]; s != "" {
		return s
	}
	return strconv.Itoa(int(l))
}

type Logger interface {
	Context(ctx ...interface{}) Logger

	SetLevel(l Level) Level
	Level() Level
	// L returns true if the current level is greater than or equal to 'l'
	L(l Level) bool

	SetHandler(h Handler)

	Logf(calldepth int, l Level, format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	Criticalf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// Entry is a single log line before formatting.
type Entry struct {
	Time time.Time
	Lvl  Level
	Msg  string
	Ctx  []interface{}
	Src  string
}

type Handler interface {
	Log(e *Entry) error
}

type HandlerFunc func(e *Entry) error

func (h HandlerFunc) Log(e *Entry) error {
	return h(e)
}

type logger struct {
	mu  sync.Mutex
	ctx []interface{}
	hnd Handler
	lvl Level
}

var defaultL = &logger{
	hnd: DefaultHandler,
	lvl: INFO,
}

// Default returns the process-wide logger.
func Default() Logger {
	return defaultL
}

func (l *logger) SetLevel(lvl Level) Level {
	return Level(atomic.SwapInt32((*int32)(&l.lvl), int32(lvl)))
}

func (l *logger) Level() Level {
	return Level(atomic.LoadInt32((*int32)(&l.lvl)))
}

func (l *logger) L(lvl Level) bool {
	return l.Level() >= lvl
}

func (l *logger) SetHandler(h Handler) {
	l.mu.Lock()
	l.hnd = h
	l.mu.Unlock()
}

func (l *logger) Context(ctx ...interface{}) Logger {
	if len(ctx)%2 != 0 {
		ctx = append(ctx, "MISSING")
	}
	return &logger{
		ctx: append(append([]interface{}(nil), l.ctx...), ctx...),
		hnd: l.hnd,
		lvl: l.Level(),
	}
}

func (l *logger) Logf(calldepth int, lvl Level, format string, args ...interface{}) {
	if !l.L(lvl) {
		return
	}
	e := &Entry{
		Time: time.Now(),
		Lvl:  lvl,
		Msg:  fmt.Sprintf(format, args...),
		Ctx:  l.ctx,
	}
	if _, file, line, ok := runtime.Caller(calldepth + 1); ok {
		e.Src = fmt.Sprintf("%s:%d", file, line)
	}
	l.mu.Lock()
	hnd := l.hnd
	l.mu.Unlock()
	if err := hnd.Log(e); err != nil {
		fmt.Fprintf(os.Stderr, "golog: failed to log: %s\n", err)
	}
}

func (l *logger) Fatalf(format string, args ...interface{}) {
	l.Logf(1, CRIT, format, args...)
	os.Exit(255)
}

func (l *logger) Criticalf(format string, args ...interface{}) {
	l.Logf(1, CRIT, format, args...)
}

func (l *logger) Errorf(format string, args ...interface{}) {
	l.Logf(1, ERR, format, args...)
}

func (l *logger) Warningf(format string, args ...interface{}) {
	l.Logf(1, WARN, format, args...)
}

func (l *logger) Infof(format string, args ...interface{}) {
	l.Logf(1, INFO, format, args...)
}

func (l *logger) Debugf(format string, args ...interface{}) {
	l.Logf(1, DEBUG, format, args...)
}

// Package level helpers that use the default logger

func SetLevel(l Level) Level {
	return defaultL.SetLevel(l)
}

func Context(ctx ...interface{}) Logger {
	return defaultL.Context(ctx...)
}

func Fatalf(format string, args ...interface{}) {
	defaultL.Logf(1, CRIT, format, args...)
	os.Exit(255)
}

func Criticalf(format string, args ...interface{}) {
	defaultL.Logf(1, CRIT, format, args...)
}

func Errorf(format string, args ...interface{}) {
	defaultL.Logf(1, ERR, format, args...)
}

func Warningf(format string, args ...interface{}) {
	defaultL.Logf(1, WARN, format, args...)
}

func Infof(format string, args ...interface{}) {
	defaultL.Logf(1, INFO, format, args...)
}

func Debugf(format string, args ...interface{}) {
	defaultL.Logf(1, DEBUG, format, args...)
}
