// Package nlog is the client library's logger: leveled, timestamped writes,
// unbuffered, to stderr or an optional rotating file sink. Every other package logs
// through here rather than the stdlib "log" package.
/*
 * Copyright (c) 2024-2026, nereusdb authors.
 */
package nlog

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"
	"time"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

func (s severity) String() string {
	switch s {
	case sevWarn:
		return "W"
	case sevErr:
		return "E"
	default:
		return "I"
	}
}

type logger struct {
	mu     sync.Mutex
	out    io.Writer
	file   *os.File
	maxLen int64
	writ   int64
	path   string
}

var (
	g     = &logger{out: os.Stderr}
	title string
	level int32 // verbosity threshold; V(n) is true when n <= level
)

// MaxSize is the rotation threshold for a file sink, mirroring the teacher's
// nlog.MaxSize knob.
var MaxSize int64 = 4 * 1024 * 1024

// SetTitle tags every line with a short process/component name.
func SetTitle(s string) { title = s }

// SetLevel sets the verbosity threshold consulted by V.
func SetLevel(v int) { level = int32(v) }

// V reports whether verbosity level v is enabled, mirroring cmn.Config.FastV.
func V(v int) bool { return int32(v) <= level }

// SetOutput opens (creating or appending to) the file at path and makes it
// the rotating sink, closing any previous file sink.
func SetOutput(path string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.file != nil {
		g.file.Close()
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	g.file, g.out, g.path, g.writ = f, f, path, 0
	return nil
}

func Infof(format string, a ...any)    { g.log(sevInfo, 1, format, a...) }
func Infoln(a ...any)                  { g.log(sevInfo, 1, "", a...) }
func InfoDepth(depth int, a ...any)    { g.log(sevInfo, depth+1, "", a...) }
func Warningf(format string, a ...any) { g.log(sevWarn, 1, format, a...) }
func Warningln(a ...any)               { g.log(sevWarn, 1, "", a...) }
func Errorf(format string, a ...any)   { g.log(sevErr, 1, format, a...) }
func Errorln(a ...any)                 { g.log(sevErr, 1, "", a...) }
func ErrorDepth(depth int, a ...any)   { g.log(sevErr, depth+1, "", a...) }

func Flush(sync ...bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.file != nil && len(sync) > 0 && sync[0] {
		g.file.Sync()
	}
}

func (l *logger) log(sev severity, depth int, format string, a ...any) {
	var msg string
	if format == "" {
		msg = fmt.Sprintln(a...)
	} else {
		msg = fmt.Sprintf(format, a...)
		if len(msg) == 0 || msg[len(msg)-1] != '\n' {
			msg += "\n"
		}
	}
	_, file, line, ok := runtime.Caller(depth + 1)
	if !ok {
		file, line = "???", 0
	} else {
		file = shortFile(file)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	n, _ := fmt.Fprintf(l.out, "%s %s %s:%d] %s", time.Now().Format("0102 15:04:05.000000"), header(sev), file, line, msg)
	l.writ += int64(n)
	if l.file != nil && l.writ >= l.maxSize() {
		l.rotate()
	}
}

func (l *logger) maxSize() int64 {
	if MaxSize > 0 {
		return MaxSize
	}
	return 4 * 1024 * 1024
}

func (l *logger) rotate() {
	if l.file == nil || l.path == "" {
		return
	}
	l.file.Close()
	rotated := fmt.Sprintf("%s.%s", l.path, time.Now().Format("20060102T150405"))
	os.Rename(l.path, rotated)
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.file, l.out = nil, os.Stderr
		return
	}
	l.file, l.out, l.writ = f, f, 0
}

func header(sev severity) string {
	if title == "" {
		return sev.String()
	}
	return title + "." + sev.String()
}

func shortFile(path string) string {
	for i := len(path) - 1; i > 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
