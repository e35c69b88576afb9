// Package log is the process wide leveled logger. Messages go to stderr, an
// optional file and optionally syslog, filtered by a single level.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"log/syslog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/pflag"
)

const LOG_TRACE = syslog.LOG_DEBUG + 1

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[1;31m"
	colorYellow = "\033[0;33m"
	colorBlue   = "\033[0;34m"
	colorGreen  = "\033[0;32m"
)

type priority struct {
	name  string
	color string
	// syslog.Writer method for this priority
	sys func(w *syslog.Writer, msg string) error
}

var priorities = map[syslog.Priority]priority{
	syslog.LOG_EMERG:   {"EMERGENCY", colorRed, (*syslog.Writer).Emerg},
	syslog.LOG_ALERT:   {"ALERT", colorRed, (*syslog.Writer).Alert},
	syslog.LOG_CRIT:    {"CRITICAL", colorRed, (*syslog.Writer).Crit},
	syslog.LOG_ERR:     {"ERROR", colorRed, (*syslog.Writer).Err},
	syslog.LOG_WARNING: {"WARNING", colorYellow, (*syslog.Writer).Warning},
	syslog.LOG_NOTICE:  {"NOTICE", colorReset, (*syslog.Writer).Notice},
	syslog.LOG_INFO:    {"INFO", colorBlue, (*syslog.Writer).Info},
	syslog.LOG_DEBUG:   {"DEBUG", colorGreen, (*syslog.Writer).Debug},
	LOG_TRACE:          {"TRACE", colorGreen, (*syslog.Writer).Debug},
}

var (
	dflt *Logger

	useStderr bool
	useSyslog bool
	useFile   string
	logLevel  string
	fileLine  bool

	spewConfig = spew.ConfigState{
		Indent:   "  ",
		SortKeys: true,
		MaxDepth: 3,
	}
)

func init() {
	pflag.BoolVar(&useStderr, "stdlog", true, "Write log to stderr?")
	pflag.BoolVar(&useSyslog, "syslog", false, "Write log to syslog?")
	pflag.BoolVar(&fileLine, "srcloc", true, "Find and write file:lineno to log?")
	pflag.StringVar(&useFile, "filelog", "", "Write log to this file")
	pflag.StringVar(&logLevel, "log", "info", "Set the logging level")
}

// Logger writes every message at or above its level to all its sinks.
type Logger struct {
	level    syslog.Priority
	fileLine bool
	color    bool
	syslog   *syslog.Writer

	mu       sync.Mutex
	textlogs []io.Writer
}

// Init installs the default logger from the command line flags. Call after
// flag parsing.
func Init(procname string) {
	level, err := ParseLevel(logLevel)
	if err != nil {
		stdlog.Fatalf("%v", err)
	}

	logger := &Logger{
		level:    level,
		fileLine: fileLine,
		color:    true,
	}
	if useStderr {
		logger.textlogs = append(logger.textlogs, os.Stderr)
	}
	if useFile != "" {
		f, err := os.OpenFile(useFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			stdlog.Fatalf("Could not open log file %v: %v", useFile, err)
		}
		logger.textlogs = append(logger.textlogs, f)
	}
	if useSyslog {
		w, err := syslog.Dial("", "", syslog.LOG_LOCAL0, procname)
		if err != nil {
			stdlog.Fatalf("Could not dial syslog: %v", err)
		}
		logger.syslog = w
	}
	dflt = logger
}

// InitWriter installs an uncolored logger writing only to w. Used by tests
// and tools which do not parse the logging flags.
func InitWriter(w io.Writer, level syslog.Priority) {
	dflt = &Logger{
		level:    level,
		textlogs: []io.Writer{w},
	}
}

// ParseLevel maps a level name such as "debug" or "WARNING" to a priority.
func ParseLevel(name string) (syslog.Priority, error) {
	upper := strings.ToUpper(name)
	for prio, p := range priorities {
		if p.name == upper {
			return prio, nil
		}
	}
	return 0, fmt.Errorf("unknown logging level: %v", name)
}

// Spew dumps objects for debugging.
func Spew(obj ...interface{}) string {
	return spewConfig.Sdump(obj...)
}

func (l *Logger) Log(prio syslog.Priority, msgFmt string, args ...interface{}) {
	if prio > l.level {
		return
	}
	p, ok := priorities[prio]
	if !ok {
		p = priorities[syslog.LOG_ERR]
	}
	msg := spewConfig.Sprintf(msgFmt, fmtArgs(msgFmt, args)...)
	name := p.name
	if l.color {
		name = p.color + name + colorReset
	}
	if l.fileLine {
		file, line := logSite()
		msg = fmt.Sprintf("%s: %v (%v:%v) %v", name, time.Now(), file, line, msg)
	} else {
		msg = fmt.Sprintf("%s: %v %v", name, time.Now(), msg)
	}

	if l.syslog != nil {
		if err := p.sys(l.syslog, msg); err != nil {
			stdlog.Printf("Error returned by syslog: %v", err)
		}
	}
	l.mu.Lock()
	for _, w := range l.textlogs {
		io.WriteString(w, msg+"\n")
	}
	l.mu.Unlock()
}

func (l *Logger) Fatal(msgFmt string, args ...interface{}) {
	l.Log(syslog.LOG_CRIT, msgFmt, args...)
	os.Exit(1)
}
func (l *Logger) Crit(msgFmt string, args ...interface{}) {
	l.Log(syslog.LOG_CRIT, msgFmt, args...)
}
func (l *Logger) Error(msgFmt string, args ...interface{}) {
	l.Log(syslog.LOG_ERR, msgFmt, args...)
}
func (l *Logger) Warn(msgFmt string, args ...interface{}) {
	l.Log(syslog.LOG_WARNING, msgFmt, args...)
}
func (l *Logger) Info(msgFmt string, args ...interface{}) {
	l.Log(syslog.LOG_INFO, msgFmt, args...)
}
func (l *Logger) Debug(msgFmt string, args ...interface{}) {
	l.Log(syslog.LOG_DEBUG, msgFmt, args...)
}

// fmtArgs drops arguments the format has no verb for, so trailing values
// are not rendered as %!(EXTRA ...).
func fmtArgs(format string, args []interface{}) []interface{} {
	verbs := strings.Count(format, "%") - 2*strings.Count(format, "%%")
	if verbs > len(args) {
		verbs = len(args)
	}
	if verbs < 0 {
		verbs = 0
	}
	return args[:verbs]
}

func shaveSrcFile(fn string) string {
	idx := strings.LastIndex(fn, "/tms/")
	if idx < 0 {
		return fn
	}
	return fn[idx+len("/tms/"):]
}

// logSite is the first caller outside this package.
func logSite() (string, int) {
	for skip := 1; ; skip++ {
		_, file, line, ok := runtime.Caller(skip)
		if !ok {
			return "", -1
		}
		file = shaveSrcFile(file)
		if !strings.HasPrefix(file, "log/") || strings.HasSuffix(file, "_test.go") {
			return file, line
		}
	}
}

/*
 * Default logger. Silent until Init or InitWriter.
 */

func Fatal(msgFmt string, args ...interface{}) {
	if dflt != nil {
		dflt.Fatal(msgFmt, args...)
	}
	os.Exit(1)
}
func Crit(msgFmt string, args ...interface{}) {
	if dflt != nil {
		dflt.Crit(msgFmt, args...)
	}
}
func Error(msgFmt string, args ...interface{}) {
	if dflt != nil {
		dflt.Error(msgFmt, args...)
	}
}
func Warn(msgFmt string, args ...interface{}) {
	if dflt != nil {
		dflt.Warn(msgFmt, args...)
	}
}
func Info(msgFmt string, args ...interface{}) {
	if dflt != nil {
		dflt.Info(msgFmt, args...)
	}
}
func Debug(msgFmt string, args ...interface{}) {
	if dflt != nil {
		dflt.Debug(msgFmt, args...)
	}
}
