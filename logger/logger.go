// Package logger wraps logrus with namespaced, structured loggers.
package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is responsible for logging messages from code.
type Logger interface {
	Debug(string, ...interface{})
	Info(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	WithFields(...interface{}) Logger
}

// Config describes logging output.
type Config struct {
	Level     string `yaml:"level"`
	Formatter string `yaml:"formatter"`
}

// DefaultConfig returns info level text logs.
func DefaultConfig() Config {
	return Config{Level: "info", Formatter: "text"}
}

// Configure sets the global level and formatter.
func Configure(conf Config) {
	SetLevel(conf.Level)
	switch strings.ToLower(conf.Formatter) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// SetLevel sets the level of logging.
func SetLevel(l string) {
	switch strings.ToLower(l) {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// SetOutput sets the output for all loggers.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// Discard drops all log output.
func Discard() {
	logrus.SetOutput(io.Discard)
}

// New returns a Logger for the namespace ns. Any further arguments are
// key-value pairs attached to every message.
func New(ns string, args ...interface{}) Logger {
	f := fields(args...)
	f["ns"] = ns
	return &logger{logrus.WithFields(f)}
}

type logger struct {
	log *logrus.Entry
}

// Debug logs a debug message. Arguments after the message are key-value
// pairs:
//
//	log.Debug("evaluated offer", "offer", id, "passed", true)
func (l *logger) Debug(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.log.WithFields(fields(args...)).Debug(msg)
}

func (l *logger) Info(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.log.WithFields(fields(args...)).Info(msg)
}

func (l *logger) Warn(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.log.WithFields(fields(args...)).Warn(msg)
}

// Error logs an error message. A single argument is logged as the error:
//
//	log.Error("evaluation failed", err)
func (l *logger) Error(msg string, args ...interface{}) {
	defer recoverLogErr()
	var f logrus.Fields
	if len(args) == 1 {
		f = fields("error", args[0])
	} else {
		f = fields(args...)
	}
	l.log.WithFields(f).Error(msg)
}

func (l *logger) WithFields(args ...interface{}) Logger {
	defer recoverLogErr()
	return &logger{l.log.WithFields(fields(args...))}
}

// recoverLogErr keeps a bad logging call from crashing the process.
func recoverLogErr() {
	if r := recover(); r != nil {
		fmt.Println("Recovered from logging panic", r)
	}
}

func fields(args ...interface{}) logrus.Fields {
	f := make(logrus.Fields, len(args)/2)
	if len(args) == 1 {
		f["unknown"] = args[0]
		return f
	}
	for i := 0; i+1 < len(args); i += 2 {
		k, ok := args[i].(string)
		if !ok {
			k = fmt.Sprint(args[i])
		}
		f[k] = args[i+1]
	}
	if len(args)%2 != 0 {
		f["unknown"] = args[len(args)-1]
	}
	return f
}
