package main

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// logger is the global agent logger. The standard library logger is
// redirected to the same writers, so packages logging through log.Printf
// end up in the rotated file as well.
var logger *agentLogger

type agentLogger struct {
	*log.Logger
	logFile *lumberjack.Logger
	debug   bool
}

// initLogger sets up file logging with rotation, plus console output when
// enabled. Missing config fields fall back to sane defaults.
func initLogger(cfg *loggerConfig, debug bool) {
	if cfg == nil || cfg.File == "" {
		cfg = &loggerConfig{
			File:           "bgp-tester-agent.log",
			MaxSize:        10,
			MaxBackups:     10,
			MaxAge:         30,
			Compress:       true,
			ConsoleLogging: true,
		}
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 10
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 10
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 30
	}

	logFile := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	writers := []io.Writer{logFile}
	if cfg.ConsoleLogging {
		writers = append(writers, os.Stdout)
	}
	multiWriter := io.MultiWriter(writers...)

	logger = &agentLogger{
		Logger:  log.New(multiWriter, "", log.LstdFlags),
		logFile: logFile,
		debug:   debug,
	}

	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags)
}

// Close closes the log file.
func (l *agentLogger) Close() {
	if l.logFile != nil {
		l.logFile.Close()
	}
}

// Debugf logs only when the server debug flag is set.
func (l *agentLogger) Debugf(format string, v ...any) {
	if l.debug {
		l.Logger.Printf("[DEBUG] "+format, v...)
	}
}
