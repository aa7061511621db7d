package aputil

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	atomicLevel = zap.NewAtomicLevel()
	daemonName  string
)

func zapTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006/01/02 15:04:05.000"))
}

func zapCallerEncoder(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	dir, fileName := filepath.Split(caller.File)
	dir = filepath.Base(dir)
	if dir != daemonName {
		fileName = filepath.Join(dir, fileName)
	}
	enc.AppendString(fmt.Sprintf("%s:%s:%d", daemonName, fileName, caller.Line))
}

// NewLogger returns a sugared zap logger whose lines carry a timestamp,
// level, and enough context to find the source.
//
//	2026/02/14 09:12:03.441  INFO  provisiond:ap/ap.go:83  AP up: ssid="ProvisionerAP" iface=wlan0 net_id=0
func NewLogger(name string) *zap.SugaredLogger {
	daemonName = name

	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.Level = atomicLevel
	zapConfig.DisableStacktrace = true
	zapConfig.EncoderConfig.EncodeTime = zapTimeEncoder
	zapConfig.EncoderConfig.EncodeCaller = zapCallerEncoder

	logger, err := zapConfig.Build()
	if err != nil {
		log.Panicf("can't build logger: %s", err)
	}

	return logger.Sugar()
}

// NewChildLogger returns a sugared logger meant for re-logging a child
// process's output, where the caller annotation would only be noise.
func NewChildLogger() *zap.SugaredLogger {
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.Level = atomicLevel
	zapConfig.DisableStacktrace = true
	zapConfig.DisableCaller = true
	zapConfig.EncoderConfig.EncodeTime = zapTimeEncoder

	logger, err := zapConfig.Build()
	if err != nil {
		log.Panicf("can't build child logger: %s", err)
	}
	return logger.Sugar()
}

// SetLevel adjusts the log level dynamically.
func SetLevel(level string) error {
	var lvl zapcore.Level
	if err := (&lvl).UnmarshalText([]byte(level)); err != nil {
		return err
	}
	atomicLevel.SetLevel(lvl)
	return nil
}
