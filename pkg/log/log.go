// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"os"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

type globals struct {
	logger *zap.Logger
	sugar  *zap.SugaredLogger
	props  *ZapProperties
}

var current atomic.Pointer[globals]

func init() {
	lg, props, err := InitLogger(&Config{Level: "info"}, zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	ReplaceGlobals(lg, props)
}

// InitLogger builds a logger writing to cfg.File.Filename through lumberjack,
// or to stdout when no file is configured.
func InitLogger(cfg *Config, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	if cfg.File.Filename == "" {
		stdout, _, err := zap.Open("stdout")
		if err != nil {
			return nil, nil, err
		}
		return InitLoggerWithWriteSyncer(cfg, stdout, opts...)
	}
	roller, err := newRollingFile(&cfg.File)
	if err != nil {
		return nil, nil, err
	}
	return InitLoggerWithWriteSyncer(cfg, zapcore.AddSync(roller), opts...)
}

// InitLoggerWithWriteSyncer builds a logger on top of output.
func InitLoggerWithWriteSyncer(cfg *Config, output zapcore.WriteSyncer, opts ...zap.Option) (*zap.Logger, *ZapProperties, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}
	core := zapcore.NewCore(newZapEncoder(cfg), output, level)
	props := &ZapProperties{Core: core, Syncer: output, Level: level}
	return zap.New(core, append(cfg.buildOptions(output), opts...)...), props, nil
}

func newRollingFile(cfg *FileLogConfig) (*lumberjack.Logger, error) {
	if st, err := os.Stat(cfg.Filename); err == nil && st.IsDir() {
		return nil, errors.Newf("log file %s is a directory", cfg.Filename)
	}
	maxSize := cfg.MaxSize
	if maxSize == 0 {
		maxSize = defaultLogMaxSize
	}
	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxDays,
		LocalTime:  true,
	}, nil
}

// L returns the global logger. It's safe for concurrent use.
func L() *zap.Logger {
	return current.Load().logger
}

// S returns the global sugared logger.
func S() *zap.SugaredLogger {
	return current.Load().sugar
}

// ReplaceGlobals swaps the global logger, props may be nil
// in which case SetLevel becomes a no-op.
func ReplaceGlobals(logger *zap.Logger, props *ZapProperties) {
	current.Store(&globals{logger: logger, sugar: logger.Sugar(), props: props})
}

func properties() *ZapProperties {
	return current.Load().props
}

func SetLevel(l zapcore.Level) {
	if p := properties(); p != nil {
		p.Level.SetLevel(l)
	}
}

func GetLevel() zapcore.Level {
	if p := properties(); p != nil {
		return p.Level.Level()
	}
	return zapcore.InfoLevel
}

// Sync flushes buffered entries of the global logger.
func Sync() error {
	return L().Sync()
}

func Debug(msg string, fields ...zap.Field) {
	L().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	L().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	L().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	L().Error(msg, fields...)
}

// Fatal logs then calls os.Exit(1).
func Fatal(msg string, fields ...zap.Field) {
	L().Fatal(msg, fields...)
}

// With returns a child of the global logger carrying fields,
// the caller skip is undone so callers report their own line.
func With(fields ...zap.Field) *zap.Logger {
	return L().WithOptions(zap.AddCallerSkip(-1)).With(fields...)
}
