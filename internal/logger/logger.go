package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level はログレベルを表す
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// logrusLevel はlogrusのレベルに変換する
func (l Level) logrusLevel() logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// ParseLevel は文字列からログレベルを解析する
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, true
	case "info", "":
		return LevelInfo, true
	case "warn", "warning":
		return LevelWarn, true
	case "error":
		return LevelError, true
	default:
		return LevelInfo, false
	}
}

// EndpointField はエンドポイントIDを保持するフィールド名
const EndpointField = "endpoint"

// Logger はlogrusをラップしたロガー
type Logger struct {
	entry *logrus.Logger
}

// Default はデフォルトのロガー
var Default = New(os.Stdout, LevelInfo)

// New は新しいロガーを作成する
func New(out io.Writer, minLevel Level) *Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(minLevel.logrusLevel())
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
		DisableColors:   true,
	})
	return &Logger{entry: l}
}

// SetLevel はログレベルを設定する
func (l *Logger) SetLevel(level Level) {
	l.entry.SetLevel(level.logrusLevel())
}

// SetOutput は出力先を変更する
func (l *Logger) SetOutput(out io.Writer) {
	l.entry.SetOutput(out)
}

// with はエンドポイントIDをフィールドに付与する
func (l *Logger) with(endpointID string) logrus.FieldLogger {
	if endpointID == "" {
		return l.entry
	}
	return l.entry.WithField(EndpointField, endpointID)
}

// Debug はデバッグログを出力する
func (l *Logger) Debug(endpointID string, format string, args ...any) {
	l.with(endpointID).Debugf(format, args...)
}

// Info は情報ログを出力する
func (l *Logger) Info(endpointID string, format string, args ...any) {
	l.with(endpointID).Infof(format, args...)
}

// Warn は警告ログを出力する
func (l *Logger) Warn(endpointID string, format string, args ...any) {
	l.with(endpointID).Warnf(format, args...)
}

// Error はエラーログを出力する
func (l *Logger) Error(endpointID string, format string, args ...any) {
	l.with(endpointID).Errorf(format, args...)
}

// グローバル関数（デフォルトロガーを使用）

// Debug はデバッグログを出力する
func Debug(endpointID string, format string, args ...any) {
	Default.Debug(endpointID, format, args...)
}

// Info は情報ログを出力する
func Info(endpointID string, format string, args ...any) {
	Default.Info(endpointID, format, args...)
}

// Warn は警告ログを出力する
func Warn(endpointID string, format string, args ...any) {
	Default.Warn(endpointID, format, args...)
}

// Error はエラーログを出力する
func Error(endpointID string, format string, args ...any) {
	Default.Error(endpointID, format, args...)
}
