// Package logger provides a small leveled logging facade over logrus.
//
// Each entry carries a timestamp, level, message and, when given, the ID of
// the endpoint the message concerns as a structured "endpoint" field.
//
// # Basic Usage
//
// Using the default logger:
//
//	logger.Info("", "Allocation started")
//	logger.Info("ep-1", "Provisioned %d tokens", n)
//	logger.Error("ep-1", "Minting failed: %v", err)
//
// Creating a custom logger:
//
//	l := logger.New(os.Stderr, logger.LevelDebug)
//	l.Debug("ep-1", "Debug message")
//
// # Log Levels
//
// Messages below the configured level are filtered:
//   - LevelDebug: all messages
//   - LevelInfo: Info, Warn, Error
//   - LevelWarn: Warn, Error
//   - LevelError: Error only
//
// # Thread Safety
//
// logrus serializes writes, so a Logger is safe for concurrent use.
package logger
