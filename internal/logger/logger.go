// Package logger builds the zap logger used across the service.
package logger

import "go.uber.org/zap"

// New returns a JSON production logger for production environments and a
// console development logger otherwise.
func New(env string) *zap.Logger {
	if env == "production" || env == "prod" {
		logger, err := zap.NewProduction()
		if err != nil {
			return zap.NewNop()
		}
		return logger
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
