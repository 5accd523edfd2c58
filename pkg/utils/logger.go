package utils

import "go.uber.org/zap"

// NewLogger builds the process logger. Debug mode gets the console
// development encoder at debug level; otherwise JSON at info level.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
