// Package utils holds small helpers shared by the server and the client.
package utils

import (
	"io"

	"github.com/MrSnakeDoc/ussm/internal/logger"
)

// Close closes c and ignores any error.
// Use for response bodies and other best-effort cleanup.
func Close(c io.Closer) {
	_ = c.Close()
}

// CloseLogged closes c and logs a failure under what.
func CloseLogged(c io.Closer, log logger.Logger, what string) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close", logger.String("resource", what), logger.Error(err))
	}
}
