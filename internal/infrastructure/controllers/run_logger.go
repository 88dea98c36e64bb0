package controllers

import (
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

// runLogger tags the log lines of one CLI invocation with a fresh run id.
func runLogger(command string) *logger.Entry {
	return logger.WithFields(logger.Fields{
		"command": command,
		"run_id":  uuid.NewString(),
	})
}
