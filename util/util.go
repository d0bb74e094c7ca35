package util

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Close resource and prints error.
func Close(c io.Closer) {
	if err := c.Close(); err != nil {
		logrus.Error(err)
	}
}
