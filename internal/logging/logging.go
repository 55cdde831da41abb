// Package logging holds the shared logrus entry used by the verifier packages.
package logging

import "github.com/sirupsen/logrus"

var (
	logger *logrus.Entry
)

func init() {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
}

// SetLevel changes the level of the shared logger.
func SetLevel(l logrus.Level) {
	logger.Logger.SetLevel(l)
}

// SetLevelString parses and applies a level such as "debug" or "warn".
func SetLevelString(level string) error {
	l, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}
	SetLevel(l)
	return nil
}

// Component returns the shared logger tagged with a component name.
func Component(name string) *logrus.Entry {
	return logger.WithField("component", name)
}

func WithError(e error) *logrus.Entry {
	return logger.WithError(e)
}
