package holodetect

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	logMu  sync.RWMutex
	logger = logrus.NewEntry(logrus.StandardLogger())
)

// SetLogger replaces the logger used by the pipeline packages
func SetLogger(l *logrus.Entry) {
	logMu.Lock()
	defer logMu.Unlock()

	if l == nil {
		l = logrus.NewEntry(logrus.StandardLogger())
	}

	logger = l
}

// Logger returns the logger used by the pipeline packages, components add
// their own fields to it
func Logger() *logrus.Entry {
	logMu.RLock()
	defer logMu.RUnlock()
	return logger
}
