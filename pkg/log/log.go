package log

import (
	stdlog "log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
)

// New returns a logr.Logger writing to stderr, suitable for examples and
// tools. Libraries embedding flowz should pass their own logger through
// flowz.WithLogr instead.
func New() logr.Logger {
	stdr.SetVerbosity(1)
	return stdr.New(stdlog.New(os.Stderr, "", stdlog.LstdFlags))
}
