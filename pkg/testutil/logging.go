package testutil

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Importing testutil silences logrus unless the test binary runs verbose, in
// which case everything down to trace is shown.
func init() {
	logrus.SetLevel(logrus.TraceLevel)
	if !isVerbose(os.Args) {
		logrus.SetOutput(io.Discard)
	}
}

func isVerbose(args []string) bool {
	for _, arg := range args {
		if arg == "-test.v" || strings.HasPrefix(arg, "-test.v=") && arg != "-test.v=false" {
			return true
		}
	}
	return false
}

// DisableLogging discards standard logger output until reset is called.
func DisableLogging() (reset func()) {
	original := logrus.StandardLogger().Out
	logrus.SetOutput(io.Discard)
	return func() {
		logrus.SetOutput(original)
	}
}
