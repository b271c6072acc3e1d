// Package util holds the logging switches shared by the parsing
// packages and the commands.
package util

import "log"

// Logging turns on Logf, which traces documents and directives as
// they run.  Commands set it from their verbose flags.
var Logging = false

// Logf calls log.Printf if Logging is true.
func Logf(format string, args ...interface{}) {
	if !Logging {
		return
	}
	log.Printf(format, args...)
}

// Warnf logs a warning regardless of Logging.
func Warnf(format string, args ...interface{}) {
	log.Printf("warning: "+format, args...)
}
