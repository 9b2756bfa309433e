package npystream

import (
	"log"
	"os"

	"github.com/usnistgov/npystream/npyappend"
	"gopkg.in/natefinch/lumberjack.v2"
)

// BuildInfo can contain compile-time information about the build
type BuildInfo struct {
	Version string
	Githash string
	Date    string
	Summary string
}

// Build is a global holding compile-time information about the build
var Build = BuildInfo{
	Version: "0.1.0",
	Githash: "no git hash computed",
	Date:    "no build date computed",
}

// ProblemLogger will log warning messages to a file
var ProblemLogger *log.Logger

func init() {
	// The main program will override this, but at least initialize with a sensible value
	ProblemLogger = log.New(os.Stderr, "", log.LstdFlags)
}

// StartLogger sends ProblemLogger (and the npyappend package's logger) to
// a rotating log file at pfname.
func StartLogger(pfname string) *log.Logger {
	probLogger := log.New(os.Stderr, "", log.LstdFlags)
	probLogger.SetOutput(&lumberjack.Logger{
		Filename:   pfname,
		MaxSize:    10,   // megabytes after which new file is created
		MaxBackups: 4,    // number of backups
		MaxAge:     180,  // days
		Compress:   true, // whether to gzip the backups
	})
	ProblemLogger = probLogger
	npyappend.ProblemLogger = probLogger
	return probLogger
}
