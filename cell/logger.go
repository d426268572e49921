package cell

import (
	"log"
	"os"
)

// Logger is the ambient logging seam. It is satisfied by *log.Logger
// directly, matching the standard library's own "log" package convention;
// tests inject a buffer-backed logger instead of asserting on stderr.
type Logger interface {
	Printf(format string, args ...any)
}

var defaultLogger Logger = log.New(os.Stderr, "cellgraph: ", log.LstdFlags)

func (c *Cell) logger() Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return defaultLogger
}

// warn logs a soft error kind and swallows it. Fatal kinds panic with an
// *Error instead; Drop and Done rely on this for UsageUnderflow and
// DoneUnsupported.
func (c *Cell) warn(k Kind, msg string) {
	if isFatal(k) {
		panic(newError(k, msg))
	}
	c.logger().Printf("%s: %s (cell #%d)", k, msg, c.id)
}
