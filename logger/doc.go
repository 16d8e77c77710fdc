// Package logger is the public API of krait. Most users only need to
// import this package.
//
// A Logger is immutable after construction. All fields, the level,
// and the handler are set once via the Builder and never modified,
// which makes Logger safe for concurrent use without locking on the
// read path. A Logger built WithAtomicLevel reads its threshold from a
// shared AtomicLevel instead.
//
// Besides the familiar Debug/Info/Warn/Error levels, Trace sits below
// Debug and Notice between Info and Warn.
//
// # Registry
//
// Get(module) and ForCaller() return cached, named loggers that write
// through one process-wide handler. The first entry lazily creates an
// async console handler; Configure replaces it with handlers described
// by a Config, usually loaded from YAML with LoadConfig:
//
//	level: info
//	handlers:
//	  - type: file
//	    path: /var/log/app.log
//	    queue_capacity: 1000
//	    backpressure: block
//	    block_timeout: 100ms
//	    filters: [qual_module, "skip:skip_display"]
//
// Call Shutdown before the program exits. It flushes and closes the
// handler and waits for its workers.
//
//	log := logger.ForCaller()
//	log.Notice("ready", logger.Int("port", 8080))
//	defer logger.Shutdown(context.Background())
//
// The package-level functions Info, Error, Debugf, etc. delegate to
// Default, which is the unnamed registry logger unless SetDefault
// replaces it.
//
// Level checks happen before any allocation, so filtered-out
// messages cost only a single integer comparison.
package logger
