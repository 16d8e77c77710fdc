// Package consolehandler provides handlers that write formatted log
// entries to a console stream (stdout by default) or any io.Writer.
//
// SyncConsoleHandler writes on the caller's goroutine. AsyncConsoleHandler
// hands entries to the shared handler.AsyncHandler worker and never
// blocks callers on the terminal. NewConsoleHandler picks the variant
// from the Async field in ConsoleConfig.
package consolehandler
