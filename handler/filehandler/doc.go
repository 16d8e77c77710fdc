// Package filehandler provides file output handlers that write formatted
// log entries to files with automatic rotation by size, age, or interval.
//
// Two variants share one file sink:
//
//   - AsyncFileHandler snapshots each entry into a FIFO queue and writes
//     it from a dedicated goroutine. Callers never wait on disk I/O;
//     write and open failures are sent to the configured ErrorReporter.
//   - SyncFileHandler writes on the caller's goroutine and returns
//     failures directly.
//
// The file is opened on first write, parent directories included, and
// reopened on the next write after a failure. NewFileHandler chooses the
// variant based on the Async field in FileConfig.
package filehandler
