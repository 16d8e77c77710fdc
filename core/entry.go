package core

import (
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Entry is one log record. Entries from GetEntry are pooled; code that
// keeps an entry past the call that received it must CloneEntry it.
type Entry struct {
	Time    time.Time
	Level   Level
	Logger  string
	Message string
	Fields  []Field
	Caller  CallerInfo
}

// CallerInfo is the resolved call site of an entry. Defined is false
// when no caller was captured.
type CallerInfo struct {
	File      string
	ShortFile string
	Line      int
	Function  string
	Defined   bool
}

// Package returns the import path of the calling function, e.g.
// "example.com/app/db" for "example.com/app/db.(*Pool).Get".
func (c CallerInfo) Package() string {
	return PackageOf(c.Function)
}

// PackageOf extracts the package path from a fully qualified function
// name.
func PackageOf(funcName string) string {
	slash := strings.LastIndexByte(funcName, '/')
	if dot := strings.IndexByte(funcName[slash+1:], '.'); dot >= 0 {
		return funcName[:slash+1+dot]
	}
	return funcName
}

// Lookup returns the last field with the given key.
// Later fields shadow earlier ones, so call-site fields win over logger fields.
func (e *Entry) Lookup(key string) (Field, bool) {
	for i := len(e.Fields) - 1; i >= 0; i-- {
		if e.Fields[i].Key == key {
			return e.Fields[i], true
		}
	}
	return Field{}, false
}

const (
	// fieldsHint is the field capacity of fresh pooled entries.
	fieldsHint = 8
	// maxPooledFields keeps unusually wide entries out of the pool.
	maxPooledFields = 64
)

var entryPool = sync.Pool{
	New: func() any { return &Entry{Fields: make([]Field, 0, fieldsHint)} },
}

// reset clears e but keeps its Fields backing array.
func (e *Entry) reset() {
	*e = Entry{Fields: e.Fields[:0]}
}

// GetEntry returns an empty pooled entry stamped with the current time.
func GetEntry() *Entry {
	e := entryPool.Get().(*Entry)
	e.reset()
	e.Time = time.Now()
	return e
}

// PutEntry recycles e. It is a no-op for nil.
func PutEntry(e *Entry) {
	if e == nil || cap(e.Fields) > maxPooledFields {
		return
	}
	e.reset()
	entryPool.Put(e)
}

// CloneEntry copies e into a pooled Entry that shares no mutable state
// with the original. Async handlers keep the clone after the caller
// has moved on and possibly recycled e.
func CloneEntry(e *Entry) *Entry {
	c := entryPool.Get().(*Entry)
	*c = Entry{
		Time:    e.Time,
		Level:   e.Level,
		Logger:  e.Logger,
		Message: e.Message,
		Caller:  e.Caller,
		Fields:  append(c.Fields[:0], e.Fields...),
	}
	return c
}

// GetCaller resolves the frame skip levels up, counted like runtime.Caller.
func GetCaller(skip int) CallerInfo {
	var pcs [1]uintptr
	if runtime.Callers(skip+1, pcs[:]) == 0 {
		return CallerInfo{}
	}
	return CallerFromPC(pcs[0])
}

// CallerFromPC resolves a program counter such as slog.Record.PC. A zero
// pc yields an undefined CallerInfo.
func CallerFromPC(pc uintptr) CallerInfo {
	if pc == 0 {
		return CallerInfo{}
	}
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if frame.File == "" {
		return CallerInfo{}
	}
	return CallerInfo{
		File:      frame.File,
		ShortFile: filepath.Base(frame.File),
		Line:      frame.Line,
		Function:  frame.Function,
		Defined:   true,
	}
}
