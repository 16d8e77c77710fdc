package filter

import (
	"path"
	"reflect"
	"runtime"
	"strings"

	"github.com/philipp01105/krait/core"
)

// ModuleKey is the field QualModulePath adds.
const ModuleKey = "module"

// internalPackages are skipped when walking the stack, so the reported
// module is the first frame outside the logging machinery.
var internalPackages = func() []string {
	root := path.Dir(reflect.TypeOf(SkipFlag{}).PkgPath())
	return []string{
		root + "/core",
		root + "/filter",
		root + "/formatter",
		root + "/handler",
		root + "/logger",
	}
}()

// QualModulePath adds the fully qualified package path of the call site
// as the "module" field. It uses the captured caller when the logger
// recorded one and inspects the stack otherwise. It never suppresses.
type QualModulePath struct{}

// Filter adds the module field unless the entry already carries one.
func (QualModulePath) Filter(entry *core.Entry) bool {
	if _, ok := entry.Lookup(ModuleKey); ok {
		return true
	}

	var module string
	if entry.Caller.Defined && entry.Caller.Function != "" {
		module = entry.Caller.Package()
	} else {
		module = CallerModule(2)
	}
	if module != "" {
		entry.Fields = append(entry.Fields, core.String(ModuleKey, module))
	}
	return true
}

// CallerModule walks the stack above skip frames and returns the
// package path of the first frame outside the runtime and the logging
// packages. It returns "" when no such frame exists.
func CallerModule(skip int) string {
	var pcs [32]uintptr
	n := runtime.Callers(skip+1, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if pkg := core.PackageOf(frame.Function); pkg != "" && !isInternal(pkg) {
			return pkg
		}
		if !more {
			return ""
		}
	}
}

func isInternal(pkg string) bool {
	if pkg == "runtime" || strings.HasPrefix(pkg, "runtime/") {
		return true
	}
	for _, p := range internalPackages {
		if pkg == p || strings.HasPrefix(pkg, p+"/") {
			return true
		}
	}
	return false
}
