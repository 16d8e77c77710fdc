package logger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/philipp01105/krait/handler"
)

// reportInterval is the minimum spacing between two reports of the same
// error kind.
const reportInterval = time.Second

// handleReporter passes Handle failures to an ErrorReporter without
// flooding it: each error kind is reported at most once per interval,
// and the next report counts what was suppressed in between.
type handleReporter struct {
	report   handler.ErrorReporter
	interval time.Duration
	now      func() time.Time

	mu    sync.Mutex
	kinds map[string]*reportState
}

type reportState struct {
	last       time.Time
	suppressed int
}

func newHandleReporter(report handler.ErrorReporter) *handleReporter {
	return &handleReporter{
		report:   report,
		interval: reportInterval,
		now:      time.Now,
		kinds:    make(map[string]*reportState),
	}
}

// errorKind groups errors so a full queue or a closed handler is one
// kind however many entries hit it.
func errorKind(err error) string {
	switch {
	case errors.Is(err, handler.ErrQueueFull):
		return "queue full"
	case errors.Is(err, handler.ErrHandlerClosed):
		return "handler closed"
	}
	var we *handler.WriteError
	if errors.As(err, &we) {
		return we.Op + " " + we.Path
	}
	return err.Error()
}

func (r *handleReporter) handle(err error) {
	kind := errorKind(err)
	now := r.now()

	r.mu.Lock()
	st, ok := r.kinds[kind]
	if !ok {
		st = &reportState{}
		r.kinds[kind] = st
	}
	if ok && now.Sub(st.last) < r.interval {
		st.suppressed++
		r.mu.Unlock()
		return
	}
	suppressed := st.suppressed
	st.last, st.suppressed = now, 0
	r.mu.Unlock()

	if suppressed > 0 {
		err = fmt.Errorf("%w (%d similar errors suppressed)", err, suppressed)
	}
	r.report(err)
}
