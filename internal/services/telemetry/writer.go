package telemetry

import (
	"sync"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"go.uber.org/zap"
)

// Writer wraps the non-blocking InfluxDB write API and remembers when the
// last asynchronous write error happened, for health and readiness.
type Writer struct {
	api api.WriteAPI
	log *zap.Logger
	now func() time.Time

	mu      sync.RWMutex
	lastErr time.Time
	counts  map[string]int64

	done chan struct{}
}

// NewWriter starts draining w.Errors(). The drain stops when the InfluxDB
// client is closed.
func NewWriter(w api.WriteAPI, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	ww := &Writer{
		api:     w,
		log:     log,
		now:     time.Now,
		lastErr: time.Now().Add(-24 * time.Hour),
		counts:  make(map[string]int64),
		done:    make(chan struct{}),
	}
	go func() {
		defer close(ww.done)
		for err := range w.Errors() {
			if err == nil {
				continue
			}
			ww.mu.Lock()
			ww.lastErr = ww.now()
			ww.mu.Unlock()
			log.Warn("influx write error", zap.Error(err))
		}
	}()
	return ww
}

func (w *Writer) Write(p *write.Point) {
	w.api.WritePoint(p)
}

func (w *Writer) Flush() {
	w.api.Flush()
}

// Done is closed once the error channel has been drained.
func (w *Writer) Done() <-chan struct{} {
	return w.done
}

// LastErrorAge is how long ago the last write error happened. A nil
// writer reports a very old error.
func (w *Writer) LastErrorAge() time.Duration {
	if w == nil {
		return 99999 * time.Hour
	}
	w.mu.RLock()
	t := w.lastErr
	w.mu.RUnlock()
	return w.now().Sub(t)
}

func (w *Writer) MarkIngest(kind string) {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.counts[kind]++
	w.mu.Unlock()
}

func (w *Writer) Count(kind string) int64 {
	if w == nil {
		return 0
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.counts[kind]
}
