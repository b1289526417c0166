package game

import (
	"sync"
	"time"

	"github.com/scythe504/speedboard/internal"
)

// Heartbeat emits time-sync for one connection at a fixed interval.
type Heartbeat struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func StartHeartbeat(interval time.Duration, now func() time.Time, emit func(internal.TimeSyncData)) *Heartbeat {
	if interval <= 0 {
		interval = internal.TimeSyncInterval
	}
	h := &Heartbeat{stop: make(chan struct{}), done: make(chan struct{})}

	go func() {
		defer close(h.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C:
				emit(internal.TimeSyncData{ServerTS: now().UnixMilli()})
			}
		}
	}()
	return h
}

// Stop cancels the heartbeat and waits for its goroutine. Safe on nil and
// safe to call more than once.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}

// Pong echoes the client timestamp with the measured round trip. A client
// clock ahead of the server yields 0 rather than a negative value.
func Pong(ts int64, now time.Time) internal.PongData {
	return internal.PongData{TS: ts, RttMs: max(now.UnixMilli()-ts, 0)}
}
