package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/observability/metrics"
	"github.com/prashantsingh432/prospect-pulse-searcher/pkg/logging"
)

const defaultReconnectDelay = 3 * time.Second

// HookConfig configures a table mirror.
type HookConfig struct {
	Table  string
	Filter string
	// Events restricts which event types are applied; EventAll (or empty)
	// applies everything.
	Events EventType
	// IDField names the identity column used to match rows. Defaults to "id".
	IDField string

	OnInsert func(Event)
	OnUpdate func(Event)
	OnDelete func(Event)

	// Enabled gates the initial connection attempt. A disabled hook stays
	// disconnected until Reconnect is called.
	Enabled bool

	// ReconnectDelay is the fixed wait before a reconnect attempt. There is
	// no backoff and no retry cap: the hook retries indefinitely while open.
	ReconnectDelay time.Duration

	Logger  *logging.Logger
	Metrics *metrics.RealtimeMetrics
}

// Hook maintains an ordered in-memory mirror of a remote table, kept current
// by a change-event subscription. Transport failures are non-fatal: the hook
// records the error, schedules exactly one reconnect attempt after a fixed
// delay, and keeps serving the last known mirror in the meantime.
type Hook struct {
	cfg HookConfig
	sub Subscriber

	mu        sync.Mutex
	rows      []map[string]any
	connected bool
	lastErr   error
	closed    bool
	gen       int

	// reconnectTimer is the single pending reconnect attempt. Scheduling a
	// new one always cancels the previous timer first.
	reconnectTimer *time.Timer
	current        Subscription
}

// NewHook builds a hook and, when enabled, immediately attempts to connect.
func NewHook(cfg HookConfig, sub Subscriber) *Hook {
	if cfg.Table == "" {
		panic("realtime: hook table required")
	}
	if cfg.IDField == "" {
		cfg.IDField = "id"
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	h := &Hook{cfg: cfg, sub: sub}
	if cfg.Enabled {
		h.connect()
	}
	return h
}

// Connected reports whether the subscription is currently live.
func (h *Hook) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connected
}

// LastError returns the most recent transport failure, cleared on a
// successful resubscribe.
func (h *Hook) LastError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

// Rows returns a snapshot of the local mirror in insertion order.
func (h *Hook) Rows() []map[string]any {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]map[string]any, len(h.rows))
	copy(out, h.rows)
	return out
}

// Seed replaces the mirror contents, typically with an initial query result
// fetched before events start flowing.
func (h *Hook) Seed(rows []map[string]any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rows = append([]map[string]any(nil), rows...)
}

// Reconnect tears down any current subscription and re-establishes it
// unconditionally, regardless of state.
func (h *Hook) Reconnect() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.teardownLocked()
	h.mu.Unlock()
	h.connect()
}

// Close cancels any pending reconnect attempt and releases the subscription.
// No callbacks fire after Close returns.
func (h *Hook) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.teardownLocked()
	h.connected = false
}

// teardownLocked stops the pending timer and closes the live subscription.
// Bumping gen invalidates the receive loop attached to the old subscription.
func (h *Hook) teardownLocked() {
	if h.reconnectTimer != nil {
		h.reconnectTimer.Stop()
		h.reconnectTimer = nil
	}
	if h.current != nil {
		_ = h.current.Close()
		h.current = nil
	}
	h.gen++
}

func (h *Hook) connect() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.teardownLocked()
	h.gen++
	gen := h.gen
	h.mu.Unlock()

	sub, err := h.sub.Subscribe(context.Background(), h.cfg.Table, h.cfg.Filter)

	h.mu.Lock()
	if h.closed || gen != h.gen {
		h.mu.Unlock()
		if sub != nil {
			_ = sub.Close()
		}
		return
	}
	if err != nil {
		h.connected = false
		h.lastErr = fmt.Errorf("realtime: channel error on %s: %w", h.cfg.Table, err)
		h.scheduleReconnectLocked()
		h.mu.Unlock()
		h.cfg.Logger.Warn("realtime subscribe failed", "table", h.cfg.Table, "error", err)
		return
	}
	h.current = sub
	h.connected = true
	h.lastErr = nil
	h.mu.Unlock()

	h.cfg.Metrics.ObserveConnected(h.cfg.Table, true)
	h.cfg.Logger.Info("realtime subscribed", "table", h.cfg.Table, "filter", h.cfg.Filter)

	go h.receive(sub, gen)
}

func (h *Hook) receive(sub Subscription, gen int) {
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				// Graceful close: mark disconnected, no automatic reconnect.
				h.mu.Lock()
				if gen != h.gen || h.closed {
					h.mu.Unlock()
					return
				}
				h.connected = false
				h.mu.Unlock()
				h.cfg.Metrics.ObserveConnected(h.cfg.Table, false)
				h.cfg.Logger.Info("realtime channel closed", "table", h.cfg.Table)
				return
			}
			h.apply(ev, gen)
		case err := <-sub.Errors():
			h.mu.Lock()
			if gen != h.gen || h.closed {
				h.mu.Unlock()
				return
			}
			h.connected = false
			h.lastErr = fmt.Errorf("realtime: channel error on %s: %w", h.cfg.Table, err)
			_ = sub.Close()
			h.current = nil
			h.scheduleReconnectLocked()
			h.mu.Unlock()
			h.cfg.Metrics.ObserveConnected(h.cfg.Table, false)
			h.cfg.Logger.Warn("realtime channel error", "table", h.cfg.Table, "error", err)
			return
		}
	}
}

// scheduleReconnectLocked arms the single reconnect timer. A previously
// pending attempt is cancelled first so repeated failures never stack timers.
func (h *Hook) scheduleReconnectLocked() {
	if h.closed {
		return
	}
	if h.reconnectTimer != nil {
		h.reconnectTimer.Stop()
	}
	h.cfg.Metrics.ObserveReconnectScheduled(h.cfg.Table)
	h.reconnectTimer = time.AfterFunc(h.cfg.ReconnectDelay, func() {
		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			return
		}
		h.reconnectTimer = nil
		h.mu.Unlock()
		h.connect()
	})
}

func (h *Hook) wants(t EventType) bool {
	return h.cfg.Events == "" || h.cfg.Events == EventAll || h.cfg.Events == t
}

// apply updates the local mirror for one event, then invokes the matching
// callback. Update events with no matching row are silently dropped.
func (h *Hook) apply(ev Event, gen int) {
	if !h.wants(ev.Type) {
		return
	}

	h.mu.Lock()
	if gen != h.gen || h.closed {
		h.mu.Unlock()
		return
	}

	applied := true
	switch ev.Type {
	case EventInsert:
		h.rows = append(h.rows, ev.Row)
	case EventUpdate:
		applied = false
		id := identity(ev.Row, h.cfg.IDField)
		for i, row := range h.rows {
			if identity(row, h.cfg.IDField) == id {
				h.rows[i] = ev.Row
				applied = true
				break
			}
		}
	case EventDelete:
		id := identity(ev.OldRow, h.cfg.IDField)
		kept := h.rows[:0]
		for _, row := range h.rows {
			if identity(row, h.cfg.IDField) != id {
				kept = append(kept, row)
			}
		}
		h.rows = kept
	default:
		applied = false
	}
	h.mu.Unlock()

	if !applied {
		return
	}
	h.cfg.Metrics.ObserveEventApplied(h.cfg.Table, string(ev.Type))
	switch ev.Type {
	case EventInsert:
		if h.cfg.OnInsert != nil {
			h.cfg.OnInsert(ev)
		}
	case EventUpdate:
		if h.cfg.OnUpdate != nil {
			h.cfg.OnUpdate(ev)
		}
	case EventDelete:
		if h.cfg.OnDelete != nil {
			h.cfg.OnDelete(ev)
		}
	}
}

// identity normalizes the id field across JSON numeric and string forms so
// an insert carrying float64(5) matches an update carrying int(5).
func identity(row map[string]any, field string) string {
	if row == nil {
		return ""
	}
	v, ok := row[field]
	if !ok {
		return ""
	}
	switch n := v.(type) {
	case float64:
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}
		return fmt.Sprintf("%v", n)
	default:
		return fmt.Sprintf("%v", v)
	}
}
