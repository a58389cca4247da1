package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventNodeEnter    EventType = "node_enter"
	EventNodeLeave    EventType = "node_leave"
	EventSuspend      EventType = "suspend"
	EventComplete     EventType = "complete"
	EventCallFailed   EventType = "call_failed"
	EventCallFallback EventType = "call_fallback"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// NodeEvent represents entry into or exit from a node, or a halt before one.
type NodeEvent struct {
	EventBase
	Node     string        `json:"node"`
	Next     string        `json:"next,omitempty"`
	Outcome  string        `json:"outcome,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// CallEvent represents a failed external call attempt or a fallback being used.
type CallEvent struct {
	EventBase
	Op      string      `json:"op"`
	Attempt int         `json:"attempt"`
	Kind    CallFailure `json:"kind,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any hook may be nil.
type LifecycleHooks struct {
	OnNodeEnter  func(context.Context, *NodeEvent)
	OnNodeLeave  func(context.Context, *NodeEvent)
	OnSuspend    func(context.Context, *NodeEvent)
	OnComplete   func(context.Context, *NodeEvent)
	OnCallFailed func(context.Context, *CallEvent)
	OnFallback   func(context.Context, *CallEvent)
}

// Merge returns hooks that invoke h and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter:  chainNode(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave:  chainNode(h.OnNodeLeave, other.OnNodeLeave),
		OnSuspend:    chainNode(h.OnSuspend, other.OnSuspend),
		OnComplete:   chainNode(h.OnComplete, other.OnComplete),
		OnCallFailed: chainCall(h.OnCallFailed, other.OnCallFailed),
		OnFallback:   chainCall(h.OnFallback, other.OnFallback),
	}
}

func chainNode(a, b func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *NodeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainCall(a, b func(context.Context, *CallEvent)) func(context.Context, *CallEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *CallEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
