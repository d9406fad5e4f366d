package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSolveStart  EventType = "solve_start"
	EventSolveFinish EventType = "solve_finish"
	EventItemDecode  EventType = "item_decode"
	EventSceneUpdate EventType = "scene_update"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// SolveEvent represents one round trip to the solver.
type SolveEvent struct {
	EventBase
	Definition string        `json:"definition"`
	Generation uint64        `json:"generation"`
	Duration   time.Duration `json:"duration,omitempty"`
	Err        error         `json:"-"`
}

// ItemEvent represents the decoding of a single leaf.
type ItemEvent struct {
	EventBase
	Path     string `json:"path"`
	ItemType string `json:"item_type"`
	Decoder  string `json:"decoder,omitempty"`
	Decoded  bool   `json:"decoded"`
	Err      error  `json:"-"`
}

// SceneEvent represents a scene rebuild.
type SceneEvent struct {
	EventBase
	Objects int `json:"objects"`
	Nodes   int `json:"nodes"`
}

// LifecycleHooks defines callbacks for pipeline observability.
type LifecycleHooks struct {
	OnSolveStart  func(context.Context, *SolveEvent)
	OnSolveFinish func(context.Context, *SolveEvent)
	OnItemDecode  func(context.Context, *ItemEvent)
	OnSceneUpdate func(context.Context, *SceneEvent)
}
