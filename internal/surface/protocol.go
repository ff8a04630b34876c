package surface

import (
	"encoding/json"

	"github.com/inamate/inamate/canvas-go/internal/engine"
	"github.com/inamate/inamate/canvas-go/internal/render"
)

// Message is the envelope for everything sent over a session socket.
type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	Seq       int64           `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// PointerPayload carries a pointer position in canvas pixels.
type PointerPayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type ToolPayload struct {
	ID string `json:"id"`
}

// InputPayload sets or, with no values, clears a structured creation input.
type InputPayload struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
}

type SelectPayload struct {
	Index    int  `json:"index"`
	Additive bool `json:"additive,omitempty"`
}

type ClipEnablePayload struct {
	Enabled bool `json:"enabled"`
}

type ClipShapePayload struct {
	Shape string `json:"shape"`
}

type ClipAlgorithmPayload struct {
	Algorithm int `json:"algorithm"`
}

type BackgroundPayload struct {
	Color render.Color `json:"color"`
}

type WelcomePayload struct {
	SessionID string `json:"sessionId"`
	ClientID  string `json:"clientId"`
}

type StatePayload struct {
	Overlay engine.Overlay `json:"overlay"`
}

type ErrorPayload struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message"`
}

const (
	// Pointer events
	TypePointerDown        = "pointer.down"
	TypePointerMove        = "pointer.move"
	TypePointerUp          = "pointer.up"
	TypePointerClick       = "pointer.click"
	TypePointerDoubleClick = "pointer.dblclick"
	TypePointerContextMenu = "pointer.contextmenu"

	// Tools and creation
	TypeToolSelect = "tool.select"
	TypeToolClear  = "tool.clear"
	TypeInputSet   = "input.set"
	TypeCommit     = "commit"
	TypeCancel     = "cancel"

	// Selection and edits
	TypeSelect         = "select"
	TypeSelectionClear = "selection.clear"
	TypeRemove         = "remove"
	TypeRefresh        = "refresh"

	// Global options
	TypeClipDraw      = "clip.draw"
	TypeClipEnable    = "clip.enable"
	TypeClipShape     = "clip.shape"
	TypeClipAlgorithm = "clip.algorithm"
	TypeBackgroundSet = "background.set"
	TypeNoticeDismiss = "notice.dismiss"

	// Server to client
	TypeWelcome = "welcome"
	TypeState   = "state"
	TypeError   = "error"
)
