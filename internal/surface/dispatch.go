package surface

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/inamate/inamate/canvas-go/internal/engine"
	"github.com/inamate/inamate/canvas-go/internal/geometry"
)

var (
	ErrUnknownType    = errors.New("unknown message type")
	ErrInvalidPayload = errors.New("invalid payload")
)

// command is a decoded message, run on the session loop.
type command func(e *engine.Engine) error

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	sess, ok := h.Session(sender.SessionID)
	if !ok {
		sender.SendError(msg.Type, "session not found")
		return
	}

	cmd, err := decodeCommand(msg)
	if err != nil {
		slog.Warn("rejected message", "type", msg.Type, "error", err, "client", sender.ClientID)
		sender.SendError(msg.Type, err.Error())
		return
	}

	err = sess.Do(func(e *engine.Engine) {
		if err := cmd(e); err != nil {
			slog.Debug("command failed", "type", msg.Type, "error", err, "session", sess.ID)
			sender.SendError(msg.Type, err.Error())
		}
	})
	if err != nil {
		sender.SendError(msg.Type, err.Error())
	}
}

func decodePayload[T any](msg *Message) (T, error) {
	var v T
	if len(msg.Payload) == 0 {
		return v, fmt.Errorf("%s: %w: missing payload", msg.Type, ErrInvalidPayload)
	}
	if err := json.Unmarshal(msg.Payload, &v); err != nil {
		return v, fmt.Errorf("%s: %w: %v", msg.Type, ErrInvalidPayload, err)
	}
	return v, nil
}

func pointer(msg *Message, fn func(e *engine.Engine, p geometry.Position)) (command, error) {
	p, err := decodePayload[PointerPayload](msg)
	if err != nil {
		return nil, err
	}
	pos := geometry.Pos(p.X, p.Y)
	return func(e *engine.Engine) error {
		fn(e, pos)
		return nil
	}, nil
}

// always wraps an engine call that cannot fail.
func always(fn func(e *engine.Engine)) command {
	return func(e *engine.Engine) error {
		fn(e)
		return nil
	}
}

func decodeCommand(msg *Message) (command, error) {
	switch msg.Type {
	case TypePointerDown:
		return pointer(msg, (*engine.Engine).PointerDown)
	case TypePointerMove:
		return pointer(msg, (*engine.Engine).PointerMove)
	case TypePointerUp:
		return pointer(msg, (*engine.Engine).PointerUp)
	case TypePointerClick:
		return pointer(msg, (*engine.Engine).Click)
	case TypePointerDoubleClick:
		return pointer(msg, (*engine.Engine).DoubleClick)
	case TypePointerContextMenu:
		return pointer(msg, (*engine.Engine).ContextMenu)

	case TypeToolSelect:
		p, err := decodePayload[ToolPayload](msg)
		if err != nil {
			return nil, err
		}
		return func(e *engine.Engine) error { return e.SelectTool(p.ID) }, nil
	case TypeToolClear:
		return always((*engine.Engine).ClearTool), nil
	case TypeInputSet:
		p, err := decodePayload[InputPayload](msg)
		if err != nil {
			return nil, err
		}
		if p.Name == "" {
			return nil, fmt.Errorf("%s: %w: missing name", msg.Type, ErrInvalidPayload)
		}
		return always(func(e *engine.Engine) { e.SetInput(p.Name, p.Values) }), nil
	case TypeCommit:
		return (*engine.Engine).Commit, nil
	case TypeCancel:
		return always((*engine.Engine).Cancel), nil

	case TypeSelect:
		p, err := decodePayload[SelectPayload](msg)
		if err != nil {
			return nil, err
		}
		return func(e *engine.Engine) error { return e.Select(p.Index, p.Additive) }, nil
	case TypeSelectionClear:
		return always((*engine.Engine).ClearSelection), nil
	case TypeRemove:
		return always((*engine.Engine).Remove), nil
	case TypeRefresh:
		return always((*engine.Engine).Refresh), nil

	case TypeClipDraw:
		return always((*engine.Engine).BeginClipDraw), nil
	case TypeClipEnable:
		p, err := decodePayload[ClipEnablePayload](msg)
		if err != nil {
			return nil, err
		}
		return always(func(e *engine.Engine) { e.SetClipEnabled(p.Enabled) }), nil
	case TypeClipShape:
		p, err := decodePayload[ClipShapePayload](msg)
		if err != nil {
			return nil, err
		}
		return func(e *engine.Engine) error { return e.SetClipShape(p.Shape) }, nil
	case TypeClipAlgorithm:
		p, err := decodePayload[ClipAlgorithmPayload](msg)
		if err != nil {
			return nil, err
		}
		return func(e *engine.Engine) error { return e.SetClipAlgorithm(p.Algorithm) }, nil
	case TypeBackgroundSet:
		p, err := decodePayload[BackgroundPayload](msg)
		if err != nil {
			return nil, err
		}
		return always(func(e *engine.Engine) { e.SetBackground(p.Color) }), nil
	case TypeNoticeDismiss:
		return always((*engine.Engine).DismissNotice), nil
	}
	return nil, fmt.Errorf("%q: %w", msg.Type, ErrUnknownType)
}
