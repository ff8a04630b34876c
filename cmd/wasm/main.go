//go:build js && wasm

package main

import (
	"encoding/json"
	"log/slog"
	"sync"
	"syscall/js"
	"time"

	"github.com/inamate/inamate/canvas-go/internal/engine"
	"github.com/inamate/inamate/canvas-go/internal/geometry"
	"github.com/inamate/inamate/canvas-go/internal/render"
	"github.com/inamate/inamate/canvas-go/internal/schema"
	"github.com/inamate/inamate/canvas-go/internal/typeid"
)

var (
	reg = schema.NewBuiltinRegistry()

	mu          sync.Mutex
	sess        *engine.Session
	unsubscribe func()
	lastOverlay string
	onOverlay   js.Value
	onError     js.Value
)

func main() {
	canvasEngine := js.Global().Get("Object").New()

	// --- Lifecycle ---
	canvasEngine.Set("start", js.FuncOf(start))
	canvasEngine.Set("stop", js.FuncOf(stop))
	canvasEngine.Set("onOverlay", js.FuncOf(setOnOverlay))
	canvasEngine.Set("onError", js.FuncOf(setOnError))

	// --- Pointer events ---
	canvasEngine.Set("pointerDown", js.FuncOf(pointer((*engine.Engine).PointerDown)))
	canvasEngine.Set("pointerMove", js.FuncOf(pointer((*engine.Engine).PointerMove)))
	canvasEngine.Set("pointerUp", js.FuncOf(pointer((*engine.Engine).PointerUp)))
	canvasEngine.Set("click", js.FuncOf(pointer((*engine.Engine).Click)))
	canvasEngine.Set("doubleClick", js.FuncOf(pointer((*engine.Engine).DoubleClick)))
	canvasEngine.Set("contextMenu", js.FuncOf(pointer((*engine.Engine).ContextMenu)))

	// --- Commands ---
	canvasEngine.Set("selectTool", js.FuncOf(selectTool))
	canvasEngine.Set("clearTool", js.FuncOf(simple((*engine.Engine).ClearTool)))
	canvasEngine.Set("setInput", js.FuncOf(setInput))
	canvasEngine.Set("commit", js.FuncOf(commit))
	canvasEngine.Set("cancel", js.FuncOf(simple((*engine.Engine).Cancel)))
	canvasEngine.Set("select", js.FuncOf(selectPrimitive))
	canvasEngine.Set("clearSelection", js.FuncOf(simple((*engine.Engine).ClearSelection)))
	canvasEngine.Set("remove", js.FuncOf(simple((*engine.Engine).Remove)))
	canvasEngine.Set("refresh", js.FuncOf(simple((*engine.Engine).Refresh)))
	canvasEngine.Set("beginClipDraw", js.FuncOf(simple((*engine.Engine).BeginClipDraw)))
	canvasEngine.Set("setClipEnabled", js.FuncOf(setClipEnabled))
	canvasEngine.Set("setClipShape", js.FuncOf(setClipShape))
	canvasEngine.Set("setClipAlgorithm", js.FuncOf(setClipAlgorithm))
	canvasEngine.Set("setBackground", js.FuncOf(setBackground))
	canvasEngine.Set("dismissNotice", js.FuncOf(simple((*engine.Engine).DismissNotice)))

	// --- Queries ---
	canvasEngine.Set("getOverlay", js.FuncOf(getOverlay))
	canvasEngine.Set("getSchemas", js.FuncOf(getSchemas))

	js.Global().Set("canvasEngine", canvasEngine)
	js.Global().Set("canvasWasmReady", js.ValueOf(true))

	select {}
}

func errorValue(msg string) js.Value {
	return js.ValueOf(map[string]interface{}{"error": msg})
}

func okValue() js.Value {
	return js.ValueOf(map[string]interface{}{"ok": true})
}

// start(renderServiceURL, width, height) opens a session and bootstraps the
// render engine. It returns the session id.
func start(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return errorValue("usage: start(renderServiceURL, width, height)")
	}
	mu.Lock()
	running := sess != nil
	mu.Unlock()
	if running {
		return errorValue("session already started")
	}

	id := typeid.NewSessionID()
	svc := render.NewClient(args[0].String(), id, 10*time.Second)
	s := engine.NewSession(id, reg, svc, engine.Options{Width: args[1].Int(), Height: args[2].Int()}, 0)

	mu.Lock()
	sess = s
	unsubscribe = s.Subscribe(publish)
	mu.Unlock()

	if err := s.Do((*engine.Engine).Bootstrap); err != nil {
		return errorValue(err.Error())
	}
	return js.ValueOf(id)
}

func stop(this js.Value, args []js.Value) interface{} {
	// Closing waits on the session loop, so it must not block the JS thread.
	go stopSession()
	return nil
}

func stopSession() {
	mu.Lock()
	s, unsub := sess, unsubscribe
	sess, unsubscribe = nil, nil
	mu.Unlock()
	if s == nil {
		return
	}
	unsub()
	s.Close()
}

// publish runs on the session loop after every step.
func publish(o engine.Overlay) {
	data, err := json.Marshal(o)
	if err != nil {
		slog.Error("marshal overlay", "error", err)
		return
	}
	mu.Lock()
	lastOverlay = string(data)
	cb := onOverlay
	mu.Unlock()
	if cb.Type() == js.TypeFunction {
		cb.Invoke(string(data))
	}
}

func setOnOverlay(this js.Value, args []js.Value) interface{} {
	mu.Lock()
	defer mu.Unlock()
	onOverlay = js.Undefined()
	if len(args) > 0 {
		onOverlay = args[0]
	}
	return nil
}

func setOnError(this js.Value, args []js.Value) interface{} {
	mu.Lock()
	defer mu.Unlock()
	onError = js.Undefined()
	if len(args) > 0 {
		onError = args[0]
	}
	return nil
}

// run posts fn to the session loop. Errors are reported through the onError
// callback since the call returns before fn runs.
func run(op string, fn func(e *engine.Engine) error) interface{} {
	mu.Lock()
	s := sess
	mu.Unlock()
	if s == nil {
		return errorValue("no session")
	}
	err := s.Do(func(e *engine.Engine) {
		if err := fn(e); err != nil {
			reportError(op, err)
		}
	})
	if err != nil {
		return errorValue(err.Error())
	}
	return okValue()
}

func reportError(op string, err error) {
	slog.Debug("command failed", "op", op, "error", err)
	mu.Lock()
	cb := onError
	mu.Unlock()
	if cb.Type() == js.TypeFunction {
		cb.Invoke(op, err.Error())
	}
}

func pointer(fn func(e *engine.Engine, p geometry.Position)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		if len(args) < 2 {
			return nil
		}
		p := geometry.Pos(args[0].Int(), args[1].Int())
		return run("pointer", func(e *engine.Engine) error {
			fn(e, p)
			return nil
		})
	}
}

func simple(fn func(e *engine.Engine)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		return run("command", func(e *engine.Engine) error {
			fn(e)
			return nil
		})
	}
}

func selectTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("missing tool id")
	}
	id := args[0].String()
	return run("selectTool", func(e *engine.Engine) error { return e.SelectTool(id) })
}

// setInput(name, valuesJSON) stores a structured creation input. An empty
// array clears it.
func setInput(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return errorValue("usage: setInput(name, valuesJSON)")
	}
	name := args[0].String()
	var values []float64
	if err := json.Unmarshal([]byte(args[1].String()), &values); err != nil {
		return errorValue("invalid values: " + err.Error())
	}
	return run("setInput", func(e *engine.Engine) error {
		e.SetInput(name, values)
		return nil
	})
}

func commit(this js.Value, args []js.Value) interface{} {
	return run("commit", (*engine.Engine).Commit)
}

func selectPrimitive(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("missing index")
	}
	index := args[0].Int()
	additive := len(args) > 1 && args[1].Truthy()
	return run("select", func(e *engine.Engine) error { return e.Select(index, additive) })
}

func setClipEnabled(this js.Value, args []js.Value) interface{} {
	on := len(args) > 0 && args[0].Truthy()
	return run("setClipEnabled", func(e *engine.Engine) error {
		e.SetClipEnabled(on)
		return nil
	})
}

func setClipShape(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("missing shape")
	}
	shape := args[0].String()
	return run("setClipShape", func(e *engine.Engine) error { return e.SetClipShape(shape) })
}

func setClipAlgorithm(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorValue("missing algorithm")
	}
	a := args[0].Int()
	return run("setClipAlgorithm", func(e *engine.Engine) error { return e.SetClipAlgorithm(a) })
}

func setBackground(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return errorValue("usage: setBackground(r, g, b[, a])")
	}
	c := render.Color{R: uint8(args[0].Int()), G: uint8(args[1].Int()), B: uint8(args[2].Int()), A: 255}
	if len(args) > 3 {
		c.A = uint8(args[3].Int())
	}
	return run("setBackground", func(e *engine.Engine) error {
		e.SetBackground(c)
		return nil
	})
}

// --- Query Handlers ---

func getOverlay(this js.Value, args []js.Value) interface{} {
	mu.Lock()
	defer mu.Unlock()
	if lastOverlay == "" {
		return js.ValueOf("{}")
	}
	return js.ValueOf(lastOverlay)
}

func getSchemas(this js.Value, args []js.Value) interface{} {
	data, err := json.Marshal(reg.List())
	if err != nil {
		return errorValue(err.Error())
	}
	return js.ValueOf(string(data))
}
