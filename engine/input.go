package engine

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-framegraph/common"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/camera"
	"github.com/Carmen-Shannon/oxy-framegraph/engine/renderer/world_renderer"
)

// fastMoveFactor multiplies camera speed while shift is held.
const fastMoveFactor = 4

// inputState collects window events on the window goroutine until the render goroutine applies
// them to the editor camera and the world renderer.
type inputState struct {
	mu      sync.Mutex
	held    map[uint32]bool
	pressed []uint32
	lookX   float32
	lookY   float32
	scroll  float32
}

func newInputState() *inputState {
	return &inputState{held: make(map[uint32]bool)}
}

func (in *inputState) key(code uint32, down bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if down && !in.held[code] {
		in.pressed = append(in.pressed, code)
	}
	in.held[code] = down
}

func (in *inputState) look(dx, dy float32) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.lookX += dx
	in.lookY += dy
}

func (in *inputState) zoom(delta float32) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.scroll += delta
}

// apply moves the editor camera by dt seconds of held keys and applies the look, zoom and toggle
// events received since the last call.
func (in *inputState) apply(dt float32, cam camera.Camera, w world_renderer.WorldRenderer) {
	in.mu.Lock()
	axis := func(pos, neg uint32) float32 {
		var v float32
		if in.held[pos] {
			v++
		}
		if in.held[neg] {
			v--
		}
		return v
	}
	forward := axis(common.KeyW, common.KeyS)
	right := axis(common.KeyD, common.KeyA)
	up := axis(common.KeyE, common.KeyQ)
	fast := in.held[common.KeyLeftShift]
	lookX, lookY, scroll := in.lookX, in.lookY, in.scroll
	pressed := in.pressed
	in.lookX, in.lookY, in.scroll, in.pressed = 0, 0, 0, nil
	in.mu.Unlock()

	for _, code := range pressed {
		switch code {
		case common.KeyG:
			w.SetShowGrid(!w.ShowGrid())
		case common.KeyB:
			w.SetShadowsEnabled(!w.ShadowsEnabled())
		case common.KeyTab:
			w.SetEditorMode(!w.EditorMode())
		}
	}

	ctrl := cam.Controller()
	if ctrl == nil {
		return
	}
	step := dt
	if fast {
		step *= fastMoveFactor
	}
	if forward != 0 || right != 0 || up != 0 {
		ctrl.Move(forward*step, right*step, up*step)
	}
	if lookX != 0 || lookY != 0 {
		ctrl.Look(lookX, -lookY)
	}
	if scroll != 0 {
		ctrl.Zoom(scroll)
	}
}
