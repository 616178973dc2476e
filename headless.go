package tick

import (
	"sync"
	"sync/atomic"
)

type HeadlessProps struct {
	Width  int
	Height int
	// Frames stops the loop after this many presented frames. Zero runs
	// until RequestClose.
	Frames int64
}

// HeadlessSurface is a Surface without a display. Draw calls are recorded
// and handed over on Present.
type HeadlessSurface struct {
	*DrawQueue

	width, height int
	frames        int64
	resized       bool

	presented   atomic.Int64
	closeReq    atomic.Bool
	initialized bool

	mutex     sync.RWMutex
	keys      map[Key]bool
	lastFrame Frame
	onPresent func(Frame)
}

func NewHeadlessSurface(props *HeadlessProps) *HeadlessSurface {
	if props == nil {
		props = &HeadlessProps{}
	}
	if props.Width == 0 {
		props.Width = 600
	}
	if props.Height == 0 {
		props.Height = 480
	}

	return &HeadlessSurface{
		DrawQueue: NewDrawQueue(),
		width:     props.Width,
		height:    props.Height,
		frames:    props.Frames,
		keys:      make(map[Key]bool),
	}
}

func (h *HeadlessSurface) Initialize() error {
	h.initialized = true
	return nil
}

func (h *HeadlessSurface) Initialized() bool {
	return h.initialized
}

func (h *HeadlessSurface) ShouldTerminate() bool {
	if h.closeReq.Load() {
		return true
	}
	return h.frames > 0 && h.presented.Load() >= h.frames
}

// RequestClose asks the loop to stop before its next iteration. Safe to call
// from any goroutine.
func (h *HeadlessSurface) RequestClose() {
	h.closeReq.Store(true)
}

func (h *HeadlessSurface) Present() error {
	frame := h.Swap()

	h.mutex.Lock()
	h.lastFrame = frame
	onPresent := h.onPresent
	h.mutex.Unlock()

	h.presented.Add(1)
	if onPresent != nil {
		onPresent(frame)
	}
	return nil
}

// OnPresent registers a callback receiving every presented frame.
func (h *HeadlessSurface) OnPresent(fn func(Frame)) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.onPresent = fn
}

func (h *HeadlessSurface) Presented() int64 {
	return h.presented.Load()
}

func (h *HeadlessSurface) LastFrame() Frame {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.lastFrame
}

func (h *HeadlessSurface) Resize(width, height int) {
	h.width = width
	h.height = height
	h.resized = true
}

func (h *HeadlessSurface) Resized() bool {
	return h.resized
}

func (h *HeadlessSurface) SetResized(resized bool) {
	h.resized = resized
}

func (h *HeadlessSurface) Size() (int, int) {
	return h.width, h.height
}

func (h *HeadlessSurface) Press(key Key) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.keys[key] = true
}

func (h *HeadlessSurface) Release(key Key) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.keys, key)
}

func (h *HeadlessSurface) IsKeyPressed(key Key) bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.keys[key]
}
