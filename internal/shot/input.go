package shot

import "github.com/playmatatu/pocketpool/internal/physics"

// Viewport is the client's drawable area in pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Keys is the set of shot keys held during a frame.
type Keys struct {
	Left    bool `json:"left"`
	Right   bool `json:"right"`
	Up      bool `json:"up"`
	Down    bool `json:"down"`
	Trigger bool `json:"trigger"`
}

// TouchPhase is the lifecycle stage of a touch during a frame.
type TouchPhase string

const (
	TouchBegan      TouchPhase = "began"
	TouchMoved      TouchPhase = "moved"
	TouchStationary TouchPhase = "stationary"
	TouchEnded      TouchPhase = "ended"
	TouchCanceled   TouchPhase = "canceled"
)

// Touch is one active contact point.
type Touch struct {
	ID       int          `json:"id"`
	Phase    TouchPhase   `json:"phase"`
	Position physics.Vec2 `json:"position"`
}

// Input is one frame of raw client input. Pointer and touch positions are
// viewport pixels with the origin at the bottom left.
type Input struct {
	Pointer       physics.Vec2 `json:"pointer"`
	PointerDown   bool         `json:"pointer_down"` // any button went down this frame
	PointerUp     bool         `json:"pointer_up"`   // any button went up this frame
	PointerOverUI bool         `json:"pointer_over_ui"`
	Keys          Keys         `json:"keys"`
	Touches       []Touch      `json:"touches,omitempty"`
	Viewport      Viewport     `json:"viewport"`
}

// primaryTouch returns the first touch of the frame.
func (in *Input) primaryTouch() (Touch, bool) {
	if len(in.Touches) == 0 {
		return Touch{}, false
	}
	return in.Touches[0], true
}
