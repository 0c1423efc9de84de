package match

// Tracker updates the stationary flag of every ball once per physics step.
type Tracker struct {
	balls     []*Ball
	threshold float64
}

func NewTracker(balls []*Ball, threshold float64) *Tracker {
	return &Tracker{balls: balls, threshold: threshold}
}

// Update runs the motion check on every active ball.
func (t *Tracker) Update() {
	for _, b := range t.balls {
		b.UpdateMotion(t.threshold)
	}
}

// AllStationary reports whether every ball in play is at rest.
func (t *Tracker) AllStationary() bool {
	for _, b := range t.balls {
		if b.Active() && !b.Stationary() {
			return false
		}
	}
	return true
}

func (t *Tracker) Balls() []*Ball { return t.balls }

func (t *Tracker) Threshold() float64 { return t.threshold }

// settleTask completes once every ball is stationary. Its first resume is
// skipped: right after an impulse the flags still describe the pre-shot
// table.
type settleTask struct {
	tracker *Tracker
	skipped bool
}

func (s *settleTask) Resume() bool {
	if !s.skipped {
		s.skipped = true
		return false
	}
	return s.tracker.AllStationary()
}
