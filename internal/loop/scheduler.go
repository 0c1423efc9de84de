// Package loop runs cooperative tasks that are re-entered once per fixed
// simulation pass instead of blocking a goroutine.
package loop

// Task is a suspended computation. Resume is called once per Tick and
// reports whether the task has finished.
type Task interface {
	Resume() (done bool)
}

// TaskFunc adapts a function to Task.
type TaskFunc func() bool

func (f TaskFunc) Resume() bool { return f() }

// Handle refers to a started task.
type Handle struct {
	s  *Scheduler
	id uint64
}

// Cancel stops the task. A canceled task is never resumed again and its
// completion callback never runs. Canceling a finished task is a no-op.
func (h Handle) Cancel() {
	if h.s != nil {
		h.s.cancel(h.id)
	}
}

// Running reports whether the task is still pending.
func (h Handle) Running() bool {
	if h.s == nil {
		return false
	}
	_, ok := h.s.find(h.id)
	return ok
}

type entry struct {
	id       uint64
	task     Task
	onDone   func()
	canceled bool
}

// Scheduler owns a set of pending tasks. It is not safe for concurrent use;
// Start, Cancel and Tick must all come from the goroutine that owns the
// simulation.
type Scheduler struct {
	nextID  uint64
	entries []*entry
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Start registers task. It is first resumed on the next Tick. onDone, if not
// nil, runs right after the task reports completion.
func (s *Scheduler) Start(task Task, onDone func()) Handle {
	s.nextID++
	s.entries = append(s.entries, &entry{id: s.nextID, task: task, onDone: onDone})
	return Handle{s: s, id: s.nextID}
}

// Tick resumes every pending task once, in start order. Tasks started during
// a Tick are first resumed on the following Tick.
func (s *Scheduler) Tick() {
	pending := s.entries
	for _, e := range pending {
		if e.canceled {
			continue
		}
		if !e.task.Resume() {
			continue
		}
		// Resume may have canceled this task through its own handle.
		if e.canceled {
			continue
		}
		s.remove(e.id)
		if e.onDone != nil {
			e.onDone()
		}
	}
}

// StopAll cancels every pending task.
func (s *Scheduler) StopAll() {
	for _, e := range s.entries {
		e.canceled = true
	}
	s.entries = nil
}

// Len returns the number of pending tasks.
func (s *Scheduler) Len() int {
	return len(s.entries)
}

func (s *Scheduler) cancel(id uint64) {
	if e, ok := s.find(id); ok {
		e.canceled = true
		s.remove(id)
	}
}

func (s *Scheduler) find(id uint64) (*entry, bool) {
	for _, e := range s.entries {
		if e.id == id {
			return e, true
		}
	}
	return nil, false
}

func (s *Scheduler) remove(id uint64) {
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return
		}
	}
}
