package entry

import (
	"context"
	"sync"
	"time"

	"github.com/theirongolddev/dolla/internal/model"
)

// Phase is a step of the post-submit sequence.
type Phase int

const (
	PhaseEditing Phase = iota
	PhaseSubmitted
	PhaseConfirmationShown
	PhaseNavigationRequested
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseEditing:
		return "editing"
	case PhaseSubmitted:
		return "submitted"
	case PhaseConfirmationShown:
		return "confirmation-shown"
	case PhaseNavigationRequested:
		return "navigation-requested"
	case PhaseCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Confirmation sequences what happens after a record is saved: the
// confirmation is shown, then after a delay navigation is requested with
// the record as payload. Each Show issues a token; only the latest token
// can fire, and Cancel invalidates it.
type Confirmation struct {
	mu     sync.Mutex
	phase  Phase
	token  uint64
	record model.ExpenseRecord
	delay  time.Duration
}

// NewConfirmation creates a confirmation that waits delay between showing
// and navigating.
func NewConfirmation(delay time.Duration) *Confirmation {
	return &Confirmation{delay: delay}
}

// Phase returns the current phase.
func (c *Confirmation) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Delay returns the configured delay.
func (c *Confirmation) Delay() time.Duration {
	return c.delay
}

// Record returns the record being confirmed.
func (c *Confirmation) Record() model.ExpenseRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record
}

// Begin moves from editing to submitted. It reports false if a previous
// submission has not finished.
func (c *Confirmation) Begin(rec model.ExpenseRecord) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.phase {
	case PhaseSubmitted, PhaseConfirmationShown:
		return false
	}
	c.phase = PhaseSubmitted
	c.record = rec
	return true
}

// Show moves from submitted to confirmation-shown and returns the token
// that Fire must present once the delay has elapsed.
func (c *Confirmation) Show() (token uint64, delay time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseSubmitted {
		return 0, 0, false
	}
	c.token++
	c.phase = PhaseConfirmationShown
	return c.token, c.delay, true
}

// Fire requests navigation if token is still current. Stale tokens and
// cancelled sequences are ignored.
func (c *Confirmation) Fire(token uint64) (model.ExpenseRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseConfirmationShown || token != c.token {
		return model.ExpenseRecord{}, false
	}
	c.phase = PhaseNavigationRequested
	return c.record, true
}

// Cancel abandons a pending sequence so navigation never fires.
func (c *Confirmation) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.phase {
	case PhaseSubmitted, PhaseConfirmationShown:
		c.phase = PhaseCancelled
		c.token++
		return true
	}
	return false
}

// CancelRecord is Cancel limited to the sequence begun for id. A late
// result for an older submission leaves a newer one alone.
func (c *Confirmation) CancelRecord(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.record.ID != id {
		return false
	}
	switch c.phase {
	case PhaseSubmitted, PhaseConfirmationShown:
		c.phase = PhaseCancelled
		c.token++
		return true
	}
	return false
}

// Reset returns to editing.
func (c *Confirmation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = PhaseEditing
	c.record = model.ExpenseRecord{}
	c.token++
}

// Await shows the confirmation, waits the delay, and fires. It returns
// false if ctx ends first, in which case the sequence is cancelled.
func (c *Confirmation) Await(ctx context.Context) (model.ExpenseRecord, bool) {
	token, delay, ok := c.Show()
	if !ok {
		return model.ExpenseRecord{}, false
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		c.Cancel()
		return model.ExpenseRecord{}, false
	case <-timer.C:
		return c.Fire(token)
	}
}
