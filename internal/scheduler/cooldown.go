package scheduler

// Cooldown is a per-key admission gate: a key that acquired it cannot acquire
// again until the release scheduled ticks later has fired.
type Cooldown[K comparable] struct {
	sched  *Scheduler
	ticks  int
	active map[K]struct{}
}

func NewCooldown[K comparable](s *Scheduler, ticks int) *Cooldown[K] {
	return &Cooldown[K]{
		sched:  s,
		ticks:  ticks,
		active: make(map[K]struct{}),
	}
}

// TryAcquire registers key and schedules its release. It returns false, with
// no effect, while key still holds an unexpired window.
func (c *Cooldown[K]) TryAcquire(key K) bool {
	if _, busy := c.active[key]; busy {
		return false
	}
	c.active[key] = struct{}{}
	c.sched.RunTimeout(func() { delete(c.active, key) }, c.ticks)
	return true
}

// Active reports whether key currently holds a window.
func (c *Cooldown[K]) Active(key K) bool {
	_, ok := c.active[key]
	return ok
}

// Len returns the number of keys cooling down.
func (c *Cooldown[K]) Len() int { return len(c.active) }
