package history

// ring is a fixed-capacity ring buffer of run results. Appending past
// capacity evicts the oldest entry; eviction is an explicit invariant,
// not an accident of slice growth.
type ring struct {
	buf   []RunResult
	start int
	count int
}

func newRing(capacity int) *ring {
	if capacity <= 0 {
		capacity = 1
	}
	return &ring{buf: make([]RunResult, capacity)}
}

func (r *ring) append(run RunResult) {
	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = run
		r.count++
		return
	}
	// Full: overwrite the oldest slot and advance.
	r.buf[r.start] = run
	r.start = (r.start + 1) % len(r.buf)
}

// snapshot returns entries oldest-first as a fresh slice.
func (r *ring) snapshot() []RunResult {
	out := make([]RunResult, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

func (r *ring) len() int {
	return r.count
}
