package history

import "SpotSentinel/internal/model"

// ring is a fixed-capacity buffer keeping the most recent samples.
type ring struct {
	buf   []model.PriceSample
	start int
	n     int
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{buf: make([]model.PriceSample, capacity)}
}

func (r *ring) push(s model.PriceSample) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = s
		r.n++
		return
	}
	r.buf[r.start] = s
	r.start = (r.start + 1) % len(r.buf)
}

// samples returns a copy in insertion order.
func (r *ring) samples() []model.PriceSample {
	out := make([]model.PriceSample, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}
