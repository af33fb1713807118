package payment

import "time"

// PollSchedule bounds the status poll of one intent.
type PollSchedule struct {
	Initial time.Duration
	Max     time.Duration
	Total   time.Duration
}

func DefaultPollSchedule() PollSchedule {
	return PollSchedule{
		Initial: 1000 * time.Millisecond,
		Max:     10000 * time.Millisecond,
		Total:   120000 * time.Millisecond,
	}
}

func (p PollSchedule) withDefaults() PollSchedule {
	d := DefaultPollSchedule()
	if p.Initial <= 0 {
		p.Initial = d.Initial
	}
	if p.Max <= 0 {
		p.Max = d.Max
	}
	if p.Total <= 0 {
		p.Total = d.Total
	}
	return p
}

func (p PollSchedule) backoff() *exponentialBackoff {
	return &exponentialBackoff{min: p.Initial, max: p.Max, factor: 2}
}

// Delays lists every wait the poll performs for an intent that never
// settles. The poll gives up once their sum reaches Total.
func (p PollSchedule) Delays() []time.Duration {
	p = p.withDefaults()
	b := p.backoff()

	var out []time.Duration
	var elapsed time.Duration
	for elapsed < p.Total {
		d := b.next()
		out = append(out, d)
		elapsed += d
	}
	return out
}

type exponentialBackoff struct {
	min    time.Duration
	max    time.Duration
	factor float64
	curr   time.Duration
}

func (b *exponentialBackoff) next() time.Duration {
	if b.curr == 0 {
		b.curr = b.min
	} else {
		b.curr = time.Duration(float64(b.curr) * b.factor)
		if b.curr > b.max {
			b.curr = b.max
		}
	}
	return b.curr
}
