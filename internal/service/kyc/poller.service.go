package kyc

import (
	"context"
	"mobile-banking-core/internal/pkg/backend"
	"mobile-banking-core/internal/pkg/logger"
	"sync"
	"time"
)

const DefaultPollInterval = 3 * time.Second

// CaseFetcher is the part of the backend the poller reads from.
type CaseFetcher interface {
	MyCase(ctx context.Context) (*backend.CaseStatus, error)
	Checks(ctx context.Context, caseID string) ([]backend.Check, error)
}

// PollResult is delivered after every successful fetch. Case is nil when the
// user has no case yet.
type PollResult struct {
	Case   *backend.CaseStatus
	Checks []backend.Check
}

// Poller refreshes the KYC case on a fixed interval until the backend
// reports a decision or the poller is stopped.
type Poller struct {
	fetcher  CaseFetcher
	interval time.Duration
	onResult func(PollResult)

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(fetcher CaseFetcher, interval time.Duration, onResult func(PollResult)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if onResult == nil {
		onResult = func(PollResult) {}
	}
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		onResult: onResult,
	}
}

// Start launches the loop; it is a no-op while a loop is already running.
func (p *Poller) Start(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.done != nil {
		return false
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done

	go p.run(ctx, done)
	return true
}

// Stop cancels the loop and waits for it to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done != nil
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer func() {
		p.mu.Lock()
		if p.done == done {
			p.cancel()
			p.cancel, p.done = nil, nil
		}
		p.mu.Unlock()
		close(done)
	}()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if p.tick(ctx) {
			return
		}
		timer.Reset(p.interval)
	}
}

// tick fetches once and reports whether a terminal status was reached.
// Fetch errors are logged and retried on the next tick.
func (p *Poller) tick(ctx context.Context) bool {
	kycCase, err := p.fetcher.MyCase(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Debug.Printf("kyc poll: %v", err)
		}
		return false
	}

	res := PollResult{Case: kycCase}
	if kycCase != nil {
		checks, err := p.fetcher.Checks(ctx, kycCase.CaseID)
		if err != nil {
			logger.Debug.Printf("kyc poll checks %s: %v", kycCase.CaseID, err)
		}
		res.Checks = checks
	}

	if ctx.Err() != nil {
		return true
	}
	p.onResult(res)

	return kycCase != nil && kycCase.Status.IsTerminal()
}
