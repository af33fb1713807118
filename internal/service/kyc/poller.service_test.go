package kyc

import (
	"context"
	"errors"
	"mobile-banking-core/internal/common/enum"
	"mobile-banking-core/internal/pkg/backend"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFetcher replays a list of responses; the last one repeats.
type scriptedFetcher struct {
	mu        sync.Mutex
	cases     []*backend.CaseStatus
	errs      []error
	calls     int
	checkArgs []string
}

func (f *scriptedFetcher) MyCase(context.Context) (*backend.CaseStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := min(f.calls, len(f.cases)-1)
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	return f.cases[i], nil
}

func (f *scriptedFetcher) Checks(_ context.Context, caseID string) ([]backend.Check, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkArgs = append(f.checkArgs, caseID)
	return []backend.Check{{Type: enum.KYC_CHECK_LIVENESS, Score: score(0.9)}}, nil
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func caseWith(status enum.KycCaseStatusEnum) *backend.CaseStatus {
	return &backend.CaseStatus{CaseID: "case-1", Status: status}
}

type resultLog struct {
	mu  sync.Mutex
	got []PollResult
}

func (r *resultLog) add(res PollResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, res)
}

func (r *resultLog) all() []PollResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PollResult(nil), r.got...)
}

func TestPoller_StopsOnTerminalStatus(t *testing.T) {
	f := &scriptedFetcher{cases: []*backend.CaseStatus{
		caseWith(enum.KYC_CASE_PENDING),
		caseWith(enum.KYC_CASE_IN_REVIEW),
		caseWith(enum.KYC_CASE_APPROVED),
		caseWith(enum.KYC_CASE_APPROVED),
	}}
	log := &resultLog{}
	p := NewPoller(f, 5*time.Millisecond, log.add)

	require.True(t, p.Start(t.Context()))
	assert.Eventually(t, func() bool { return !p.Running() }, time.Second, 5*time.Millisecond)

	got := log.all()
	require.Len(t, got, 3)
	assert.Equal(t, enum.KYC_CASE_APPROVED, got[2].Case.Status)
	assert.Len(t, got[2].Checks, 1)
	assert.Equal(t, 3, f.callCount())
}

func TestPoller_SwallowsErrors(t *testing.T) {
	f := &scriptedFetcher{
		cases: []*backend.CaseStatus{nil, nil, caseWith(enum.KYC_CASE_NEEDS_MORE_INFO)},
		errs:  []error{errors.New("offline"), errors.New("offline")},
	}
	log := &resultLog{}
	p := NewPoller(f, 5*time.Millisecond, log.add)

	p.Start(t.Context())
	assert.Eventually(t, func() bool { return !p.Running() }, time.Second, 5*time.Millisecond)

	got := log.all()
	require.Len(t, got, 1)
	assert.Equal(t, enum.KYC_CASE_NEEDS_MORE_INFO, got[0].Case.Status)
}

func TestPoller_NoCaseKeepsPolling(t *testing.T) {
	f := &scriptedFetcher{cases: []*backend.CaseStatus{nil}}
	log := &resultLog{}
	p := NewPoller(f, 5*time.Millisecond, log.add)

	p.Start(t.Context())
	assert.Eventually(t, func() bool { return f.callCount() >= 3 }, time.Second, 5*time.Millisecond)
	p.Stop()

	assert.False(t, p.Running())
	for _, res := range log.all() {
		assert.Nil(t, res.Case)
	}
	assert.Empty(t, f.checkArgs)
}

func TestPoller_StartIsNoopWhileRunning(t *testing.T) {
	f := &scriptedFetcher{cases: []*backend.CaseStatus{caseWith(enum.KYC_CASE_PENDING)}}
	p := NewPoller(f, time.Hour, nil)

	require.True(t, p.Start(t.Context()))
	assert.False(t, p.Start(t.Context()))
	assert.Eventually(t, func() bool { return f.callCount() == 1 }, time.Second, 5*time.Millisecond)

	p.Stop()
	assert.False(t, p.Running())
	assert.Equal(t, 1, f.callCount())

	// Stopped pollers can be restarted.
	require.True(t, p.Start(t.Context()))
	p.Stop()
}

func TestPoller_DefaultInterval(t *testing.T) {
	p := NewPoller(&scriptedFetcher{}, 0, nil)
	assert.Equal(t, DefaultPollInterval, p.interval)
}
