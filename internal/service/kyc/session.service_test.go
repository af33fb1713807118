package kyc

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mobile-banking-core/internal/common/enum"
	types "mobile-banking-core/internal/common/type"
	"mobile-banking-core/internal/pkg/backend"
	"sync"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	scriptedFetcher

	mu        sync.Mutex
	uploads   []enum.KycAssetEnum
	failAsset enum.KycAssetEnum
	submitted *backend.SubmitRequest
	submitRes *backend.CaseStatus
}

func (b *fakeBackend) UploadAsset(_ context.Context, asset enum.KycAssetEnum, _, _ string, _ []byte) (*backend.UploadResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if asset == b.failAsset {
		return nil, errors.New("scanner offline")
	}
	b.uploads = append(b.uploads, asset)
	return &backend.UploadResult{ID: "up-" + asset.ToString()}, nil
}

func (b *fakeBackend) Submit(_ context.Context, req backend.SubmitRequest) (*backend.CaseStatus, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submitted = &req
	if b.submitRes == nil {
		return &backend.CaseStatus{CaseID: "case-1", Status: enum.KYC_CASE_PENDING}, nil
	}
	return b.submitRes, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	queues []string
	events []any
}

func (p *fakePublisher) Publish(_ context.Context, queue string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queues = append(p.queues, queue)
	p.events = append(p.events, payload)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fakeArchive struct {
	mu   sync.Mutex
	keys []string
}

func (a *fakeArchive) GetBucketName() string { return "captures" }

func (a *fakeArchive) UploadFile(_ context.Context, key string, _ []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys = append(a.keys, key)
	return nil
}

func (a *fakeArchive) GetPresignedURL(_ context.Context, key string) (string, error) {
	return "https://captures.example/" + key, nil
}

func newPool(t *testing.T) *ants.Pool {
	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	t.Cleanup(pool.Release)
	return pool
}

// sharpCard renders a striped card that passes every document gate.
func sharpCard(t *testing.T) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 60, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 60; x++ {
			if (x+y)%2 == 0 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.Gray{Y: 200})
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestSession(t *testing.T, b *fakeBackend, pub *fakePublisher) *Session {
	s := NewSession(t.Context(), SessionDeps{
		Backend:      b,
		Pool:         newPool(t),
		Publisher:    pub,
		PollInterval: 5 * time.Millisecond,
	})
	t.Cleanup(s.Close)
	return s
}

func TestSession_CaptureAnalyzesAndUploads(t *testing.T) {
	b := &fakeBackend{}
	s := newTestSession(t, b, &fakePublisher{})

	card := sharpCard(t)
	_, err := s.Capture(t.Context(), enum.KYC_ASSET_DOC_FRONT, "front.png", "image/png", card)
	require.NoError(t, err)
	snap, err := s.Capture(t.Context(), enum.KYC_ASSET_DOC_BACK, "back.png", "image/png", card)
	require.NoError(t, err)

	require.True(t, snap.State.DocQuality.Computed())
	assert.True(t, snap.Gates.Document)

	s.WaitUploads()
	snap = s.Snapshot()
	assert.Equal(t, "up-DOC_FRONT", snap.State.UploadIDs[enum.KYC_ASSET_DOC_FRONT])
	assert.Equal(t, "up-DOC_BACK", snap.State.UploadIDs[enum.KYC_ASSET_DOC_BACK])

	snap, err = s.Advance()
	require.NoError(t, err)
	assert.Equal(t, enum.KYC_STEP_SELFIE, snap.State.Step)
}

func TestSession_UndecodableDocumentIsNotComputed(t *testing.T) {
	s := newTestSession(t, &fakeBackend{}, &fakePublisher{})

	snap, err := s.Capture(t.Context(), enum.KYC_ASSET_DOC_FRONT, "front.jpg", "image/jpeg", []byte("garbage"))
	require.NoError(t, err)
	assert.False(t, snap.State.DocQuality.Computed())
	assert.NotEmpty(t, snap.State.Captures[enum.KYC_ASSET_DOC_FRONT])
}

func TestSession_UploadFailureLeavesIDAbsent(t *testing.T) {
	b := &fakeBackend{failAsset: enum.KYC_ASSET_SELFIE}
	s := newTestSession(t, b, &fakePublisher{})

	_, err := s.Capture(t.Context(), enum.KYC_ASSET_SELFIE, "selfie.jpg", "image/jpeg", []byte{0xff, 0xd8})
	require.NoError(t, err)
	s.WaitUploads()

	snap := s.Snapshot()
	assert.NotEmpty(t, snap.State.Captures[enum.KYC_ASSET_SELFIE])
	assert.NotContains(t, snap.State.UploadIDs, enum.KYC_ASSET_SELFIE)
}

func TestSession_RejectsUnknownAssetAndEmptyContent(t *testing.T) {
	s := newTestSession(t, &fakeBackend{}, &fakePublisher{})

	_, err := s.Capture(t.Context(), "PASSPORT", "p.jpg", "image/jpeg", []byte{1})
	assert.ErrorIs(t, err, ErrUnknownAsset)

	_, err = s.Capture(t.Context(), enum.KYC_ASSET_SELFIE, "s.jpg", "image/jpeg", nil)
	assert.Error(t, err)
}

func TestSession_ArchivesCaptures(t *testing.T) {
	archive := &fakeArchive{}
	s := NewSession(t.Context(), SessionDeps{Backend: &fakeBackend{}, Archive: archive, Pool: newPool(t)})
	t.Cleanup(s.Close)

	snap, err := s.Capture(t.Context(), enum.KYC_ASSET_ADDRESS_PROOF, "bill.PDF", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)

	ref := snap.State.Captures[enum.KYC_ASSET_ADDRESS_PROOF]
	assert.Equal(t, []string{ref}, archive.keys)
	assert.Contains(t, ref, "kyc/"+s.ID+"/address_proof-")
	assert.Contains(t, ref, ".pdf")
}

func TestSession_WalksToReviewWithoutExistingCase(t *testing.T) {
	b := &fakeBackend{}
	b.cases = []*backend.CaseStatus{nil}
	s := newTestSession(t, b, &fakePublisher{})

	card := sharpCard(t)
	for _, a := range []enum.KycAssetEnum{enum.KYC_ASSET_DOC_FRONT, enum.KYC_ASSET_DOC_BACK} {
		_, err := s.Capture(t.Context(), a, "doc.png", "image/png", card)
		require.NoError(t, err)
	}
	snap, err := s.Advance()
	require.NoError(t, err)
	require.Equal(t, enum.KYC_STEP_SELFIE, snap.State.Step)

	_, err = s.SetSelfieScores(0.9, 0.9)
	assert.ErrorIs(t, err, ErrBadScores, "selfie not captured yet")

	_, err = s.Capture(t.Context(), enum.KYC_ASSET_SELFIE, "selfie.jpg", "image/jpeg", []byte{0xff, 0xd8})
	require.NoError(t, err)

	require.True(t, s.StartPolling())
	assert.Eventually(t, func() bool { return b.callCount() > 0 }, time.Second, 5*time.Millisecond)
	s.StopPolling()

	_, err = s.Advance()
	assert.ErrorIs(t, err, ErrStepBlocked, "no case means no backend checks")

	_, err = s.SetSelfieScores(0.82, 0.75)
	require.NoError(t, err)
	snap, err = s.Advance()
	require.NoError(t, err)
	require.Equal(t, enum.KYC_STEP_ADDRESS, snap.State.Step)

	_, err = s.Capture(t.Context(), enum.KYC_ASSET_ADDRESS_PROOF, "bill.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	snap, err = s.Advance()
	require.NoError(t, err)
	assert.Equal(t, enum.KYC_STEP_REVIEW, snap.State.Step)
	assert.Equal(t, 0.82, *snap.State.LivenessScore)
}

func TestSession_SubmitRequiresEveryUploadAndConsent(t *testing.T) {
	b := &fakeBackend{}
	pub := &fakePublisher{}
	s := newTestSession(t, b, pub)

	_, err := s.Submit(t.Context())
	assert.ErrorIs(t, err, ErrNotReady)

	for _, a := range enum.KycAssets {
		_, err := s.Capture(t.Context(), a, "x.jpg", "image/jpeg", []byte{1, 2, 3})
		require.NoError(t, err)
	}
	s.WaitUploads()

	_, err = s.Submit(t.Context())
	assert.ErrorIs(t, err, ErrNotReady)

	s.SetConsent(true)
	res, err := s.Submit(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "case-1", res.CaseID)

	require.NotNil(t, b.submitted)
	assert.Equal(t, backend.SubmitRequest{
		DocFrontID: "up-DOC_FRONT",
		DocBackID:  "up-DOC_BACK",
		SelfieID:   "up-SELFIE",
		AddressID:  "up-ADDRESS_PROOF",
		Consent:    true,
	}, *b.submitted)
	assert.Zero(t, pub.count(), "pending case is not a decision")
}

func TestSession_PollingAppliesChecksAndPublishesDecisionOnce(t *testing.T) {
	b := &fakeBackend{}
	b.cases = []*backend.CaseStatus{
		caseWith(enum.KYC_CASE_IN_REVIEW),
		caseWith(enum.KYC_CASE_REJECTED),
	}
	pub := &fakePublisher{}
	s := newTestSession(t, b, pub)

	require.True(t, s.StartPolling())
	assert.Eventually(t, func() bool { return !s.Snapshot().Polling }, time.Second, 5*time.Millisecond)

	snap := s.Snapshot()
	require.NotNil(t, snap.Case)
	assert.Equal(t, enum.KYC_CASE_REJECTED, snap.Case.Status)
	assert.Equal(t, 0.9, *snap.State.LivenessScore)

	require.Equal(t, 1, pub.count())
	assert.Equal(t, types.QueueKycDecided, pub.queues[0])
	event := pub.events[0].(types.KycDecidedEvent)
	assert.Equal(t, s.ID, event.SessionID)
	assert.Equal(t, enum.KYC_CASE_REJECTED, event.Status)

	// A restarted poller sees the same decision but does not publish again.
	s.StartPolling()
	assert.Eventually(t, func() bool { return !s.Snapshot().Polling }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, pub.count())
}

func TestSession_RetakeDropsUpload(t *testing.T) {
	s := newTestSession(t, &fakeBackend{}, &fakePublisher{})

	_, err := s.Capture(t.Context(), enum.KYC_ASSET_SELFIE, "s.jpg", "image/jpeg", []byte{1})
	require.NoError(t, err)
	s.WaitUploads()

	snap, err := s.Retake(enum.KYC_ASSET_SELFIE)
	require.NoError(t, err)
	assert.Empty(t, snap.State.Captures[enum.KYC_ASSET_SELFIE])
	assert.Empty(t, snap.State.UploadIDs[enum.KYC_ASSET_SELFIE])
}
