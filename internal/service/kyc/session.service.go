package kyc

import (
	"context"
	"errors"
	"fmt"
	"mobile-banking-core/internal/common/enum"
	types "mobile-banking-core/internal/common/type"
	"mobile-banking-core/internal/pkg/backend"
	"mobile-banking-core/internal/pkg/imagequality"
	"mobile-banking-core/internal/pkg/logger"
	"mobile-banking-core/internal/pkg/rabbitmq"
	s3aws "mobile-banking-core/internal/pkg/storage/s3"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
)

var (
	ErrUnknownAsset = errors.New("unknown kyc asset")
	ErrNotReady     = errors.New("kyc submission is not complete")
	ErrStepBlocked  = errors.New("current kyc step is not complete")
	ErrBadScores    = errors.New("selfie scores need a captured selfie and values in [0, 1]")
)

// Backend is the KYC surface of the backend API.
type Backend interface {
	CaseFetcher
	UploadAsset(ctx context.Context, asset enum.KycAssetEnum, fileName, contentType string, content []byte) (*backend.UploadResult, error)
	Submit(ctx context.Context, req backend.SubmitRequest) (*backend.CaseStatus, error)
}

type SessionDeps struct {
	Backend      Backend
	Archive      s3aws.Is3 // optional
	Pool         *ants.Pool
	Publisher    rabbitmq.IPublisher
	PollInterval time.Duration
}

// Session is the state behind one KYC wizard screen.
type Session struct {
	ID        string
	CreatedAt time.Time

	ctx     context.Context
	cancel  context.CancelFunc
	deps    SessionDeps
	poller  *Poller
	uploads sync.WaitGroup

	mu      sync.RWMutex
	state   UiState
	kycCase *backend.CaseStatus
	checks  []backend.Check
	decided bool
}

// Snapshot is a consistent copy of the session for rendering.
type Snapshot struct {
	ID      string              `json:"id"`
	State   UiState             `json:"state"`
	Gates   Gates               `json:"gates"`
	Case    *backend.CaseStatus `json:"case,omitempty"`
	Checks  []backend.Check     `json:"checks,omitempty"`
	Polling bool                `json:"polling"`
}

func NewSession(ctx context.Context, deps SessionDeps) *Session {
	ctx, cancel := context.WithCancel(ctx)
	if deps.Publisher == nil {
		deps.Publisher = rabbitmq.NopPublisher{}
	}
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		deps:      deps,
		state:     NewUiState(),
	}
	s.poller = NewPoller(deps.Backend, deps.PollInterval, s.onPoll)
	return s
}

func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	state := s.state.clone()
	return Snapshot{
		ID:      s.ID,
		State:   state,
		Gates:   EvaluateGates(state),
		Case:    s.kycCase,
		Checks:  s.checks,
		Polling: s.poller.Running(),
	}
}

func (s *Session) update(fn func(UiState) UiState) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	return s.snapshotLocked()
}

// Capture scores the image when it is a document side, archives it when an
// archive is configured and starts its upload in the background.
func (s *Session) Capture(ctx context.Context, asset enum.KycAssetEnum, fileName, contentType string, content []byte) (Snapshot, error) {
	if !asset.IsValid() {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownAsset, asset)
	}
	if len(content) == 0 {
		return Snapshot{}, fmt.Errorf("empty %s capture", asset)
	}

	var quality imagequality.DocQuality
	if asset.IsDocumentSide() {
		q, err := imagequality.AnalyzeBytes(content)
		if err != nil {
			logger.Warning.Printf("kyc %s: quality not computed for %s: %v", s.ID, asset, err)
		}
		quality = q
	}

	ref := s.captureKey(asset, fileName)
	if s.deps.Archive != nil {
		if err := s.deps.Archive.UploadFile(ctx, ref, content, contentType); err != nil {
			logger.Warning.Printf("kyc %s: archive %s: %v", s.ID, asset, err)
		}
	}

	snap := s.update(func(st UiState) UiState {
		return Capture(st, asset, ref, quality)
	})
	s.upload(asset, ref, fileName, contentType, content)
	return snap, nil
}

func (s *Session) captureKey(asset enum.KycAssetEnum, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("kyc/%s/%s-%s%s", s.ID, strings.ToLower(asset.ToString()), uuid.NewString(), ext)
}

// upload is fire and forget: a failure leaves the asset without an id.
func (s *Session) upload(asset enum.KycAssetEnum, ref, fileName, contentType string, content []byte) {
	s.uploads.Add(1)
	err := s.deps.Pool.Submit(func() {
		defer s.uploads.Done()

		res, err := s.deps.Backend.UploadAsset(s.ctx, asset, fileName, contentType, content)
		if err != nil {
			if s.ctx.Err() == nil {
				logger.Warning.Printf("kyc %s: %v", s.ID, err)
			}
			return
		}

		s.mu.Lock()
		var recorded bool
		s.state, recorded = RecordUpload(s.state, asset, ref, res.ID)
		s.mu.Unlock()

		if !recorded {
			logger.Debug.Printf("kyc %s: dropping upload %s for replaced %s capture", s.ID, res.ID, asset)
		}
	})
	if err != nil {
		s.uploads.Done()
		logger.Warning.Printf("kyc %s: upload %s not scheduled: %v", s.ID, asset, err)
	}
}

// WaitUploads blocks until every scheduled upload finished.
func (s *Session) WaitUploads() {
	s.uploads.Wait()
}

func (s *Session) Retake(asset enum.KycAssetEnum) (Snapshot, error) {
	if !asset.IsValid() {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrUnknownAsset, asset)
	}
	return s.update(func(st UiState) UiState { return Retake(st, asset) }), nil
}

// CaptureRef returns the stored reference of a captured asset.
func (s *Session) CaptureRef(asset enum.KycAssetEnum) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref := s.state.Captures[asset]
	return ref, ref != ""
}

func (s *Session) Next() Snapshot { return s.update(Next) }

func (s *Session) Back() Snapshot { return s.update(Back) }

// Advance moves forward only when the current step's gate holds.
func (s *Session) Advance() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, moved := Advance(s.state)
	if !moved {
		return s.snapshotLocked(), ErrStepBlocked
	}
	s.state = next
	return s.snapshotLocked(), nil
}

// SetSelfieScores stores device-side liveness and face match scores so the
// selfie gate can pass before a case exists.
func (s *Session) SetSelfieScores(liveness, faceMatch float64) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := SetSelfieScores(s.state, liveness, faceMatch)
	if !ok {
		return s.snapshotLocked(), ErrBadScores
	}
	s.state = next
	return s.snapshotLocked(), nil
}

func (s *Session) SetConsent(accepted bool) Snapshot {
	return s.update(func(st UiState) UiState { return SetConsent(st, accepted) })
}

// Submit sends the four upload ids once every gate holds.
func (s *Session) Submit(ctx context.Context) (*backend.CaseStatus, error) {
	s.mu.RLock()
	state := s.state.clone()
	s.mu.RUnlock()

	if !CanSubmit(state) {
		return nil, ErrNotReady
	}

	res, err := s.deps.Backend.Submit(ctx, backend.SubmitRequest{
		DocFrontID: state.UploadIDs[enum.KYC_ASSET_DOC_FRONT],
		DocBackID:  state.UploadIDs[enum.KYC_ASSET_DOC_BACK],
		SelfieID:   state.UploadIDs[enum.KYC_ASSET_SELFIE],
		AddressID:  state.UploadIDs[enum.KYC_ASSET_ADDRESS_PROOF],
		Consent:    state.ConsentAccepted,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.kycCase = res
	s.mu.Unlock()

	s.notifyDecision(res, nil)
	return res, nil
}

// StartPolling reports false when the poller was already running.
func (s *Session) StartPolling() bool {
	return s.poller.Start(s.ctx)
}

func (s *Session) StopPolling() {
	s.poller.Stop()
}

func (s *Session) onPoll(res PollResult) {
	s.mu.Lock()
	s.kycCase = res.Case
	s.checks = res.Checks
	if len(res.Checks) > 0 {
		s.state = ApplyChecks(s.state, res.Checks)
	}
	s.mu.Unlock()

	s.notifyDecision(res.Case, res.Checks)
}

func (s *Session) notifyDecision(c *backend.CaseStatus, checks []backend.Check) {
	if c == nil || !c.Status.IsTerminal() {
		return
	}

	s.mu.Lock()
	already := s.decided
	s.decided = true
	s.mu.Unlock()
	if already {
		return
	}

	event := types.KycDecidedEvent{
		SessionID:      s.ID,
		CaseID:         c.CaseID,
		Status:         c.Status,
		DecisionReason: c.DecisionReason,
		Checks:         lo.Ternary[any](len(checks) > 0, checks, nil),
		DecidedAt:      time.Now(),
	}
	if err := s.deps.Publisher.Publish(s.ctx, types.QueueKycDecided, event); err != nil {
		logger.Warning.Printf("kyc %s: publish decision: %v", s.ID, err)
	}
}

// Close stops the poller, cancels in-flight uploads and waits for them.
func (s *Session) Close() {
	s.poller.Stop()
	s.cancel()
	s.uploads.Wait()
}
