package kyc

import (
	"maps"
	"mobile-banking-core/internal/common/enum"
	"mobile-banking-core/internal/pkg/backend"
	"mobile-banking-core/internal/pkg/imagequality"
)

// Gate thresholds.
const (
	MinBlurScore      = 0.10
	MinGlareScore     = 0.60
	MinCornerCoverage = 3
	MinLivenessScore  = 0.60
	MinFaceMatchScore = 0.60
)

// UiState is everything the KYC wizard screen renders. It is a value type;
// every transition below returns a new state.
type UiState struct {
	Step            enum.KycStepEnum             `json:"step"`
	Captures        map[enum.KycAssetEnum]string `json:"captures"`
	DocQuality      imagequality.DocQuality      `json:"docQuality"`
	LivenessScore   *float64                     `json:"livenessScore,omitempty"`
	FaceMatchScore  *float64                     `json:"faceMatchScore,omitempty"`
	ConsentAccepted bool                         `json:"consentAccepted"`
	UploadIDs       map[enum.KycAssetEnum]string `json:"uploadIds"`
}

func NewUiState() UiState {
	return UiState{
		Step:      enum.KYC_STEP_DOCUMENT,
		Captures:  map[enum.KycAssetEnum]string{},
		UploadIDs: map[enum.KycAssetEnum]string{},
	}
}

func (s UiState) clone() UiState {
	s.Captures = maps.Clone(s.Captures)
	s.UploadIDs = maps.Clone(s.UploadIDs)
	if s.Captures == nil {
		s.Captures = map[enum.KycAssetEnum]string{}
	}
	if s.UploadIDs == nil {
		s.UploadIDs = map[enum.KycAssetEnum]string{}
	}
	return s
}

func (s UiState) captured(a enum.KycAssetEnum) bool {
	return s.Captures[a] != ""
}

func CanContinueFromDocument(s UiState) bool {
	q := s.DocQuality
	if !s.captured(enum.KYC_ASSET_DOC_FRONT) || !s.captured(enum.KYC_ASSET_DOC_BACK) || !q.Computed() {
		return false
	}
	return *q.BlurScore >= MinBlurScore &&
		*q.GlareScore >= MinGlareScore &&
		*q.CornerCoverage >= MinCornerCoverage
}

func CanContinueFromSelfie(s UiState) bool {
	return s.captured(enum.KYC_ASSET_SELFIE) &&
		s.LivenessScore != nil && *s.LivenessScore >= MinLivenessScore &&
		s.FaceMatchScore != nil && *s.FaceMatchScore >= MinFaceMatchScore
}

func CanContinueFromAddress(s UiState) bool {
	return s.captured(enum.KYC_ASSET_ADDRESS_PROOF)
}

// CanSubmit requires consent and a server id for every asset.
func CanSubmit(s UiState) bool {
	if !s.ConsentAccepted {
		return false
	}
	for _, a := range enum.KycAssets {
		if s.UploadIDs[a] == "" {
			return false
		}
	}
	return true
}

// CanContinue evaluates the predicate belonging to the current step.
func CanContinue(s UiState) bool {
	switch s.Step {
	case enum.KYC_STEP_DOCUMENT:
		return CanContinueFromDocument(s)
	case enum.KYC_STEP_SELFIE:
		return CanContinueFromSelfie(s)
	case enum.KYC_STEP_ADDRESS:
		return CanContinueFromAddress(s)
	case enum.KYC_STEP_REVIEW:
		return CanSubmit(s)
	}
	return false
}

// Next moves to the following step without consulting any gate.
func Next(s UiState) UiState {
	s = s.clone()
	s.Step = s.Step.Next()
	return s
}

// Back moves to the previous step without consulting any gate.
func Back(s UiState) UiState {
	s = s.clone()
	s.Step = s.Step.Previous()
	return s
}

// Advance moves forward only when the current step's gate holds. The second
// return value reports whether the step changed.
func Advance(s UiState) (UiState, bool) {
	if s.Step == enum.KYC_STEP_REVIEW || !CanContinue(s) {
		return s, false
	}
	return Next(s), true
}

// Capture records a new image for the asset. Any upload id for the previous
// image is dropped; document sides replace the quality scores.
func Capture(s UiState, asset enum.KycAssetEnum, ref string, q imagequality.DocQuality) UiState {
	s = s.clone()
	s.Captures[asset] = ref
	delete(s.UploadIDs, asset)
	if asset.IsDocumentSide() {
		s.DocQuality = q
	}
	if asset == enum.KYC_ASSET_SELFIE {
		s.LivenessScore = nil
		s.FaceMatchScore = nil
	}
	return s
}

// Retake clears an asset so it can be captured again.
func Retake(s UiState, asset enum.KycAssetEnum) UiState {
	return Capture(s, asset, "", imagequality.DocQuality{})
}

// RecordUpload stores the server id for an asset, unless the capture was
// replaced while the upload was in flight.
func RecordUpload(s UiState, asset enum.KycAssetEnum, ref, id string) (UiState, bool) {
	if ref == "" || s.Captures[asset] != ref {
		return s, false
	}
	s = s.clone()
	s.UploadIDs[asset] = id
	return s, true
}

func SetConsent(s UiState, accepted bool) UiState {
	s = s.clone()
	s.ConsentAccepted = accepted
	return s
}

// SetSelfieScores records scores computed on the device for the current
// selfie. Scores outside [0, 1] or a missing selfie leave the state unchanged.
func SetSelfieScores(s UiState, liveness, faceMatch float64) (UiState, bool) {
	if !s.captured(enum.KYC_ASSET_SELFIE) || !unitScore(liveness) || !unitScore(faceMatch) {
		return s, false
	}
	s = s.clone()
	s.LivenessScore = &liveness
	s.FaceMatchScore = &faceMatch
	return s, true
}

func unitScore(v float64) bool { return v >= 0 && v <= 1 }

// ApplyChecks copies liveness and face match scores reported by the backend.
func ApplyChecks(s UiState, checks []backend.Check) UiState {
	s = s.clone()
	for _, c := range checks {
		if c.Score == nil {
			continue
		}
		score := *c.Score
		switch c.Type {
		case enum.KYC_CHECK_LIVENESS:
			s.LivenessScore = &score
		case enum.KYC_CHECK_FACE_MATCH:
			s.FaceMatchScore = &score
		}
	}
	return s
}

// Gates is the evaluation of every predicate, rendered next to the state.
type Gates struct {
	Document bool `json:"document"`
	Selfie   bool `json:"selfie"`
	Address  bool `json:"address"`
	Submit   bool `json:"submit"`
	Continue bool `json:"continue"`
}

func EvaluateGates(s UiState) Gates {
	return Gates{
		Document: CanContinueFromDocument(s),
		Selfie:   CanContinueFromSelfie(s),
		Address:  CanContinueFromAddress(s),
		Submit:   CanSubmit(s),
		Continue: CanContinue(s),
	}
}
