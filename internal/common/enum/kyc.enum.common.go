package enum

/*----------- KycStepEnum -----------*/

type KycStepEnum string

const (
	KYC_STEP_DOCUMENT KycStepEnum = "DOCUMENT"
	KYC_STEP_SELFIE   KycStepEnum = "SELFIE"
	KYC_STEP_ADDRESS  KycStepEnum = "ADDRESS"
	KYC_STEP_REVIEW   KycStepEnum = "REVIEW"
)

var kycSteps = []KycStepEnum{KYC_STEP_DOCUMENT, KYC_STEP_SELFIE, KYC_STEP_ADDRESS, KYC_STEP_REVIEW}

func (e KycStepEnum) ToString() string {
	return string(e)
}

func (e KycStepEnum) IsValid() bool {
	return e.Index() >= 0
}

// Index is the position of the step in the wizard, -1 when unknown.
func (e KycStepEnum) Index() int {
	for i, s := range kycSteps {
		if s == e {
			return i
		}
	}
	return -1
}

// Next returns the following step; REVIEW is terminal.
func (e KycStepEnum) Next() KycStepEnum {
	i := e.Index()
	if i < 0 || i == len(kycSteps)-1 {
		return e
	}
	return kycSteps[i+1]
}

// Previous returns the preceding step; DOCUMENT has none.
func (e KycStepEnum) Previous() KycStepEnum {
	i := e.Index()
	if i <= 0 {
		return e
	}
	return kycSteps[i-1]
}

/*----------- KycAssetEnum -----------*/

type KycAssetEnum string

const (
	KYC_ASSET_DOC_FRONT     KycAssetEnum = "DOC_FRONT"
	KYC_ASSET_DOC_BACK      KycAssetEnum = "DOC_BACK"
	KYC_ASSET_SELFIE        KycAssetEnum = "SELFIE"
	KYC_ASSET_ADDRESS_PROOF KycAssetEnum = "ADDRESS_PROOF"
)

// KycAssets lists every asset required for a submission.
var KycAssets = []KycAssetEnum{KYC_ASSET_DOC_FRONT, KYC_ASSET_DOC_BACK, KYC_ASSET_SELFIE, KYC_ASSET_ADDRESS_PROOF}

func (e KycAssetEnum) ToString() string {
	return string(e)
}

func (e KycAssetEnum) IsValid() bool {
	switch e {
	case KYC_ASSET_DOC_FRONT, KYC_ASSET_DOC_BACK, KYC_ASSET_SELFIE, KYC_ASSET_ADDRESS_PROOF:
		return true
	}
	return false
}

func (e KycAssetEnum) IsDocumentSide() bool {
	return e == KYC_ASSET_DOC_FRONT || e == KYC_ASSET_DOC_BACK
}

/*----------- KycCaseStatusEnum -----------*/

type KycCaseStatusEnum string

const (
	KYC_CASE_PENDING         KycCaseStatusEnum = "PENDING"
	KYC_CASE_IN_REVIEW       KycCaseStatusEnum = "IN_REVIEW"
	KYC_CASE_APPROVED        KycCaseStatusEnum = "APPROVED"
	KYC_CASE_REJECTED        KycCaseStatusEnum = "REJECTED"
	KYC_CASE_NEEDS_MORE_INFO KycCaseStatusEnum = "NEEDS_MORE_INFO"
)

func (e KycCaseStatusEnum) ToString() string {
	return string(e)
}

// IsTerminal reports whether the backend has reached a decision. Unknown
// statuses are treated as non-terminal.
func (e KycCaseStatusEnum) IsTerminal() bool {
	switch e {
	case KYC_CASE_APPROVED, KYC_CASE_REJECTED, KYC_CASE_NEEDS_MORE_INFO:
		return true
	}
	return false
}

/*----------- KycCheckTypeEnum -----------*/

type KycCheckTypeEnum string

const (
	KYC_CHECK_LIVENESS   KycCheckTypeEnum = "LIVENESS"
	KYC_CHECK_FACE_MATCH KycCheckTypeEnum = "FACE_MATCH"
)
