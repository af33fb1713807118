package enum

/*----------- PaymentKindEnum -----------*/

type PaymentKindEnum string

const (
	PAYMENT_KIND_QR     PaymentKindEnum = "qr"
	PAYMENT_KIND_RELOAD PaymentKindEnum = "reload"
	PAYMENT_KIND_BILL   PaymentKindEnum = "bill"
)

func (e PaymentKindEnum) ToString() string {
	return string(e)
}

func (e PaymentKindEnum) IsValid() bool {
	switch e {
	case PAYMENT_KIND_QR, PAYMENT_KIND_RELOAD, PAYMENT_KIND_BILL:
		return true
	}
	return false
}

/*----------- IntentStatusEnum -----------*/

type IntentStatusEnum string

const (
	INTENT_PENDING    IntentStatusEnum = "PENDING"
	INTENT_PROCESSING IntentStatusEnum = "PROCESSING"
	INTENT_SUCCESS    IntentStatusEnum = "SUCCESS"
	INTENT_FAILED     IntentStatusEnum = "FAILED"
	INTENT_CANCELED   IntentStatusEnum = "CANCELED"
)

func (e IntentStatusEnum) ToString() string {
	return string(e)
}

func (e IntentStatusEnum) IsInFlight() bool {
	return e == INTENT_PENDING || e == INTENT_PROCESSING
}

/*----------- PaymentStageEnum -----------*/

type PaymentStageEnum string

const (
	STAGE_IDLE       PaymentStageEnum = "IDLE"
	STAGE_CREATING   PaymentStageEnum = "CREATING"
	STAGE_PROCESSING PaymentStageEnum = "PROCESSING"
	STAGE_SUCCEEDED  PaymentStageEnum = "SUCCEEDED"
	STAGE_FAILED     PaymentStageEnum = "FAILED"
	STAGE_CANCELED   PaymentStageEnum = "CANCELED"
)

func (e PaymentStageEnum) ToString() string {
	return string(e)
}

// IsBusy reports whether a payment is in flight.
func (e PaymentStageEnum) IsBusy() bool {
	return e == STAGE_CREATING || e == STAGE_PROCESSING
}

func (e PaymentStageEnum) IsTerminal() bool {
	switch e {
	case STAGE_SUCCEEDED, STAGE_FAILED, STAGE_CANCELED:
		return true
	}
	return false
}
