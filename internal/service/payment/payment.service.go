package payment

import (
	"errors"
	"fmt"
	types "mobile-banking-core/internal/common/type"
	"mobile-banking-core/internal/pkg/backend"
	"mobile-banking-core/internal/pkg/helper"
	"mobile-banking-core/internal/pkg/logger"
	"net/http"

	"github.com/samber/lo"
)

var errFlowNotFound = errors.New("payment flow not found")

func notFound() *types.Response {
	return helper.ParseResponse(&types.Response{
		Code:    http.StatusNotFound,
		Message: "Payment flow not found",
		Error:   errFlowNotFound,
	})
}

func (s *Service) flow(id string) (*Flow, *types.Response) {
	s.mu.RLock()
	f, found := s.flows[id]
	s.mu.RUnlock()
	if !found {
		return nil, notFound()
	}
	return f, nil
}

func (s *Service) money(req AmountRequest) (types.Money, error) {
	return types.ParseMoney(req.Value, lo.CoalesceOrEmpty(req.Currency, s.defaultCurrency))
}

func (s *Service) CreateFlow() *types.Response {
	f := NewFlow(s.ctx, FlowDeps{
		Backend:   s.backend,
		Schedule:  s.schedule,
		Journal:   s.journal,
		Snapshots: s.snapshots,
		Publisher: s.publisher,
	})

	s.mu.Lock()
	s.flows[f.ID] = f
	s.mu.Unlock()

	return helper.ParseResponse(&types.Response{
		Code: http.StatusCreated,
		Data: FlowView{ID: f.ID, State: f.State()},
	})
}

// GetFlow reads a live flow, or the last snapshot of one already torn down.
func (s *Service) GetFlow(id string) *types.Response {
	if f, errRes := s.flow(id); errRes == nil {
		return helper.ParseResponse(&types.Response{Data: FlowView{ID: id, State: f.State()}})
	}
	if s.snapshots == nil {
		return notFound()
	}

	state, err := s.snapshots.Load(id)
	if err != nil {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusInternalServerError,
			Message: "Failed to load payment flow",
			Error:   err,
		})
	}
	if state == nil {
		return notFound()
	}
	return helper.ParseResponse(&types.Response{Data: FlowView{ID: id, State: *state}})
}

func (s *Service) started(f *Flow, ok bool) *types.Response {
	if !ok {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusConflict,
			Message: "A payment is already in progress",
			Data:    FlowView{ID: f.ID, State: f.State()},
			Error:   fmt.Errorf("flow %s is busy", f.ID),
		})
	}
	return helper.ParseResponse(&types.Response{
		Code: http.StatusAccepted,
		Data: FlowView{ID: f.ID, State: f.State()},
	})
}

func invalidAmount(err error) *types.Response {
	return helper.ParseResponse(&types.Response{
		Code:    http.StatusBadRequest,
		Message: "Invalid amount",
		Error:   err,
	})
}

func (s *Service) StartQr(id string, req *QrPaymentRequest, a Attempt) *types.Response {
	f, errRes := s.flow(id)
	if errRes != nil {
		return errRes
	}
	amount, err := s.money(req.Amount)
	if err != nil {
		return invalidAmount(err)
	}
	return s.started(f, f.StartQr(backend.QrPaymentRequest{
		Amount:     amount,
		QrPayload:  req.QrPayload,
		MerchantID: req.MerchantID,
	}, a))
}

func (s *Service) StartReload(id string, req *ReloadPaymentRequest, a Attempt) *types.Response {
	f, errRes := s.flow(id)
	if errRes != nil {
		return errRes
	}
	amount, err := s.money(req.Amount)
	if err != nil {
		return invalidAmount(err)
	}
	return s.started(f, f.StartReload(backend.ReloadPaymentRequest{
		Amount:   amount,
		Msisdn:   req.Msisdn,
		Operator: req.Operator,
	}, a))
}

func (s *Service) StartBill(id string, req *BillPaymentRequest, a Attempt) *types.Response {
	f, errRes := s.flow(id)
	if errRes != nil {
		return errRes
	}
	amount, err := s.money(req.Amount)
	if err != nil {
		return invalidAmount(err)
	}
	return s.started(f, f.StartBill(backend.BillPaymentRequest{
		Amount:        amount,
		BillerCode:    req.BillerCode,
		AccountNumber: req.AccountNumber,
	}, a))
}

func (s *Service) Retry(id string) *types.Response {
	f, errRes := s.flow(id)
	if errRes != nil {
		return errRes
	}
	return s.started(f, f.Retry())
}

func (s *Service) ConsumeAction(id string) *types.Response {
	f, errRes := s.flow(id)
	if errRes != nil {
		return errRes
	}
	url, ok := f.ConsumeAction()
	if !ok {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusNotFound,
			Message: "No pending action",
			Error:   fmt.Errorf("flow %s has no action url", id),
		})
	}
	return helper.ParseResponse(&types.Response{Data: map[string]string{"actionUrl": url}})
}

func (s *Service) DeleteFlow(id string) *types.Response {
	s.mu.Lock()
	f, found := s.flows[id]
	delete(s.flows, id)
	s.mu.Unlock()
	if !found {
		return notFound()
	}

	f.Close()
	logger.Info.Printf("payment flow %s closed in stage %s", id, f.State().Stage)
	return helper.ParseResponse(&types.Response{Message: "Payment flow closed"})
}

func (s *Service) Close() {
	s.mu.Lock()
	flows := s.flows
	s.flows = map[string]*Flow{}
	s.mu.Unlock()

	for _, f := range flows {
		f.Close()
	}
}
