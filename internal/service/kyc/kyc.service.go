package kyc

import (
	"errors"
	"fmt"
	"mime/multipart"
	"mobile-banking-core/internal/common/enum"
	types "mobile-banking-core/internal/common/type"
	"mobile-banking-core/internal/pkg/backend"
	"mobile-banking-core/internal/pkg/helper"
	"mobile-banking-core/internal/pkg/logger"
	"net/http"
	"time"
)

var errSessionNotFound = errors.New("kyc session not found")

func (s *Service) session(id string) (*Session, *types.Response) {
	s.mu.RLock()
	sess, found := s.sessions[id]
	s.mu.RUnlock()
	if !found {
		return nil, helper.ParseResponse(&types.Response{
			Code:    http.StatusNotFound,
			Message: "KYC session not found",
			Error:   errSessionNotFound,
		})
	}
	return sess, nil
}

func ok(data any) *types.Response {
	return helper.ParseResponse(&types.Response{Code: http.StatusOK, Data: data})
}

func (s *Service) CreateSession() *types.Response {
	sess := NewSession(s.ctx, SessionDeps{
		Backend:      s.backend,
		Archive:      s.archive,
		Pool:         s.pool,
		Publisher:    s.publisher,
		PollInterval: s.pollInterval,
	})

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	logger.Info.Printf("kyc session %s created", sess.ID)
	return helper.ParseResponse(&types.Response{
		Code: http.StatusCreated,
		Data: sess.Snapshot(),
	})
}

func (s *Service) GetSession(id string) *types.Response {
	sess, errRes := s.session(id)
	if errRes != nil {
		return errRes
	}
	return ok(sess.Snapshot())
}

func (s *Service) Capture(id string, asset enum.KycAssetEnum, file multipart.File, header *multipart.FileHeader) *types.Response {
	sess, errRes := s.session(id)
	if errRes != nil {
		return errRes
	}

	payload, err := helper.PrepareFileUploadPayload(types.UploadFile{File: file, Header: header})
	if err != nil {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusBadRequest,
			Message: "Invalid capture",
			Error:   err,
		})
	}

	snap, err := sess.Capture(s.ctx, asset, payload.FileName, payload.ContentType, payload.FileBytes)
	if err != nil {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusBadRequest,
			Message: "Invalid capture",
			Error:   err,
		})
	}
	return ok(snap)
}

// CaptureURL returns a short-lived link to an archived capture.
func (s *Service) CaptureURL(id string, asset enum.KycAssetEnum) *types.Response {
	sess, errRes := s.session(id)
	if errRes != nil {
		return errRes
	}
	if s.archive == nil {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusServiceUnavailable,
			Message: "Capture archive is disabled",
			Error:   fmt.Errorf("capture archive is disabled"),
		})
	}

	ref, captured := sess.CaptureRef(asset)
	if !captured {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusNotFound,
			Message: "Asset not captured",
			Error:   fmt.Errorf("%s not captured", asset),
		})
	}

	url, err := s.archive.GetPresignedURL(s.ctx, ref)
	if err != nil {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusBadGateway,
			Message: "Failed to sign capture URL",
			Error:   err,
		})
	}
	return ok(map[string]string{"asset": asset.ToString(), "url": url})
}

func (s *Service) Retake(id string, asset enum.KycAssetEnum) *types.Response {
	sess, errRes := s.session(id)
	if errRes != nil {
		return errRes
	}
	snap, err := sess.Retake(asset)
	if err != nil {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusBadRequest,
			Message: "Invalid asset",
			Error:   err,
		})
	}
	return ok(snap)
}

// Next advances only when the current step is complete.
func (s *Service) Next(id string) *types.Response {
	sess, errRes := s.session(id)
	if errRes != nil {
		return errRes
	}
	snap, err := sess.Advance()
	if err != nil {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusUnprocessableEntity,
			Message: "Current step is not complete",
			Data:    snap,
			Error:   err,
		})
	}
	return ok(snap)
}

func (s *Service) Back(id string) *types.Response {
	sess, errRes := s.session(id)
	if errRes != nil {
		return errRes
	}
	return ok(sess.Back())
}

func (s *Service) SetConsent(id string, req *ConsentRequest) *types.Response {
	sess, errRes := s.session(id)
	if errRes != nil {
		return errRes
	}
	return ok(sess.SetConsent(*req.Accepted))
}

func (s *Service) SetSelfieScores(id string, req *SelfieScoresRequest) *types.Response {
	sess, errRes := s.session(id)
	if errRes != nil {
		return errRes
	}
	snap, err := sess.SetSelfieScores(*req.LivenessScore, *req.FaceMatchScore)
	if err != nil {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusUnprocessableEntity,
			Message: "Selfie is not captured",
			Data:    snap,
			Error:   err,
		})
	}
	return ok(snap)
}

func (s *Service) Submit(id string) *types.Response {
	sess, errRes := s.session(id)
	if errRes != nil {
		return errRes
	}

	res, err := sess.Submit(s.ctx)
	if err != nil {
		if errors.Is(err, ErrNotReady) {
			return helper.ParseResponse(&types.Response{
				Code:    http.StatusUnprocessableEntity,
				Message: "Submission is not complete",
				Error:   err,
			})
		}
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			return helper.ParseResponse(&types.Response{
				Code:    apiErr.StatusCode,
				Message: apiErr.Message,
				Error:   err,
			})
		}
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusBadGateway,
			Message: "Failed to submit KYC",
			Error:   err,
		})
	}

	logger.Info.Printf("kyc session %s submitted case %s (%s)", id, res.CaseID, res.Status)
	return ok(res)
}

func (s *Service) StartPolling(id string) *types.Response {
	sess, errRes := s.session(id)
	if errRes != nil {
		return errRes
	}
	if !sess.StartPolling() {
		logger.Debug.Printf("kyc session %s already polling", id)
	}
	return ok(sess.Snapshot())
}

func (s *Service) StopPolling(id string) *types.Response {
	sess, errRes := s.session(id)
	if errRes != nil {
		return errRes
	}
	sess.StopPolling()
	return ok(sess.Snapshot())
}

func (s *Service) DeleteSession(id string) *types.Response {
	s.mu.Lock()
	sess, found := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !found {
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusNotFound,
			Message: "KYC session not found",
			Error:   errSessionNotFound,
		})
	}

	sess.Close()
	logger.Info.Printf("kyc session %s closed after %s", id, time.Since(sess.CreatedAt).Round(time.Second))
	return helper.ParseResponse(&types.Response{Code: http.StatusOK, Message: "KYC session closed"})
}

// Close tears down every open session.
func (s *Service) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = map[string]*Session{}
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
	}
}
