package kyc

import (
	"context"
	"mobile-banking-core/internal/common/enum"
	types "mobile-banking-core/internal/common/type"
	"mobile-banking-core/internal/pkg/helper"
	"mobile-banking-core/internal/pkg/validation"
	kycService "mobile-banking-core/internal/service/kyc"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	ctx        context.Context
	kycService kycService.IService
}

type IHandler interface {
	NewRoutes(e *gin.RouterGroup, auth gin.HandlerFunc)
}

func NewHandler(ctx context.Context, kycService kycService.IService) IHandler {
	return &Handler{
		ctx:        ctx,
		kycService: kycService,
	}
}

func assetParam(c *gin.Context) (enum.KycAssetEnum, *types.Response) {
	asset := enum.KycAssetEnum(strings.ToUpper(c.Param("asset")))
	if !asset.IsValid() {
		return "", helper.ParseResponse(&types.Response{
			Code:    http.StatusBadRequest,
			Message: "asset must be one of DOC_FRONT, DOC_BACK, SELFIE, ADDRESS_PROOF",
		})
	}
	return asset, nil
}

// CreateSession godoc
// @Summary      Open a KYC session
// @Description  Creates the state behind one KYC wizard screen. The status poller is not started.
// @Tags         KYC
// @Produce      json
// @Success      201  {object}  types.ResponseAPI{data=kycService.Snapshot}
// @Router       /v1/kyc/sessions [post]
func (h *Handler) CreateSession(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.kycService.CreateSession())
}

// GetSession godoc
// @Summary      Read a KYC session
// @Tags         KYC
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  types.ResponseAPI{data=kycService.Snapshot}
// @Failure      404  {object}  types.ResponseAPI
// @Router       /v1/kyc/sessions/{id} [get]
func (h *Handler) GetSession(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.kycService.GetSession(c.Param("id")))
}

// Capture godoc
// @Summary      Attach a captured image
// @Description  Scores document sides, archives the image when configured and uploads it in the background
// @Tags         KYC
// @Accept       multipart/form-data
// @Produce      json
// @Param        id     path      string  true  "Session ID"
// @Param        asset  path      string  true  "DOC_FRONT, DOC_BACK, SELFIE or ADDRESS_PROOF"
// @Param        file   formData  file    true  "Image"
// @Success      200    {object}  types.ResponseAPI{data=kycService.Snapshot}
// @Failure      400    {object}  types.ResponseAPI
// @Router       /v1/kyc/sessions/{id}/captures/{asset} [post]
func (h *Handler) Capture(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	asset, errRes := assetParam(c)
	if errRes != nil {
		send(errRes)
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		send(helper.ParseResponse(&types.Response{
			Code:    http.StatusBadRequest,
			Message: "file is required",
			Error:   err,
		}))
		return
	}
	defer file.Close()

	send(h.kycService.Capture(c.Param("id"), asset, file, header))
}

// CaptureURL godoc
// @Summary      Link to an archived capture
// @Tags         KYC
// @Produce      json
// @Param        id     path      string  true  "Session ID"
// @Param        asset  path      string  true  "Asset"
// @Success      200    {object}  types.ResponseAPI
// @Failure      404    {object}  types.ResponseAPI
// @Failure      503    {object}  types.ResponseAPI
// @Router       /v1/kyc/sessions/{id}/captures/{asset} [get]
func (h *Handler) CaptureURL(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	asset, errRes := assetParam(c)
	if errRes != nil {
		send(errRes)
		return
	}
	send(h.kycService.CaptureURL(c.Param("id"), asset))
}

// Retake godoc
// @Summary      Discard a capture
// @Tags         KYC
// @Produce      json
// @Param        id     path      string  true  "Session ID"
// @Param        asset  path      string  true  "Asset"
// @Success      200    {object}  types.ResponseAPI{data=kycService.Snapshot}
// @Router       /v1/kyc/sessions/{id}/captures/{asset} [delete]
func (h *Handler) Retake(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	asset, errRes := assetParam(c)
	if errRes != nil {
		send(errRes)
		return
	}
	send(h.kycService.Retake(c.Param("id"), asset))
}

// Next godoc
// @Summary      Advance the wizard
// @Description  Moves to the next step only when the current step is complete
// @Tags         KYC
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  types.ResponseAPI{data=kycService.Snapshot}
// @Failure      422  {object}  types.ResponseAPI
// @Router       /v1/kyc/sessions/{id}/next [post]
func (h *Handler) Next(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.kycService.Next(c.Param("id")))
}

// Back godoc
// @Summary      Go back one step
// @Tags         KYC
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  types.ResponseAPI{data=kycService.Snapshot}
// @Router       /v1/kyc/sessions/{id}/back [post]
func (h *Handler) Back(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.kycService.Back(c.Param("id")))
}

// SetConsent godoc
// @Summary      Record the consent checkbox
// @Tags         KYC
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Session ID"
// @Param        request  body      kycService.ConsentRequest      true  "Consent"
// @Success      200      {object}  types.ResponseAPI{data=kycService.Snapshot}
// @Failure      400      {object}  types.ResponseAPI
// @Router       /v1/kyc/sessions/{id}/consent [post]
func (h *Handler) SetConsent(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	var req kycService.ConsentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		send(helper.ParseResponse(&types.Response{
			Code:    http.StatusBadRequest,
			Message: validation.ParseError(err),
			Error:   err,
		}))
		return
	}
	send(h.kycService.SetConsent(c.Param("id"), &req))
}

// SetSelfieScores godoc
// @Summary      Record device-side selfie scores
// @Tags         KYC
// @Accept       json
// @Produce      json
// @Param        id       path      string                            true  "Session ID"
// @Param        request  body      kycService.SelfieScoresRequest    true  "Liveness and face match scores"
// @Success      200      {object}  types.ResponseAPI{data=kycService.Snapshot}
// @Failure      400      {object}  types.ResponseAPI
// @Failure      422      {object}  types.ResponseAPI
// @Router       /v1/kyc/sessions/{id}/selfie-scores [post]
func (h *Handler) SetSelfieScores(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	var req kycService.SelfieScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		send(helper.ParseResponse(&types.Response{
			Code:    http.StatusBadRequest,
			Message: validation.ParseError(err),
			Error:   err,
		}))
		return
	}
	send(h.kycService.SetSelfieScores(c.Param("id"), &req))
}

// Submit godoc
// @Summary      Submit the KYC case
// @Tags         KYC
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  types.ResponseAPI
// @Failure      422  {object}  types.ResponseAPI
// @Failure      502  {object}  types.ResponseAPI
// @Router       /v1/kyc/sessions/{id}/submit [post]
func (h *Handler) Submit(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.kycService.Submit(c.Param("id")))
}

// StartPolling godoc
// @Summary      Start the case status poller
// @Tags         KYC
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  types.ResponseAPI{data=kycService.Snapshot}
// @Router       /v1/kyc/sessions/{id}/poll/start [post]
func (h *Handler) StartPolling(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.kycService.StartPolling(c.Param("id")))
}

// StopPolling godoc
// @Summary      Stop the case status poller
// @Tags         KYC
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  types.ResponseAPI{data=kycService.Snapshot}
// @Router       /v1/kyc/sessions/{id}/poll/stop [post]
func (h *Handler) StopPolling(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.kycService.StopPolling(c.Param("id")))
}

// DeleteSession godoc
// @Summary      Close a KYC session
// @Description  Stops the poller and cancels pending uploads
// @Tags         KYC
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  types.ResponseAPI
// @Router       /v1/kyc/sessions/{id} [delete]
func (h *Handler) DeleteSession(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	send(h.kycService.DeleteSession(c.Param("id")))
}
