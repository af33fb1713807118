package backend

import (
	"context"
	"fmt"
	"mobile-banking-core/internal/common/enum"
	"mobile-banking-core/internal/pkg/helper"
	"net/url"
)

type UploadResult struct {
	ID string `json:"id"`
}

type SubmitRequest struct {
	DocFrontID string `json:"docFrontId"`
	DocBackID  string `json:"docBackId"`
	SelfieID   string `json:"selfieId"`
	AddressID  string `json:"addressId"`
	Consent    bool   `json:"consent"`
}

// CaseStatus is the server-owned view of a KYC case.
type CaseStatus struct {
	CaseID         string                 `json:"caseId"`
	Status         enum.KycCaseStatusEnum `json:"status"`
	DecisionReason *string                `json:"decisionReason,omitempty"`
}

type Check struct {
	Type   enum.KycCheckTypeEnum `json:"type"`
	Score  *float64              `json:"score,omitempty"`
	Passed *bool                 `json:"passed,omitempty"`
}

// UploadAsset sends one captured image as multipart form data.
func (c *Client) UploadAsset(ctx context.Context, asset enum.KycAssetEnum, fileName, contentType string, content []byte) (*UploadResult, error) {
	var out UploadResult
	err := c.do(ctx, call{
		method: helper.POST,
		path:   "/kyc/upload",
		body: &helper.MultipartBody{
			Fields: map[string]string{"type": asset.ToString()},
			Files: []helper.MultipartFile{{
				Field:       "file",
				FileName:    fileName,
				ContentType: contentType,
				Content:     content,
			}},
		},
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", asset, err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("upload %s: empty asset id", asset)
	}
	return &out, nil
}

func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*CaseStatus, error) {
	var out CaseStatus
	if err := c.do(ctx, call{method: helper.POST, path: "/kyc/submit", body: req}, &out); err != nil {
		return nil, fmt.Errorf("submit kyc: %w", err)
	}
	return &out, nil
}

// MyCase returns the caller's current case, or nil when none exists.
func (c *Client) MyCase(ctx context.Context) (*CaseStatus, error) {
	var out CaseStatus
	if err := c.do(ctx, call{method: helper.GET, path: "/kyc/me"}, &out); err != nil {
		if errorsIsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch kyc case: %w", err)
	}
	if out.CaseID == "" {
		return nil, nil
	}
	return &out, nil
}

func (c *Client) Checks(ctx context.Context, caseID string) ([]Check, error) {
	var out []Check
	path := "/kyc/cases/" + url.PathEscape(caseID) + "/checks"
	if err := c.do(ctx, call{method: helper.GET, path: path}, &out); err != nil {
		return nil, fmt.Errorf("fetch kyc checks: %w", err)
	}
	return out, nil
}
