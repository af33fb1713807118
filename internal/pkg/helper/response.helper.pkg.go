package helper

import (
	types "mobile-banking-core/internal/common/type"
	"mobile-banking-core/internal/pkg/logger"
	"net/http"
)

// ParseResponse fills the message from the status code when empty and logs
// server-side failures.
func ParseResponse(r *types.Response) *types.Response {
	if r.Code == 0 {
		r.Code = http.StatusOK
	}
	if r.Message == "" {
		r.Message = http.StatusText(r.Code)
	}
	if r.Code >= http.StatusInternalServerError && r.Error != nil {
		logger.Error.Printf("%d %s: %v", r.Code, r.Message, r.Error)
	}
	return r
}

// ToResponseAPI converts the envelope to the JSON body sent to the shell.
func ToResponseAPI(r *types.Response) types.ResponseAPI {
	body := types.ResponseAPI{
		Status:  r.Code,
		Message: r.Message,
		Data:    r.Data,
	}
	if r.Error != nil {
		body.Error = r.Error.Error()
	}
	return body
}
