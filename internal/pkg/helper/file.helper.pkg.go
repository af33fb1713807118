package helper

import (
	"bytes"
	"fmt"
	"io"
	_type "mobile-banking-core/internal/common/type"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
)

// MaxCaptureSize caps a single uploaded capture.
const MaxCaptureSize = 10 << 20

func PrepareFileUploadPayload(p _type.UploadFile) (*_type.UploadFilesRes, error) {
	if seeker, ok := p.File.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("failed to seek: %w", err)
		}
	}

	buf := bytes.NewBuffer(nil)
	if _, err := buf.ReadFrom(io.LimitReader(p.File, MaxCaptureSize+1)); err != nil {
		return nil, fmt.Errorf("failed to read from file: %w", err)
	}
	if buf.Len() > MaxCaptureSize {
		return nil, fmt.Errorf("file too large (max %d bytes)", MaxCaptureSize)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("file is empty")
	}

	ext := filepath.Ext(p.Header.Filename)
	folder := "uploads/"
	if p.Path != "" {
		folder = p.Path + "/"
	}
	fileName := folder + uuid.New().String() + ext

	contentType := p.Header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(buf.Bytes())
	}

	return &_type.UploadFilesRes{
		OriginalFiles: fileName,
		FileName:      p.Header.Filename,
		FileBytes:     buf.Bytes(),
		ContentType:   contentType,
	}, nil
}
