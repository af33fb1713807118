package s3aws

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeFromKey(t *testing.T) {
	tests := map[string]string{
		"kyc/s1/doc_front-1.JPG": "image/jpeg",
		"kyc/s1/selfie-2.png":    "image/png",
		"kyc/s1/address-3.pdf":   "application/pdf",
		"kyc/s1/unknown":         "application/octet-stream",
	}
	for key, want := range tests {
		assert.Equal(t, want, contentTypeFromKey(key), key)
	}
}

func TestPresignCacheKey(t *testing.T) {
	assert.Equal(t, "s3:captures:kyc/a.jpg", presignCacheKey("captures", "kyc/a.jpg"))
}
