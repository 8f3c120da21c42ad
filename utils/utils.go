package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/boring-ventures/peyo-onramp/types"
)

// APIResponse writes the uniform response envelope to the gin context
func APIResponse(ctx *gin.Context, httpCode int, status string, message string, data interface{}) {
	ctx.JSON(httpCode, types.Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// GetErrorData maps validator errors to field-level error data for responses
func GetErrorData(err error) []types.ErrorData {
	var errorData []types.ErrorData
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			errorData = append(errorData, types.ErrorData{
				Field:   fieldError.Field(),
				Message: fmt.Sprintf("%s is %s", fieldError.Field(), fieldError.Tag()),
			})
		}
	} else {
		errorData = append(errorData, types.ErrorData{
			Field:   "",
			Message: err.Error(),
		})
	}
	return errorData
}

// NewIdempotencyKey returns a fresh key for a mutating provider call.
// Retries of the same logical operation inside one Retry loop must reuse
// the key; independent calls must not.
func NewIdempotencyKey() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), uuid.New().String()[:8])
}

// FormatAddressForDisplay truncates a long address to "prefix...suffix".
// Addresses too short to usefully truncate are returned unchanged.
func FormatAddressForDisplay(address string, prefixLen, suffixLen int) string {
	if prefixLen <= 0 || suffixLen <= 0 || len(address) <= prefixLen+suffixLen+3 {
		return address
	}
	return address[:prefixLen] + "..." + address[len(address)-suffixLen:]
}

var imageMagicBytes = []struct {
	prefix []byte
	mime   string
}{
	{[]byte{0xFF, 0xD8, 0xFF}, "image/jpeg"},
	{[]byte{0x89, 0x50, 0x4E, 0x47}, "image/png"},
	{[]byte("%PDF"), "application/pdf"},
	{[]byte("GIF8"), "image/gif"},
}

// DetectImageMIME sniffs the MIME type of a document image from its magic
// bytes. Unknown payloads default to image/jpeg, which is what the mobile
// capture pipeline produces.
func DetectImageMIME(data []byte) string {
	for _, m := range imageMagicBytes {
		if bytes.HasPrefix(data, m.prefix) {
			return m.mime
		}
	}
	return "image/jpeg"
}

// ToImageDataURI encodes a document image in the provider's embedded
// image-data format
func ToImageDataURI(data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", DetectImageMIME(data), base64.StdEncoding.EncodeToString(data))
}
