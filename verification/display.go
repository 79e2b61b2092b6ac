package verification

import (
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"

	"github.com/credhouse/credhouse/validate"
)

// DefaultDisplayLength is used by SanitizeURLForDisplay for non-positive
// lengths
const DefaultDisplayLength = 60

const ellipsis = "..."

// SanitizeURLForDisplay shortens u to the first and last maxLength/2
// characters joined by "..." if it is longer than maxLength
func SanitizeURLForDisplay(u string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultDisplayLength
	}
	runes := []rune(u)
	if len(runes) <= maxLength {
		return u
	}
	half := maxLength / 2
	return string(runes[:half]) + ellipsis + string(runes[len(runes)-half:])
}

// User facing messages returned by HandleURLError
const (
	MessageInvalidWallet = "Invalid wallet address format. Please check the address and try again."
	MessageMissingInfo   = "Missing required information to generate the verification link."
	MessageUnknown       = "Something went wrong while generating the verification link."
)

// HandleURLError maps a value returned or recovered from URL generation to a
// message for the user. Unknown errors keep their message, values that are
// not errors get a generic message.
func HandleURLError(v any) string {
	err, ok := v.(error)
	if !ok || err == nil {
		return MessageUnknown
	}
	switch {
	case errors.Is(err, validate.ErrInvalidWalletAddress):
		return MessageInvalidWallet
	case errors.Is(err, validate.ErrMissingField):
		return MessageMissingInfo
	default:
		return err.Error()
	}
}

// DefaultQRSize is the edge length in pixels of generated QR codes
const DefaultQRSize = 256

// QRCodePNG encodes content, usually a verification URL, as PNG QR code
func QRCodePNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, validate.Field("content", validate.ErrMissingField)
	}
	if size <= 0 {
		size = DefaultQRSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode qr code")
	}
	return png, nil
}
