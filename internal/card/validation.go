package card

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/card/entity"
)

// MaxImageSize caps each uploaded image.
const MaxImageSize = 2 * 1024 * 1024

// Image is an uploaded file held in memory until it is stored.
type Image struct {
	Filename string
	Size     int64
	Data     []byte
}

func NewImage(filename string, data []byte) *Image {
	return &Image{Filename: filename, Size: int64(len(data)), Data: data}
}

// SizeLimitMessage is shown when an image exceeds MaxImageSize.
func SizeLimitMessage() string {
	return "File size must be less than " + humanize.IBytes(MaxImageSize)
}

// ErrImageTooLarge is the validation error for an image over MaxImageSize.
var ErrImageTooLarge = fmt.Errorf("%w: %s", ErrValidation, SizeLimitMessage())

// Message is the user-facing text of a gateway error.
func Message(err error) string {
	msg := err.Error()
	if errors.Is(err, ErrValidation) {
		msg = strings.TrimPrefix(msg, ErrValidation.Error()+": ")
	}
	return msg
}

// ValidateFields checks the required text fields and normalizes whitespace.
func ValidateFields(f *entity.Fields) error {
	f.FullName = strings.TrimSpace(f.FullName)
	f.DOB = strings.TrimSpace(f.DOB)
	f.PhoneNumber = strings.TrimSpace(f.PhoneNumber)
	f.Email = strings.TrimSpace(f.Email)
	f.OrganizationName = strings.TrimSpace(f.OrganizationName)

	switch {
	case f.FullName == "":
		return fmt.Errorf("%w: full name is required", ErrValidation)
	case f.DOB == "":
		return fmt.Errorf("%w: date of birth is required", ErrValidation)
	case f.PhoneNumber == "":
		return fmt.Errorf("%w: phone number is required", ErrValidation)
	}
	if _, err := time.Parse(time.DateOnly, f.DOB); err != nil {
		return fmt.Errorf("%w: date of birth must be YYYY-MM-DD", ErrValidation)
	}
	return nil
}

// ValidateImage enforces the size cap and that the content is an image. It
// returns the sniffed content type and file extension.
func ValidateImage(img *Image) (contentType, ext string, err error) {
	if img.Size > MaxImageSize || int64(len(img.Data)) > MaxImageSize {
		return "", "", ErrImageTooLarge
	}
	if len(img.Data) == 0 {
		return "", "", fmt.Errorf("%w: %s is empty", ErrValidation, img.Filename)
	}
	m := mimetype.Detect(img.Data)
	if !strings.HasPrefix(m.String(), "image/") {
		return "", "", fmt.Errorf("%w: %s is not an image", ErrValidation, img.Filename)
	}
	return m.String(), m.Extension(), nil
}
