package card

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/card/entity"
)

func TestSizeLimitMessage(t *testing.T) {
	assert.Equal(t, "File size must be less than 2.0 MiB", SizeLimitMessage())
}

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name    string
		img     *Image
		wantErr error
		wantExt string
	}{
		{"png", NewImage("a.png", pngOf(100)), nil, ".png"},
		{"jpeg", NewImage("a.jpg", []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")), nil, ".jpg"},
		{"declared too large", &Image{Filename: "a.png", Size: 3 << 20, Data: pngOf(10)}, ErrImageTooLarge, ""},
		{"empty", NewImage("a.png", nil), ErrValidation, ""},
		{"text", NewImage("a.txt", []byte("plain text")), ErrValidation, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct, ext, err := ValidateImage(tt.img)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, ct, "image/")
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestValidateFields_Trims(t *testing.T) {
	f := entity.Fields{FullName: " Jane ", DOB: "1990-01-01 ", PhoneNumber: " 1", Email: " a@b.co "}
	require.NoError(t, ValidateFields(&f))
	assert.Equal(t, "Jane", f.FullName)
	assert.Equal(t, "a@b.co", f.Email)
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Profile photo is required", Message(ErrPhotoRequired))
	assert.Equal(t, "File size must be less than 2.0 MiB", Message(ErrImageTooLarge))
	assert.Equal(t, "card not found", Message(ErrNotFound))
	assert.Equal(t, "file storage failed: x", Message(fmt.Errorf("%w: x", ErrStorage)))
}
