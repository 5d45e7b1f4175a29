package card

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/card/entity"
)

// MaxFormSize bounds a whole multipart card form.
const MaxFormSize = 16 << 20

// FieldsFromForm reads the text fields of a parsed card form.
func FieldsFromForm(r *http.Request) entity.Fields {
	return entity.Fields{
		FullName:         r.FormValue("full_name"),
		DOB:              r.FormValue("dob"),
		PhoneNumber:      r.FormValue("phone_number"),
		Email:            r.FormValue("email"),
		OrganizationName: r.FormValue("organization_name"),
	}
}

// ImageFromForm returns the uploaded file of field, or nil when the field is
// absent or empty. At most MaxImageSize+1 bytes are read; Size reports the
// declared size so oversized files still fail validation.
func ImageFromForm(r *http.Request, field string) (*Image, error) {
	f, hdr, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrValidation, field, err)
	}
	defer f.Close()
	if hdr.Size == 0 {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(f, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrValidation, field, err)
	}
	return &Image{Filename: hdr.Filename, Size: hdr.Size, Data: data}, nil
}

// ParseForm parses a multipart card form with photo and signature files.
func ParseForm(w http.ResponseWriter, r *http.Request) (entity.Fields, *Image, *Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxFormSize)
	if err := r.ParseMultipartForm(MaxFormSize); err != nil {
		return entity.Fields{}, nil, nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	photo, err := ImageFromForm(r, "photo")
	if err != nil {
		return entity.Fields{}, nil, nil, err
	}
	signature, err := ImageFromForm(r, "signature")
	if err != nil {
		return entity.Fields{}, nil, nil, err
	}
	return FieldsFromForm(r), photo, signature, nil
}
