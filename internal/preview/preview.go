// Package preview renders a card-shaped record as the fixed-size identity
// card shown on the dashboard and next to the create form.
package preview

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/card/entity"
)

const (
	DefaultOrganization = "GEMINI CORP"
	DefaultName         = "Your Name"
	DefaultRole         = "Employee"
	DefaultIDNumber     = "ID-XXXXXXXX"
	// PreviewIDNumber labels a card that has not been saved yet.
	PreviewIDNumber = "ID-PREVIEW-001"

	DateLayout = "Jan 02, 2006"
)

//go:embed templates/card.html
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/card.html"))

// Card is everything the renderer reads. Image references may be persisted
// URLs or data: URIs of files that were never stored.
type Card struct {
	FullName         string
	Role             string
	OrganizationName string
	IDNumber         string
	DOB              string // YYYY-MM-DD
	PhoneNumber      string
	PhotoURL         string
	SignatureURL     string
}

// FromCard maps a stored card.
func FromCard(c *entity.Card) Card {
	return Card{
		FullName:         c.FullName,
		OrganizationName: c.OrganizationName,
		IDNumber:         c.IDNumber,
		DOB:              c.DOB,
		PhoneNumber:      c.PhoneNumber,
		PhotoURL:         c.PhotoURL,
		SignatureURL:     c.SignatureURL,
	}
}

// FromFields maps an unsaved form; images are passed as data URIs or "".
func FromFields(f entity.Fields, photo, signature string) Card {
	return Card{
		FullName:         f.FullName,
		OrganizationName: f.OrganizationName,
		IDNumber:         PreviewIDNumber,
		DOB:              f.DOB,
		PhoneNumber:      f.PhoneNumber,
		PhotoURL:         photo,
		SignatureURL:     signature,
	}
}

type view struct {
	Organization string
	Name         string
	Role         string
	IDNumber     string
	DOB          string
	Phone        string
	PhotoURL     template.URL
	SignatureURL template.URL
	Issued       string
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// imageURL admits http(s), root-relative and data:image URIs only.
func imageURL(u string) template.URL {
	u = strings.TrimSpace(u)
	switch {
	case strings.HasPrefix(u, "https://"), strings.HasPrefix(u, "http://"),
		strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//"),
		strings.HasPrefix(u, "data:image/"):
		return template.URL(u)
	}
	return ""
}

func formatDOB(dob string) string {
	dob = strings.TrimSpace(dob)
	if dob == "" {
		return ""
	}
	if t, err := time.Parse(time.DateOnly, dob); err == nil {
		return t.Format(DateLayout)
	}
	return dob
}

func newView(c Card, issued time.Time) view {
	return view{
		Organization: orDefault(c.OrganizationName, DefaultOrganization),
		Name:         orDefault(c.FullName, DefaultName),
		Role:         orDefault(c.Role, DefaultRole),
		IDNumber:     orDefault(c.IDNumber, DefaultIDNumber),
		DOB:          formatDOB(c.DOB),
		Phone:        strings.TrimSpace(c.PhoneNumber),
		PhotoURL:     imageURL(c.PhotoURL),
		SignatureURL: imageURL(c.SignatureURL),
		Issued:       issued.Format(DateLayout),
	}
}

// Render writes the card. The issue date is always issued, never the
// card's creation time.
func Render(w io.Writer, c Card, issued time.Time) error {
	return tmpl.ExecuteTemplate(w, "card", newView(c, issued))
}

// HTML renders the card for embedding in a page template.
func HTML(c Card, issued time.Time) (template.HTML, error) {
	var buf bytes.Buffer
	if err := Render(&buf, c, issued); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
