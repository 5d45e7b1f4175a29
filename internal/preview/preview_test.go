package preview

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/card/entity"
)

var issued = time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)

func render(t *testing.T, c Card) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, Render(&sb, c, issued))
	return sb.String()
}

func TestRender_Defaults(t *testing.T) {
	out := render(t, Card{})
	for _, want := range []string{"Identity Card", DefaultOrganization, DefaultName, DefaultRole,
		DefaultIDNumber, "No Photo", "Authorized Signature", "Issue Date: Mar 07, 2025"} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "DOB:")
	assert.NotContains(t, out, "<img")
}

func TestRender_FullCard(t *testing.T) {
	c := FromCard(&entity.Card{
		FullName:         "Jane Doe",
		OrganizationName: "ACME",
		IDNumber:         "ID-12345678-42",
		DOB:              "1990-01-01",
		PhoneNumber:      "+1 555 0100",
		PhotoURL:         "https://storage.example.com/id-card-photos/u1/a.png",
		SignatureURL:     "https://storage.example.com/id-card-photos/u1/b.png",
		CreatedAt:        time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	out := render(t, c)
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "ACME")
	assert.Contains(t, out, "ID-12345678-42")
	assert.Contains(t, out, "DOB: Jan 01, 1990")
	assert.Contains(t, out, "555 0100")
	assert.Contains(t, out, `src="https://storage.example.com/id-card-photos/u1/a.png"`)
	assert.Contains(t, out, `alt="Signature"`)
	assert.NotContains(t, out, "No Photo")
	assert.NotContains(t, out, "Authorized Signature")
	// issue date is the render time, not the creation time
	assert.Contains(t, out, "Issue Date: Mar 07, 2025")
	assert.NotContains(t, out, "Jan 01, 2020")
}

func TestRender_TransientImages(t *testing.T) {
	c := FromFields(entity.Fields{FullName: "Jane"}, "data:image/png;base64,iVBORw0KGgo=", "")
	out := render(t, c)
	assert.Contains(t, out, PreviewIDNumber)
	assert.Contains(t, out, `src="data:image/png;base64,iVBORw0KGgo="`)
	assert.Contains(t, out, "Authorized Signature")
}

func TestRender_UnsafeImageURLDropped(t *testing.T) {
	out := render(t, Card{PhotoURL: "javascript:alert(1)"})
	assert.Contains(t, out, "No Photo")
	assert.NotContains(t, out, "javascript")
}

func TestRender_EscapesText(t *testing.T) {
	out := render(t, Card{FullName: "<script>x</script>"})
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestHTML(t *testing.T) {
	h, err := HTML(Card{FullName: "Jane"}, issued)
	require.NoError(t, err)
	assert.Contains(t, string(h), "Jane")
}
