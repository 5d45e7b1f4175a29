// Package web serves the server-rendered pages: sign in and sign up, the
// card dashboard, the create and edit forms with live preview, and the
// delete confirmation.
package web

import (
	"context"
	"embed"
	"encoding/base64"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/card"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/card/entity"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/preview"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var pageNames = []string{"login", "signup", "dashboard", "form", "delete"}

// Cards is implemented by *card.Service.
type Cards interface {
	CreateCard(ctx context.Context, f entity.Fields, photo, signature *card.Image) (*entity.Card, error)
	GetCards(ctx context.Context) ([]*entity.Card, error)
	GetCard(ctx context.Context, id string) (*entity.Card, error)
	UpdateCard(ctx context.Context, id string, f entity.Fields, photo, signature *card.Image) (*entity.Card, error)
	DeleteCard(ctx context.Context, id string) error
}

// Handler renders pages on top of the card gateway and the session manager.
type Handler struct {
	cards    Cards
	sessions *session.Manager
	cookies  *session.CookieStore
	logger   *zap.SugaredLogger
	pages    map[string]*template.Template
	now      func() time.Time
}

func NewHandler(cards Cards, sessions *session.Manager, cookies *session.CookieStore, logger *zap.SugaredLogger) *Handler {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		pages[name] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return &Handler{
		cards:    cards,
		sessions: sessions,
		cookies:  cookies,
		logger:   logger,
		pages:    pages,
		now:      time.Now,
	}
}

// Static serves the stylesheet and the session script.
func Static() http.Handler {
	sub, _ := fs.Sub(staticFS, "static")
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

type cardView struct {
	ID      string
	Preview template.HTML
}

type pageData struct {
	Title   string
	User    string
	Flashes []string
	Error   string
	Alert   string

	Email string

	Cards []cardView

	Heading       string
	Action        string
	PreviewAction string
	Submit        string
	PhotoRequired bool
	Form          entity.Fields
	Preview       template.HTML
	CardID        string
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	if s, ok := session.FromContext(r.Context()); ok {
		data.User = s.User.Email
	}
	if h.cookies != nil {
		data.Flashes = append(data.Flashes, h.cookies.Flashes(w, r)...)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.pages[page].ExecuteTemplate(w, "layout", data); err != nil {
		h.logger.Warnw("page render failed", "page", page, "err", err)
	}
}

func (h *Handler) previewHTML(c preview.Card) template.HTML {
	out, err := preview.HTML(c, h.now())
	if err != nil {
		h.logger.Warnw("preview render failed", "err", err)
		return ""
	}
	return out
}

// dataURI inlines an unsaved image for the live preview.
func dataURI(img *card.Image) string {
	if img == nil {
		return ""
	}
	ct, _, err := card.ValidateImage(img)
	if err != nil {
		return ""
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
}

// formFailure sorts a gateway error into the inline error or the blocking
// alert shown for oversized images.
func formFailure(err error) (inline, alert string) {
	if errors.Is(err, card.ErrImageTooLarge) {
		return "", card.Message(err)
	}
	return card.Message(err), ""
}
