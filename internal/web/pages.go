package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/card"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/card/entity"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/preview"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/user"
)

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", pageData{Title: "Sign In"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	s, err := h.sessions.SignIn(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		status, msg := http.StatusInternalServerError, "Sign in failed, please try again"
		if errors.Is(err, user.ErrBadCredentials) {
			status, msg = http.StatusUnauthorized, "Invalid email or password"
		} else {
			h.logger.Warnw("sign in failed", "err", err)
		}
		h.render(w, r, status, "login", pageData{Title: "Sign In", Email: email, Error: msg})
		return
	}
	h.startSession(w, r, s)
}

func (h *Handler) SignupPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "signup", pageData{Title: "Sign Up"})
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	s, err := h.sessions.SignUp(r.Context(), email, r.PostFormValue("password"))
	if err != nil {
		status, msg := http.StatusInternalServerError, "Sign up failed, please try again"
		switch {
		case errors.Is(err, user.ErrInvalidSignup):
			status, msg = http.StatusBadRequest, strings.TrimPrefix(err.Error(), user.ErrInvalidSignup.Error()+": ")
		case errors.Is(err, user.ErrEmailTaken):
			status, msg = http.StatusConflict, "An account with this email already exists"
		default:
			h.logger.Warnw("sign up failed", "err", err)
		}
		h.render(w, r, status, "signup", pageData{Title: "Sign Up", Email: email, Error: msg})
		return
	}
	h.startSession(w, r, s)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if err := h.cookies.SetToken(w, r, s.Token); err != nil {
		h.logger.Warnw("session cookie not saved", "err", err)
		h.render(w, r, http.StatusInternalServerError, "login", pageData{Title: "Sign In", Error: "Could not start session"})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout revokes the session and clears the cookie. The cookie is cleared
// even when revocation fails so the browser is signed out either way.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if s, ok := session.FromContext(r.Context()); ok {
		if err := h.sessions.SignOut(r.Context(), s); err != nil {
			h.logger.Warnw("sign out failed", "user_id", s.User.ID, "err", err)
		}
	}
	if err := h.cookies.Clear(w, r); err != nil {
		h.logger.Warnw("session cookie not cleared", "err", err)
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := pageData{Title: "Your ID Cards"}
	cards, err := h.cards.GetCards(r.Context())
	if err != nil {
		data.Error = card.Message(err)
		h.render(w, r, http.StatusOK, "dashboard", data)
		return
	}
	for _, c := range cards {
		data.Cards = append(data.Cards, cardView{ID: c.ID, Preview: h.previewHTML(preview.FromCard(c))})
	}
	h.render(w, r, http.StatusOK, "dashboard", data)
}

func createForm() pageData {
	return pageData{
		Title:         "Create New ID Card",
		Heading:       "Create New ID Card",
		Action:        "/create",
		PreviewAction: "/create/preview",
		Submit:        "Generate ID Card",
		PhotoRequired: true,
	}
}

func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	data := createForm()
	data.Preview = h.previewHTML(preview.FromFields(entity.Fields{}, "", ""))
	h.render(w, r, http.StatusOK, "form", data)
}

// CreatePreview re-renders the create form with the submitted values and
// images in the preview. Nothing is stored.
func (h *Handler) CreatePreview(w http.ResponseWriter, r *http.Request) {
	data := createForm()
	fields, photo, signature, err := card.ParseForm(w, r)
	if err != nil {
		data.Error, data.Alert = formFailure(err)
	}
	for _, img := range []*card.Image{photo, signature} {
		if img == nil {
			continue
		}
		if _, _, err := card.ValidateImage(img); err != nil {
			data.Error, data.Alert = formFailure(err)
		}
	}
	data.Form = fields
	data.Preview = h.previewHTML(preview.FromFields(fields, dataURI(photo), dataURI(signature)))
	h.render(w, r, http.StatusOK, "form", data)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	fields, photo, signature, err := card.ParseForm(w, r)
	if err == nil {
		_, err = h.cards.CreateCard(r.Context(), fields, photo, signature)
	}
	if err != nil {
		data := createForm()
		data.Error, data.Alert = formFailure(err)
		data.Form = fields
		data.Preview = h.previewHTML(preview.FromFields(fields, dataURI(photo), dataURI(signature)))
		h.render(w, r, card.StatusFor(err), "form", data)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func editForm(c *entity.Card) pageData {
	return pageData{
		Title:   "Edit ID Card",
		Heading: "Edit ID Card",
		Action:  "/edit/" + c.ID,
		Submit:  "Save Changes",
		CardID:  c.ID,
		Form: entity.Fields{
			FullName:         c.FullName,
			DOB:              c.DOB,
			PhoneNumber:      c.PhoneNumber,
			Email:            c.Email,
			OrganizationName: c.OrganizationName,
		},
	}
}

// loadCard fetches the card named in the URL; on failure it flashes the
// reason and redirects to the dashboard.
func (h *Handler) loadCard(w http.ResponseWriter, r *http.Request) (*entity.Card, bool) {
	c, err := h.cards.GetCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if !errors.Is(err, card.ErrNotFound) {
			h.logger.Warnw("card load failed", "id", chi.URLParam(r, "id"), "err", err)
		}
		_ = h.cookies.AddFlash(w, r, card.Message(err))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil, false
	}
	return c, true
}

func (h *Handler) EditPage(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCard(w, r)
	if !ok {
		return
	}
	data := editForm(c)
	data.Preview = h.previewHTML(preview.FromCard(c))
	h.render(w, r, http.StatusOK, "form", data)
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fields, photo, signature, err := card.ParseForm(w, r)
	if err == nil {
		_, err = h.cards.UpdateCard(r.Context(), id, fields, photo, signature)
	}
	if err != nil {
		if errors.Is(err, card.ErrNotFound) {
			_ = h.cookies.AddFlash(w, r, card.Message(err))
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		stored, lerr := h.cards.GetCard(r.Context(), id)
		if lerr != nil {
			stored = &entity.Card{ID: id, IDNumber: preview.PreviewIDNumber}
		}
		data := editForm(stored)
		data.Form = fields
		data.Error, data.Alert = formFailure(err)
		data.Preview = h.previewHTML(editPreview(stored, fields, photo, signature))
		h.render(w, r, card.StatusFor(err), "form", data)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// editPreview lays the submitted fields and any new valid images over the
// stored card.
func editPreview(stored *entity.Card, f entity.Fields, photo, signature *card.Image) preview.Card {
	c := preview.FromCard(stored)
	c.FullName = f.FullName
	c.DOB = f.DOB
	c.PhoneNumber = f.PhoneNumber
	c.OrganizationName = f.OrganizationName
	if uri := dataURI(photo); uri != "" {
		c.PhotoURL = uri
	}
	if uri := dataURI(signature); uri != "" {
		c.SignatureURL = uri
	}
	return c
}

func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadCard(w, r)
	if !ok {
		return
	}
	h.render(w, r, http.StatusOK, "delete", pageData{
		Title:   "Delete ID Card",
		CardID:  c.ID,
		Preview: h.previewHTML(preview.FromCard(c)),
	})
}

// Delete removes the card only once the backend confirms; failures come
// back to the dashboard as a flash alert.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.cards.DeleteCard(r.Context(), chi.URLParam(r, "id")); err != nil {
		_ = h.cookies.AddFlash(w, r, "Failed to delete card: "+card.Message(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
