package card

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/card/entity"
	"github.com/ovaphlow/pitchfork/service-idcard-go/internal/session"
	userentity "github.com/ovaphlow/pitchfork/service-idcard-go/internal/user/entity"
)

func testRouter(h *Handler, userID string) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if userID != "" {
				s := &session.Session{User: userentity.MinimalAuthView{ID: userID}}
				req = req.WithContext(session.WithSession(req.Context(), s))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/cards", h.List)
	r.Post("/api/cards", h.Create)
	r.Get("/api/cards/{id}", h.Get)
	r.Put("/api/cards/{id}", h.Update)
	r.Delete("/api/cards/{id}", h.Delete)
	return r
}

func multipartBody(t *testing.T, fields map[string]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for k, data := range files {
		fw, err := mw.CreateFormFile(k, k+".png")
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

var janeForm = map[string]string{"full_name": "Jane Doe", "dob": "1990-01-01", "phone_number": "+1 555 0100"}

func TestHandler_CreateGetListDelete(t *testing.T) {
	svc, _, _ := newTestService()
	router := testRouter(NewHandler(svc, zap.NewNop().Sugar()), "u1")

	body, ct := multipartBody(t, janeForm, map[string][]byte{"photo": pngOf(512)})
	req := httptest.NewRequest(http.MethodPost, "/api/cards", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created entity.Card
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.Equal(t, "Jane Doe", created.FullName)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/cards/"+created.ID, nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/cards", nil))
	var list []entity.Card
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	assert.Len(t, list, 1)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/cards/"+created.ID, nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/cards/"+created.ID, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), `"error"`)
}

func TestHandler_CreateRejections(t *testing.T) {
	tests := []struct {
		name   string
		user   string
		files  map[string][]byte
		status int
		msg    string
	}{
		{"no photo", "u1", nil, http.StatusBadRequest, "Profile photo is required"},
		{"oversized photo", "u1", map[string][]byte{"photo": pngOf(3 * 1024 * 1024)}, http.StatusBadRequest, "File size must be less than 2.0 MiB"},
		{"anonymous", "", map[string][]byte{"photo": pngOf(10)}, http.StatusUnauthorized, "not signed in"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, _ := newTestService()
			router := testRouter(NewHandler(svc, zap.NewNop().Sugar()), tt.user)
			body, ct := multipartBody(t, janeForm, tt.files)
			req := httptest.NewRequest(http.MethodPost, "/api/cards", body)
			req.Header.Set("Content-Type", ct)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.msg)
			assert.Zero(t, store.calls)
		})
	}
}

func TestHandler_UpdateKeepsPhotoWhenAbsent(t *testing.T) {
	svc, _, _ := newTestService()
	c, err := svc.CreateCard(asUser("u1"), jane, NewImage("me.png", pngOf(10)), nil)
	require.NoError(t, err)
	router := testRouter(NewHandler(svc, zap.NewNop().Sugar()), "u1")

	form := map[string]string{"full_name": "Jane Roe", "dob": "1990-01-01", "phone_number": "+1"}
	body, ct := multipartBody(t, form, nil)
	req := httptest.NewRequest(http.MethodPut, "/api/cards/"+c.ID, body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var updated entity.Card
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&updated))
	assert.Equal(t, "Jane Roe", updated.FullName)
	assert.Equal(t, c.PhotoURL, updated.PhotoURL)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrUnauthenticated, http.StatusUnauthorized},
		{ErrPhotoRequired, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: boom", ErrStorage), http.StatusBadGateway},
		{fmt.Errorf("%w: boom", ErrPersistence), http.StatusInternalServerError},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestHandler_ValidationErrorBody(t *testing.T) {
	svc, _, _ := newTestService()
	router := testRouter(NewHandler(svc, zap.NewNop().Sugar()), "u1")

	body, ct := multipartBody(t, janeForm, map[string][]byte{"photo": pngOf(3 * 1024 * 1024)})
	req := httptest.NewRequest(http.MethodPost, "/api/cards", body)
	req.Header.Set("Content-Type", ct)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, SizeLimitMessage(), resp["error"])
}
