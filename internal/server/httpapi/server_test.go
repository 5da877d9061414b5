package httpapi

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/card-market/internal/convert"
	"github.com/and161185/card-market/internal/errs"
	"github.com/and161185/card-market/internal/model"
)

func TestRoot_Welcome(t *testing.T) {
	h := newHarness(t, Options{})
	code, body := h.do(t, http.MethodGet, "/", nil, "")
	require.Equal(t, fiber.StatusOK, code)
	require.Equal(t, msgWelcome, string(body))
}

func TestUnknownRoute_JSON404(t *testing.T) {
	h := newHarness(t, Options{})
	code, body := h.do(t, http.MethodGet, "/api/nope", nil, "")
	require.Equal(t, fiber.StatusNotFound, code)
	require.Equal(t, msgRouteNotFound, message(t, body))
}

func TestRegister(t *testing.T) {
	h := newHarness(t, Options{})
	body := map[string]string{"username": "alice", "email": "a@x.io", "password": "pwd"}

	code, resp := h.do(t, http.MethodPost, "/api/auth/register", body, "")
	require.Equal(t, fiber.StatusCreated, code)
	require.Equal(t, msgUserCreated, message(t, resp))
	require.NotContains(t, string(resp), "token")

	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{errs.ErrAlreadyExists, fiber.StatusBadRequest, msgEmailTaken},
		{errs.ErrValidation, fiber.StatusBadRequest, msgFieldsRequired},
		{errors.New("db down"), fiber.StatusInternalServerError, msgServerError},
	}
	for _, tc := range cases {
		h.auth.registerErr = tc.err
		code, resp = h.do(t, http.MethodPost, "/api/auth/register", body, "")
		require.Equal(t, tc.code, code, tc.msg)
		require.Equal(t, tc.msg, message(t, resp))
	}

	h.auth.registerErr = nil
	code, resp = h.do(t, http.MethodPost, "/api/auth/register", "{not json", "")
	require.Equal(t, fiber.StatusBadRequest, code)
	require.Equal(t, msgBadRequest, message(t, resp))
}

func TestLogin(t *testing.T) {
	h := newHarness(t, Options{})
	h.auth.loginUser = model.User{ID: uuid.Must(uuid.NewV4()), Username: "alice", Email: "a@x.io", PwdHash: []byte("secret-hash")}
	body := map[string]string{"email": "a@x.io", "password": "pwd"}

	code, resp := h.do(t, http.MethodPost, "/api/auth/login", body, "")
	require.Equal(t, fiber.StatusOK, code)
	lr := decode[convert.LoginResponse](t, resp)
	require.NotEmpty(t, lr.Token)
	require.Equal(t, convert.User{Username: "alice", Email: "a@x.io"}, lr.User)
	require.NotContains(t, string(resp), "secret-hash")
	require.NotEmpty(t, h.auth.lastIP)

	// the issued token opens protected routes
	h.auth.users[h.auth.loginUser.ID] = h.auth.loginUser
	code, resp = h.do(t, http.MethodGet, "/api/profile", nil, lr.Token)
	require.Equal(t, fiber.StatusOK, code)
	require.Equal(t, h.auth.loginUser.ID.String(), decode[convert.Profile](t, resp).UserID)

	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{errs.ErrNotFound, fiber.StatusBadRequest, msgUserNotFound},
		{errs.ErrInvalidCredentials, fiber.StatusBadRequest, msgWrongPassword},
		{errs.ErrRateLimited, fiber.StatusTooManyRequests, msgTooManyAttempts},
		{errors.New("db down"), fiber.StatusInternalServerError, msgServerError},
	}
	for _, tc := range cases {
		h.auth.loginErr = tc.err
		code, resp = h.do(t, http.MethodPost, "/api/auth/login", body, "")
		require.Equal(t, tc.code, code, tc.msg)
		require.Equal(t, tc.msg, message(t, resp))
	}
}

func TestCards_PublicReads(t *testing.T) {
	h := newHarness(t, Options{})

	code, body := h.do(t, http.MethodGet, "/api/cards", nil, "")
	require.Equal(t, fiber.StatusOK, code)
	require.JSONEq(t, `[]`, string(body))

	code, body = h.do(t, http.MethodGet, "/api/cards/not-a-uuid", nil, "")
	require.Equal(t, fiber.StatusNotFound, code)
	require.Equal(t, msgCardNotFound, message(t, body))

	code, body = h.do(t, http.MethodGet, "/api/cards/"+uuid.Must(uuid.NewV4()).String(), nil, "")
	require.Equal(t, fiber.StatusNotFound, code)
	require.Equal(t, msgCardNotFound, message(t, body))
}

func TestCards_MutationsRequireToken(t *testing.T) {
	h := newHarness(t, Options{})
	id := uuid.Must(uuid.NewV4()).String()
	body := map[string]any{"name": "Mew", "category": "pokemon", "price": 10}

	for _, r := range []struct{ method, path string }{
		{http.MethodPost, "/api/cards"},
		{http.MethodPut, "/api/cards/" + id},
		{http.MethodDelete, "/api/cards/" + id},
	} {
		code, resp := h.do(t, r.method, r.path, body, "")
		require.Equal(t, fiber.StatusUnauthorized, code, r.method)
		require.Equal(t, msgAccessDenied, message(t, resp))
	}
	require.Empty(t, h.cards.cards)
}

func TestCards_CRUD(t *testing.T) {
	h := newHarness(t, Options{})
	_, raw := h.auth.addUser(t)

	// create
	code, body := h.do(t, http.MethodPost, "/api/cards", map[string]any{"name": "Mew", "category": "pokemon", "price": 10.5}, raw)
	require.Equal(t, fiber.StatusCreated, code)
	created := decode[convert.Card](t, body)
	require.NotEmpty(t, created.ID)
	require.Equal(t, "Mew", created.Name)
	require.Equal(t, 10.5, created.Price)
	require.False(t, created.CreatedAt.IsZero())
	require.Contains(t, string(body), `"_id"`)

	// numeric string price is accepted
	code, _ = h.do(t, http.MethodPost, "/api/cards", `{"name":"Pikachu","category":"pokemon","price":"3"}`, raw)
	require.Equal(t, fiber.StatusCreated, code)

	// list, newest first
	code, body = h.do(t, http.MethodGet, "/api/cards", nil, "")
	require.Equal(t, fiber.StatusOK, code)
	list := decode[[]convert.Card](t, body)
	require.Len(t, list, 2)
	require.Equal(t, "Pikachu", list[0].Name)

	// get
	code, body = h.do(t, http.MethodGet, "/api/cards/"+created.ID, nil, "")
	require.Equal(t, fiber.StatusOK, code)
	require.Equal(t, created.ID, decode[convert.Card](t, body).ID)

	// update
	code, body = h.do(t, http.MethodPut, "/api/cards/"+created.ID, map[string]any{"name": "Mew EX", "category": "pokemon", "price": 20}, raw)
	require.Equal(t, fiber.StatusOK, code)
	updated := decode[convert.Card](t, body)
	require.Equal(t, "Mew EX", updated.Name)
	require.Equal(t, 20.0, updated.Price)

	// delete
	code, body = h.do(t, http.MethodDelete, "/api/cards/"+created.ID, nil, raw)
	require.Equal(t, fiber.StatusOK, code)
	require.Equal(t, msgCardDeleted, message(t, body))

	code, _ = h.do(t, http.MethodGet, "/api/cards/"+created.ID, nil, "")
	require.Equal(t, fiber.StatusNotFound, code)
	code, _ = h.do(t, http.MethodDelete, "/api/cards/"+created.ID, nil, raw)
	require.Equal(t, fiber.StatusNotFound, code)
	code, _ = h.do(t, http.MethodPut, "/api/cards/"+created.ID, map[string]any{"name": "x", "category": "y", "price": 1}, raw)
	require.Equal(t, fiber.StatusNotFound, code)
}

func TestCards_Validation(t *testing.T) {
	h := newHarness(t, Options{})
	_, raw := h.auth.addUser(t)

	for _, body := range []string{
		`{"category":"pokemon","price":1}`,
		`{"name":"Mew","price":1}`,
		`{"name":"Mew","category":"pokemon"}`,
		`{"name":"","category":"pokemon","price":1}`,
		`{"name":"Mew","category":"pokemon","price":-1}`,
		`{"name":"Mew","category":"pokemon","price":"abc"}`,
	} {
		code, resp := h.do(t, http.MethodPost, "/api/cards", body, raw)
		require.Equal(t, fiber.StatusBadRequest, code, body)
		require.Equal(t, msgCardFields, message(t, resp), body)
	}
	require.Empty(t, h.cards.cards)

	code, resp := h.do(t, http.MethodPut, "/api/cards/bad-id", `{"name":"Mew","category":"pokemon","price":1}`, raw)
	require.Equal(t, fiber.StatusNotFound, code)
	require.Equal(t, msgCardNotFound, message(t, resp))
}

func TestCards_StoreErrors(t *testing.T) {
	h := newHarness(t, Options{})
	_, raw := h.auth.addUser(t)
	h.cards.err = errors.New("db down")
	id := uuid.Must(uuid.NewV4()).String()
	body := map[string]any{"name": "Mew", "category": "pokemon", "price": 1}

	cases := []struct {
		method, path string
		body         any
		msg          string
	}{
		{http.MethodGet, "/api/cards", nil, msgCardListFailed},
		{http.MethodGet, "/api/cards/" + id, nil, msgCardGetFailed},
		{http.MethodPost, "/api/cards", body, msgCardCreateFailed},
		{http.MethodPut, "/api/cards/" + id, body, msgCardUpdateFailed},
		{http.MethodDelete, "/api/cards/" + id, nil, msgCardDeleteFailed},
	}
	for _, tc := range cases {
		code, resp := h.do(t, tc.method, tc.path, tc.body, raw)
		require.Equal(t, fiber.StatusInternalServerError, code, tc.method+" "+tc.path)
		require.Equal(t, tc.msg, message(t, resp))
	}
}
