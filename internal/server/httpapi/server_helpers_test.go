package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/card-market/internal/errs"
	"github.com/and161185/card-market/internal/model"
	"github.com/and161185/card-market/internal/repository"
	"github.com/and161185/card-market/internal/service"
	"github.com/and161185/card-market/internal/token"
)

var testKey = []byte("test-secret")

/************ fake auth ************/

type fakeAuth struct {
	tokens *token.Service

	mu      sync.Mutex
	users   map[uuid.UUID]model.User
	lookups int

	lookupErr   error
	registerErr error
	loginErr    error
	loginUser   model.User
	lastIP      string
}

var _ service.AuthService = (*fakeAuth)(nil)

func newFakeAuth() *fakeAuth {
	return &fakeAuth{tokens: token.NewService(testKey, time.Hour), users: map[uuid.UUID]model.User{}}
}

func (f *fakeAuth) addUser(t *testing.T) (model.User, string) {
	t.Helper()
	u := model.User{ID: uuid.Must(uuid.NewV4()), Username: "alice", Email: "a@x.io"}
	f.mu.Lock()
	f.users[u.ID] = u
	f.mu.Unlock()
	raw, _, err := f.tokens.Issue(u.ID)
	require.NoError(t, err)
	return u, raw
}

func (f *fakeAuth) Register(context.Context, string, string, string) error { return f.registerErr }

func (f *fakeAuth) Login(_ context.Context, _, _, ip string) (model.Tokens, model.PublicUser, error) {
	f.lastIP = ip
	if f.loginErr != nil {
		return model.Tokens{}, model.PublicUser{}, f.loginErr
	}
	raw, exp, err := f.tokens.Issue(f.loginUser.ID)
	if err != nil {
		return model.Tokens{}, model.PublicUser{}, err
	}
	return model.Tokens{AccessToken: raw, ExpiresAt: exp}, f.loginUser.Public(), nil
}

func (f *fakeAuth) Authenticate(ctx context.Context, raw string) (uuid.UUID, error) {
	id, err := f.tokens.Verify(raw)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := f.ResolveUser(ctx, id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (f *fakeAuth) ResolveUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

/************ in-memory cards ************/

type memCards struct {
	mu    sync.Mutex
	cards map[uuid.UUID]model.Card
	err   error
}

var _ repository.CardRepository = (*memCards)(nil)

func newMemCards() *memCards { return &memCards{cards: map[uuid.UUID]model.Card{}} }

func (m *memCards) List(context.Context) ([]model.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]model.Card, 0, len(m.cards))
	for _, c := range m.cards {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memCards) Get(_ context.Context, id uuid.UUID) (*model.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.cards[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &c, nil
}

func (m *memCards) Create(_ context.Context, in model.CardInput) (*model.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	now := time.Now().UTC().Add(time.Duration(len(m.cards)) * time.Millisecond)
	c := model.Card{ID: uuid.Must(uuid.NewV4()), Name: in.Name, Category: in.Category, Price: in.Price, CreatedAt: now, UpdatedAt: now}
	m.cards[c.ID] = c
	return &c, nil
}

func (m *memCards) Update(_ context.Context, id uuid.UUID, in model.CardInput) (*model.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.cards[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c.Name, c.Category, c.Price, c.UpdatedAt = in.Name, in.Category, in.Price, time.Now().UTC()
	m.cards[id] = c
	return &c, nil
}

func (m *memCards) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.cards[id]; !ok {
		return errs.ErrNotFound
	}
	delete(m.cards, id)
	return nil
}

/************ harness ************/

type harness struct {
	app   *fiber.App
	auth  *fakeAuth
	cards *memCards
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{auth: newFakeAuth(), cards: newMemCards()}
	srv := New(h.auth, service.NewCardService(h.cards), zaptest.NewLogger(t), opts)
	h.app = srv.App()
	return h
}

// do sends a request and returns status and raw body. body may be nil, a string or any JSON value.
func (h *harness) do(t *testing.T, method, path string, body any, authz string) (int, []byte) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func message(t *testing.T, body []byte) string {
	t.Helper()
	var m struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(body, &m), string(body))
	return m.Message
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}
