package convert

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/and161185/card-market/internal/errs"
	"github.com/and161185/card-market/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
)

func TestToCard_WireNames(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	b, err := json.Marshal(ToCard(model.Card{ID: id, Name: "Mew", Category: "pokemon", Price: 9.5, CreatedAt: ts, UpdatedAt: ts}))
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	require.Equal(t, id.String(), m["_id"])
	require.Equal(t, "Mew", m["name"])
	require.Equal(t, "pokemon", m["category"])
	require.Equal(t, 9.5, m["price"])
	require.Equal(t, "2024-03-01T10:00:00Z", m["createdAt"])
	require.Equal(t, "2024-03-01T10:00:00Z", m["updatedAt"])
	require.Len(t, m, 6)
}

func TestToCards_EmptyEncodesAsArray(t *testing.T) {
	b, err := json.Marshal(ToCards(nil))
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(b))
}

func TestToLoginResponse_NoSecrets(t *testing.T) {
	b, err := json.Marshal(ToLoginResponse(
		model.Tokens{AccessToken: "tok", ExpiresAt: time.Now()},
		model.PublicUser{Username: "alice", Email: "a@x.io"},
	))
	require.NoError(t, err)
	require.JSONEq(t, `{"token":"tok","user":{"username":"alice","email":"a@x.io"}}`, string(b))
}

func TestCardRequest_ToInput(t *testing.T) {
	var r CardRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Mew","category":"pokemon","price":12.5}`), &r))
	in, err := r.ToInput()
	require.NoError(t, err)
	require.Equal(t, model.CardInput{Name: "Mew", Category: "pokemon", Price: 12.5}, in)

	// numeric strings are accepted, zero is a valid price
	r = CardRequest{}
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Mew","category":"pokemon","price":"0"}`), &r))
	in, err = r.ToInput()
	require.NoError(t, err)
	require.Equal(t, 0.0, in.Price)

	for _, body := range []string{
		`{"category":"pokemon","price":1}`,
		`{"name":"Mew","price":1}`,
		`{"name":"Mew","category":"pokemon"}`,
		`{"name":"Mew","category":"pokemon","price":null}`,
	} {
		r = CardRequest{}
		require.NoError(t, json.Unmarshal([]byte(body), &r), body)
		_, err = r.ToInput()
		require.ErrorIs(t, err, errs.ErrValidation, body)
	}
}

func TestPrice_RejectsGarbage(t *testing.T) {
	var r CardRequest
	require.ErrorIs(t, json.Unmarshal([]byte(`{"price":"abc"}`), &r), errs.ErrValidation)
	require.ErrorIs(t, json.Unmarshal([]byte(`{"price":""}`), &r), errs.ErrValidation)
	require.Error(t, json.Unmarshal([]byte(`{"price":true}`), &r))
}
