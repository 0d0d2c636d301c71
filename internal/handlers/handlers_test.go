package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/happythoughts/apiserver/internal/auth"
	"github.com/happythoughts/apiserver/internal/services"
	"github.com/happythoughts/apiserver/internal/store/memory"
	"github.com/happythoughts/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
)

type testAPI struct {
	router   *chi.Mux
	identity *services.IdentityService
	thoughts *services.ThoughtService
}

func newTestAPI(t *testing.T, gated ...auth.Operation) *testAPI {
	t.Helper()
	return newTestAPIWithLogger(t, zap.NewNop(), gated...)
}

func newTestAPIWithLogger(t *testing.T, logger *zap.Logger, gated ...auth.Operation) *testAPI {
	t.Helper()

	identity := services.NewIdentityService(memory.NewUserRepository(), services.WithBcryptCost(bcrypt.MinCost))
	thoughts := services.NewThoughtService(memory.NewThoughtRepository())

	policy := auth.Policy{}
	for _, op := range gated {
		policy[op] = true
	}
	gate := auth.NewGate(identity, policy)

	router := chi.NewRouter()
	router.Get("/", Root)
	router.Get("/healthz", Healthz)
	router.Route("/users", func(r chi.Router) {
		UserRouter(r, identity, logger)
	})
	router.Route("/thoughts", func(r chi.Router) {
		ThoughtRouter(r, thoughts, gate, logger)
	})

	return &testAPI{router: router, identity: identity, thoughts: thoughts}
}

func (a *testAPI) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRootAndHealthz(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRegister(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/users", `{"user":"alice","password":"pw"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "alice", body["name"])
	assert.Len(t, body["accessToken"], 256)
	assert.Len(t, body["id"], 24)
	assert.NotContains(t, body, "passwordHash")
	assert.NotContains(t, rec.Body.String(), "pw\"")
}

func TestRegisterFailures(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodPost, "/users", `{"user":"alice","password":"pw"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "missing password", body: `{"user":"bob"}`, wantErr: "Could not create user. User or password missing"},
		{name: "missing user", body: `{"password":"pw"}`, wantErr: "Could not create user. User or password missing"},
		{name: "empty body", body: ``, wantErr: "Could not create user. User or password missing"},
		{name: "duplicate", body: `{"user":"alice","password":"other"}`, wantErr: msgUserExists},
		{name: "malformed", body: `{"user":`, wantErr: msgInvalidBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/users", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantErr, decodeBody[ErrorResponse](t, rec).Error)
		})
	}
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodPost, "/users", `{"user":"alice","password":"pw"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	registered := decodeBody[types.User](t, rec)

	rec = api.do(t, http.MethodPost, "/users/alice", `{"password":"pw"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	creds := decodeBody[types.Credentials](t, rec)
	assert.Equal(t, "alice", creds.UserName)
	assert.Equal(t, registered.AccessToken, creds.AccessToken)

	wrong := api.do(t, http.MethodPost, "/users/alice", `{"password":"nope"}`, nil)
	ghost := api.do(t, http.MethodPost, "/users/ghost", `{"password":"x"}`, nil)
	assert.Equal(t, http.StatusOK, wrong.Code)
	assert.Equal(t, http.StatusOK, ghost.Code)
	assert.JSONEq(t, `{"notFound":true}`, wrong.Body.String())
	assert.Equal(t, wrong.Body.String(), ghost.Body.String())

	rec = api.do(t, http.MethodPost, "/users/alice", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password missing in the body of request", decodeBody[ErrorResponse](t, rec).Error)
}

func TestLoginEscapedName(t *testing.T) {
	api := newTestAPI(t)

	for _, tc := range []struct{ name, path string }{
		{name: "a/b", path: "/users/a%2Fb"},
		{name: "100%", path: "/users/100%25"},
		{name: "two words", path: "/users/two%20words"},
		{name: "50%/off", path: "/users/50%25%2Foff"},
	} {
		body := fmt.Sprintf(`{"user":%q,"password":"pw"}`, tc.name)
		rec := api.do(t, http.MethodPost, "/users", body, nil)
		require.Equal(t, http.StatusCreated, rec.Code, tc.name)

		rec = api.do(t, http.MethodPost, tc.path, `{"password":"pw"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code, tc.name)
		creds := decodeBody[types.Credentials](t, rec)
		assert.Equal(t, tc.name, creds.UserName)
		assert.NotEmpty(t, creds.AccessToken, tc.name)
	}
}

func TestUserNameParamRejectsBadEscape(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/users/x", nil)
	req.URL.RawPath = "/users/%zz"
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("userName", "%zz")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	_, err := userNameParam(req)
	assert.Error(t, err)
}

func TestThoughtWritesLogActor(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	api := newTestAPIWithLogger(t, zap.New(core), auth.OperationCreate, auth.OperationDelete)
	user, err := api.identity.Register(t.Context(), "alice", "pw")
	require.NoError(t, err)
	token := map[string]string{"Authorization": user.AccessToken}

	rec := api.do(t, http.MethodPost, "/thoughts", `{"message":"logged thought"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	thought := decodeBody[types.Thought](t, rec)

	rec = api.do(t, http.MethodPost, "/thoughts/"+thought.ID+"/like", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodDelete, "/thoughts/"+thought.ID, "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	tests := []struct {
		message string
		want    string
	}{
		{message: "thought posted", want: user.ID},
		{message: "thought liked", want: "anonymous"},
		{message: "thought removed", want: user.ID},
	}
	for _, tt := range tests {
		entries := logs.FilterMessage(tt.message).All()
		require.Len(t, entries, 1, tt.message)
		fields := entries[0].ContextMap()
		assert.Equal(t, tt.want, fields["user_id"], tt.message)
		assert.Equal(t, thought.ID, fields["thought_id"], tt.message)
	}
}

func TestCreateThought(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/thoughts", `{"message":"hello"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "hello", body["message"])
	assert.EqualValues(t, 0, body["hearts"])
	assert.Regexp(t, `^[0-9a-f]{24}$`, body["id"])
	assert.Contains(t, body, "createdAt")
}

func TestCreateThoughtValidation(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		body    string
		wantErr string
	}{
		{body: `{}`, wantErr: "Could not save thought. Message missing"},
		{body: `{"message":""}`, wantErr: "Could not save thought. Message missing"},
		{body: `{"message":"hi"}`, wantErr: "Text is shorter than minimum allowed length of 5"},
		{body: `{"message":42}`, wantErr: msgInvalidBody},
	}
	for _, tt := range tests {
		rec := api.do(t, http.MethodPost, "/thoughts", tt.body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.body)
		assert.Equal(t, tt.wantErr, decodeBody[ErrorResponse](t, rec).Error, tt.body)
	}

	rec := api.do(t, http.MethodGet, "/thoughts", "", nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListThoughts(t *testing.T) {
	api := newTestAPI(t)
	for i := 0; i < 25; i++ {
		rec := api.do(t, http.MethodPost, "/thoughts", fmt.Sprintf(`{"message":"thought %02d"}`, i), nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := api.do(t, http.MethodGet, "/thoughts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	thoughts := decodeBody[[]types.Thought](t, rec)
	require.Len(t, thoughts, services.RecentLimit)
	assert.Equal(t, "thought 24", thoughts[0].Message)
	for i := 1; i < len(thoughts); i++ {
		assert.False(t, thoughts[i].CreatedAt.After(thoughts[i-1].CreatedAt))
	}

	rec = api.do(t, http.MethodGet, "/thoughts?limit=3", "", nil)
	assert.Len(t, decodeBody[[]types.Thought](t, rec), 3)

	rec = api.do(t, http.MethodGet, "/thoughts?limit=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetLikeDeleteThought(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(t, http.MethodPost, "/thoughts", `{"message":"hello world"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	thought := decodeBody[types.Thought](t, rec)
	path := "/thoughts/" + thought.ID

	rec = api.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, thought.ID, decodeBody[types.Thought](t, rec).ID)

	rec = api.do(t, http.MethodPost, path+"/like", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, decodeBody[types.Thought](t, rec).Hearts)

	rec = api.do(t, http.MethodDelete, path, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"acknowledged":true,"deletedCount":1}`, rec.Body.String())

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, path},
		{http.MethodDelete, path},
		{http.MethodPost, path + "/like"},
	} {
		rec = api.do(t, req.method, req.path, "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, req.method+" "+req.path)
		assert.Equal(t, msgThoughtNotFound, decodeBody[ErrorResponse](t, rec).Error)
	}
}

func TestGatedOperations(t *testing.T) {
	api := newTestAPI(t, auth.OperationCreate, auth.OperationDelete, auth.OperationLike)
	user, err := api.identity.Register(t.Context(), "alice", "pw")
	require.NoError(t, err)
	existing, err := api.thoughts.Create(t.Context(), "already here")
	require.NoError(t, err)

	gated := []struct{ method, path, body string }{
		{http.MethodPost, "/thoughts", `{"message":"hello"}`},
		{http.MethodPost, "/thoughts/" + existing.ID + "/like", ""},
		{http.MethodDelete, "/thoughts/" + existing.ID, ""},
	}

	for _, tc := range gated {
		for _, token := range []string{"", "garbled"} {
			rec := api.do(t, tc.method, tc.path, tc.body, map[string]string{"Authorization": token})
			assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.method+" "+tc.path)
			assert.Equal(t, msgLoggedOut, decodeBody[ErrorResponse](t, rec).Error)
		}
	}

	// Reads stay open.
	rec := api.do(t, http.MethodGet, "/thoughts/"+existing.ID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	raw := map[string]string{"Authorization": user.AccessToken}
	bearer := map[string]string{"Authorization": "Bearer " + user.AccessToken}

	rec = api.do(t, http.MethodPost, "/thoughts", `{"message":"hello"}`, raw)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = api.do(t, http.MethodPost, "/thoughts/"+existing.ID+"/like", "", bearer)
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = api.do(t, http.MethodDelete, "/thoughts/"+existing.ID, "", raw)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAccessToken(t *testing.T) {
	tests := map[string]string{
		"":                       "",
		"abc":                    "abc",
		"  abc  ":                "abc",
		"Bearer abc":             "abc",
		"bearer   abc":           "abc",
		"Token abc":              "Token abc",
		"Bearer":                 "Bearer",
		strings.Repeat("f", 256): strings.Repeat("f", 256),
	}
	for header, want := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		assert.Equal(t, want, accessToken(req), header)
	}
}
