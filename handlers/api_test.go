package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamkb/teamkb/internal/activity"
	"github.com/teamkb/teamkb/internal/ai"
	"github.com/teamkb/teamkb/internal/config"
	"github.com/teamkb/teamkb/internal/document/repository"
	"github.com/teamkb/teamkb/internal/document/service"
	"github.com/teamkb/teamkb/internal/revision"
	"github.com/teamkb/teamkb/internal/sessions"
	"github.com/teamkb/teamkb/internal/tokens"
	"github.com/teamkb/teamkb/internal/users"
	"github.com/teamkb/teamkb/internal/versions"
	"github.com/teamkb/teamkb/pkg/metrics"
)

func init() { gin.SetMode(gin.TestMode) }

// writerAI derives summaries and tags but cannot rank or answer, so search
// endpoints serve their fallbacks.
type writerAI struct{ ai.Unavailable }

func (writerAI) Summarize(context.Context, string) (string, error) { return "A summary.", nil }
func (writerAI) Tags(context.Context, string) ([]string, error) {
	return []string{"ops", "runbook"}, nil
}

type testAPI struct {
	t      *testing.T
	engine *gin.Engine
	redis  *mr.Miniredis
}

func newTestAPI(t *testing.T, client ai.Client) *testAPI {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	rdb := redis.NewClient(&redis.Options{Addr: m.Addr()})

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "development", CORSOrigin: "http://localhost:5173"},
		Auth:   config.AuthConfig{AdminEmails: []string{"admin@example.com"}},
	}
	userSvc := users.NewService(users.NewMemoryUserRepository(), cfg.Auth.IsAdminEmail)
	docs := repository.NewMemoryRepo()
	ledger := versions.NewLedger(versions.NewMemoryRepo(), versions.NewRedisCache(rdb, "", time.Minute), userSvc)
	act := activity.NewService(activity.NewMemoryRepo(), docs, userSvc)

	reg := prometheus.NewRegistry()
	metrics.RegisterCollectors(reg)

	engine := NewRouter(Deps{
		Config:      cfg,
		Users:       userSvc,
		Issuer:      tokens.NewIssuer("handlers-test-secret-xxxxxxxxxxxxxxxx", time.Hour),
		Blacklist:   sessions.NewBlacklist(rdb),
		Coordinator: revision.NewCoordinator(docs, ledger, act, client),
		Documents:   service.New(docs, client),
		Ledger:      ledger,
		Activity:    act,
		Redis:       rdb,
		Gatherer:    reg,
		Ready: map[string]ReadinessCheck{
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
	})
	return &testAPI{t: t, engine: engine, redis: m}
}

type reply struct {
	code    int
	body    map[string]interface{}
	cookies []*http.Cookie
}

func (a *testAPI) do(method, path, token string, body interface{}) reply {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rw := httptest.NewRecorder()
	a.engine.ServeHTTP(rw, req)

	out := reply{code: rw.Code, cookies: rw.Result().Cookies()}
	if ct := rw.Header().Get("Content-Type"); len(ct) >= 16 && ct[:16] == "application/json" {
		require.NoError(a.t, json.Unmarshal(rw.Body.Bytes(), &out.body), rw.Body.String())
	}
	return out
}

// login registers email and returns a token for it.
func (a *testAPI) login(email, name string) (token, id string) {
	a.t.Helper()
	r := a.do(http.MethodPost, "/api/user/register", "", gin.H{"email": email, "name": name, "password": "secret123"})
	require.Equal(a.t, http.StatusCreated, r.code, r.body)
	r = a.do(http.MethodPost, "/api/user/login", "", gin.H{"email": email, "password": "secret123"})
	require.Equal(a.t, http.StatusOK, r.code, r.body)
	user := r.body["user"].(map[string]interface{})
	return r.body["token"].(string), user["id"].(string)
}

func (a *testAPI) createDoc(token, title, content string) string {
	a.t.Helper()
	r := a.do(http.MethodPost, "/api/documents/create", token, gin.H{"title": title, "content": content})
	require.Equal(a.t, http.StatusCreated, r.code, r.body)
	return r.body["doc"].(map[string]interface{})["id"].(string)
}

func list(t *testing.T, body map[string]interface{}, key string) []interface{} {
	t.Helper()
	v, ok := body[key].([]interface{})
	require.True(t, ok, "%q is not a list in %v", key, body)
	return v
}

func TestRegisterAndLogin(t *testing.T) {
	a := newTestAPI(t, writerAI{})

	r := a.do(http.MethodPost, "/api/user/register", "", gin.H{"email": "Ann@Example.com", "name": "Ann", "password": "pw"})
	require.Equal(t, http.StatusCreated, r.code)
	assert.Equal(t, true, r.body["success"])
	user := r.body["user"].(map[string]interface{})
	assert.Equal(t, "ann@example.com", user["email"])
	assert.NotContains(t, user, "password")

	r = a.do(http.MethodPost, "/api/user/register", "", gin.H{"email": "ann@example.com", "name": "Ann", "password": "pw"})
	assert.Equal(t, http.StatusBadRequest, r.code, "duplicate email")
	assert.Equal(t, false, r.body["success"])

	r = a.do(http.MethodPost, "/api/user/register", "", gin.H{"email": "bob@example.com", "name": "  "})
	assert.Equal(t, http.StatusBadRequest, r.code)
	assert.Contains(t, r.body["message"], "password")

	r = a.do(http.MethodPost, "/api/user/login", "", gin.H{"email": "ann@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, r.code)

	r = a.do(http.MethodPost, "/api/user/login", "", gin.H{"email": "ann@example.com", "password": "pw"})
	require.Equal(t, http.StatusOK, r.code)
	assert.NotEmpty(t, r.body["token"])
	require.Len(t, r.cookies, 1)
	c := r.cookies[0]
	assert.Equal(t, "token", c.Name)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 3600, c.MaxAge)
}

func TestProfileAndLogout(t *testing.T) {
	a := newTestAPI(t, writerAI{})
	token, id := a.login("ann@example.com", "Ann")

	r := a.do(http.MethodGet, "/api/user/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, r.code)

	r = a.do(http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, r.code)
	assert.Equal(t, id, r.body["user"].(map[string]interface{})["id"])

	r = a.do(http.MethodPost, "/api/user/logout", token, nil)
	require.Equal(t, http.StatusOK, r.code)
	require.Len(t, r.cookies, 1)
	assert.Equal(t, "", r.cookies[0].Value)
	assert.Negative(t, r.cookies[0].MaxAge)

	r = a.do(http.MethodGet, "/api/user/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, r.code, "revoked token")
}

func TestDocumentCRUD(t *testing.T) {
	a := newTestAPI(t, writerAI{})
	token, id := a.login("ann@example.com", "Ann")

	r := a.do(http.MethodPost, "/api/documents/create", token, gin.H{"title": "Only title"})
	assert.Equal(t, http.StatusBadRequest, r.code)
	r = a.do(http.MethodPost, "/api/documents/create", token, nil)
	assert.Equal(t, http.StatusBadRequest, r.code)

	r = a.do(http.MethodPost, "/api/documents/create", token, gin.H{"title": "Failover", "content": "Promote the replica."})
	require.Equal(t, http.StatusCreated, r.code)
	doc := r.body["doc"].(map[string]interface{})
	assert.Equal(t, "A summary.", doc["summary"])
	assert.Equal(t, []interface{}{"ops", "runbook"}, doc["tags"])
	assert.Equal(t, id, doc["createdBy"])
	docID := doc["id"].(string)

	r = a.do(http.MethodGet, "/api/documents/all", token, nil)
	require.Equal(t, http.StatusOK, r.code)
	assert.Len(t, list(t, r.body, "docs"), 1)

	r = a.do(http.MethodGet, "/api/documents/"+docID, token, nil)
	assert.Equal(t, http.StatusOK, r.code)
	r = a.do(http.MethodGet, "/api/documents/nope", token, nil)
	assert.Equal(t, http.StatusNotFound, r.code)

	r = a.do(http.MethodGet, "/api/documents/search?query=REPLICA", token, nil)
	require.Equal(t, http.StatusOK, r.code)
	assert.Len(t, list(t, r.body, "docs"), 1)
	r = a.do(http.MethodGet, "/api/documents/search?query=%20", token, nil)
	assert.Equal(t, http.StatusBadRequest, r.code)

	r = a.do(http.MethodPut, "/api/documents/update/"+docID, token, gin.H{"title": ""})
	assert.Equal(t, http.StatusBadRequest, r.code)
	r = a.do(http.MethodPut, "/api/documents/update/nope", token, gin.H{"title": "x"})
	assert.Equal(t, http.StatusNotFound, r.code)
}

func TestCreate_AIFailureIsServerError(t *testing.T) {
	a := newTestAPI(t, ai.Unavailable{})
	token, _ := a.login("ann@example.com", "Ann")

	r := a.do(http.MethodPost, "/api/documents/create", token, gin.H{"title": "T", "content": "C"})
	assert.Equal(t, http.StatusInternalServerError, r.code)
	assert.Equal(t, false, r.body["success"])
	assert.NotContains(t, r.body["message"], "not configured")

	r = a.do(http.MethodGet, "/api/documents/all", token, nil)
	assert.Empty(t, list(t, r.body, "docs"))
}

// Two edits then a restore of the first version, checked through every read
// endpoint that observes it.
func TestVersionHistoryAndRestore(t *testing.T) {
	a := newTestAPI(t, writerAI{})
	ann, annID := a.login("ann@example.com", "Ann")
	bob, _ := a.login("bob@example.com", "Bob")

	docID := a.createDoc(ann, "Spec", "Content v1")
	r := a.do(http.MethodPut, "/api/documents/update/"+docID, ann, gin.H{"content": "Content v2"})
	require.Equal(t, http.StatusOK, r.code)
	r = a.do(http.MethodPut, "/api/documents/update/"+docID, bob, gin.H{"content": "Content v3"})
	require.Equal(t, http.StatusOK, r.code)
	assert.Equal(t, "Spec", r.body["doc"].(map[string]interface{})["title"])

	r = a.do(http.MethodGet, "/api/versions/history/"+docID, ann, nil)
	require.Equal(t, http.StatusOK, r.code)
	hist := list(t, r.body, "versions")
	require.Len(t, hist, 2)
	newest := hist[0].(map[string]interface{})
	oldest := hist[1].(map[string]interface{})
	assert.EqualValues(t, 2, newest["versionNumber"])
	assert.Equal(t, "Content v2", newest["content"])
	assert.Equal(t, "Bob", newest["editedBy"].(map[string]interface{})["name"])
	assert.EqualValues(t, 1, oldest["versionNumber"])
	assert.Equal(t, "Content v1", oldest["content"])

	r = a.do(http.MethodGet, "/api/versions/"+oldest["id"].(string), ann, nil)
	require.Equal(t, http.StatusOK, r.code)
	assert.Equal(t, annID, r.body["version"].(map[string]interface{})["editedBy"].(map[string]interface{})["id"])
	r = a.do(http.MethodGet, "/api/versions/nope", ann, nil)
	assert.Equal(t, http.StatusNotFound, r.code)

	r = a.do(http.MethodPost, "/api/versions/restore/"+oldest["id"].(string), bob, nil)
	require.Equal(t, http.StatusOK, r.code)
	assert.Equal(t, "Content v1", r.body["doc"].(map[string]interface{})["content"])
	r = a.do(http.MethodPost, "/api/versions/restore/nope", bob, nil)
	assert.Equal(t, http.StatusNotFound, r.code)

	r = a.do(http.MethodGet, "/api/documents/"+docID, ann, nil)
	assert.Equal(t, "Content v1", r.body["doc"].(map[string]interface{})["content"])
	r = a.do(http.MethodGet, "/api/versions/history/"+docID, ann, nil)
	assert.Len(t, list(t, r.body, "versions"), 2, "restore adds no version")

	r = a.do(http.MethodGet, "/api/activities/document/"+docID, ann, nil)
	require.Equal(t, http.StatusOK, r.code)
	acts := list(t, r.body, "activities")
	require.Len(t, acts, 3)
	assert.Equal(t, "update", acts[0].(map[string]interface{})["action"])
	assert.Equal(t, "create", acts[2].(map[string]interface{})["action"])

	r = a.do(http.MethodGet, "/api/activities/recent-edits", ann, nil)
	require.Equal(t, http.StatusOK, r.code)
	edits := list(t, r.body, "documents")
	require.Len(t, edits, 1)
	assert.Equal(t, "Bob", edits[0].(map[string]interface{})["lastEditedBy"].(map[string]interface{})["name"])
}

func TestDeleteAndActivityFeeds(t *testing.T) {
	a := newTestAPI(t, writerAI{})
	ann, annID := a.login("ann@example.com", "Ann")
	bob, _ := a.login("bob@example.com", "Bob")
	admin, _ := a.login("admin@example.com", "Admin")

	first := a.createDoc(ann, "One", "1")
	second := a.createDoc(ann, "Two", "2")

	r := a.do(http.MethodDelete, "/api/documents/delete/"+first, bob, nil)
	assert.Equal(t, http.StatusForbidden, r.code)
	r = a.do(http.MethodDelete, "/api/documents/delete/"+first, ann, nil)
	require.Equal(t, http.StatusOK, r.code)
	r = a.do(http.MethodDelete, "/api/documents/delete/"+first, ann, nil)
	assert.Equal(t, http.StatusNotFound, r.code)
	r = a.do(http.MethodDelete, "/api/documents/delete/"+second, admin, nil)
	assert.Equal(t, http.StatusOK, r.code)

	r = a.do(http.MethodGet, "/api/activities/document/"+first, ann, nil)
	acts := list(t, r.body, "activities")
	require.Len(t, acts, 2)
	del := acts[0].(map[string]interface{})
	assert.Equal(t, "delete", del["action"])
	assert.Nil(t, del["document"], "deleted documents resolve to null")
	assert.Equal(t, first, del["documentId"])

	r = a.do(http.MethodGet, "/api/activities/user/"+annID, ann, nil)
	assert.Len(t, list(t, r.body, "activities"), 3)

	r = a.do(http.MethodGet, "/api/activities/team-feed", ann, nil)
	require.Equal(t, http.StatusOK, r.code)
	assert.Len(t, list(t, r.body, "activities"), 4)
}

func TestSemanticSearchAndAnswerFallbacks(t *testing.T) {
	a := newTestAPI(t, writerAI{})
	token, _ := a.login("ann@example.com", "Ann")

	r := a.do(http.MethodPost, "/api/documents/answer-question", token, gin.H{"question": "Where?"})
	assert.Equal(t, http.StatusNotFound, r.code, "nothing to answer from")

	a.createDoc(token, "Failover", "Promote the replica.")
	r = a.do(http.MethodPost, "/api/documents/semantic-search", token, gin.H{"query": "replica"})
	require.Equal(t, http.StatusOK, r.code)
	assert.Equal(t, true, r.body["fallback"])
	assert.EqualValues(t, 1, r.body["totalResults"])
	hit := list(t, r.body, "results")[0].(map[string]interface{})
	assert.Equal(t, "Failover", hit["title"])
	assert.EqualValues(t, 1, hit["relevanceScore"])
	assert.Equal(t, "Promote the replica.", hit["document"].(map[string]interface{})["content"])

	r = a.do(http.MethodPost, "/api/documents/semantic-search", token, gin.H{"query": ""})
	assert.Equal(t, http.StatusBadRequest, r.code)

	r = a.do(http.MethodPost, "/api/documents/answer-question", token, gin.H{"question": "Where?"})
	require.Equal(t, http.StatusOK, r.code)
	assert.Equal(t, true, r.body["fallback"])
	assert.EqualValues(t, 1, r.body["documentsUsed"])
	assert.Contains(t, r.body["answer"], "Failover")
}

func TestOperationalRoutes(t *testing.T) {
	a := newTestAPI(t, writerAI{})

	rw := httptest.NewRecorder()
	a.engine.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rw.Code)

	r := a.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, r.code)
	assert.Equal(t, "ready", r.body["status"])

	token, _ := a.login("ann@example.com", "Ann")
	a.createDoc(token, "T", "C")
	rw = httptest.NewRecorder()
	a.engine.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rw.Code)
	assert.Contains(t, rw.Body.String(), "teamkb_activities_recorded_total")

	a.redis.Close()
	r = a.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, r.code)
	assert.Equal(t, false, r.body["deps"].(map[string]interface{})["redis"])
}

func TestWriteError_HidesInternalDetails(t *testing.T) {
	g := gin.New()
	g.GET("/", func(c *gin.Context) { writeError(c, errors.New("mongo: connection refused")) })
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rw.Code)
	assert.JSONEq(t, `{"success":false,"message":"Internal server error"}`, rw.Body.String())
}
