package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog-api/internal/repository/sqlite"
	"blog-api/internal/service"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	userRepo := sqlite.NewUserRepository(db)
	articleRepo := sqlite.NewArticleRepository(db)
	require.NoError(t, userRepo.Init(context.Background()))
	require.NoError(t, articleRepo.Init(context.Background()))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(
		service.NewArticleService(articleRepo),
		service.NewUserService(userRepo),
		logger,
		"test-secret",
		time.Hour,
	)
	handler.RegisterRoutes(router)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// signUp registers a user through the API and returns the token plus user id.
func signUp(t *testing.T, router *gin.Engine, name, email string) (string, int64) {
	t.Helper()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "secretpass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	data := decodeBody(t, rec)["data"].(map[string]any)
	token := data["token"].(string)
	id := int64(data["user"].(map[string]any)["id"].(float64))
	return token, id
}

func createArticle(t *testing.T, router *gin.Engine, token, title string) int64 {
	t.Helper()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/articles", token, gin.H{
		"title": title,
		"body":  "some body",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return int64(decodeBody(t, rec)["data"].(map[string]any)["id"].(float64))
}

func publishArticle(t *testing.T, router *gin.Engine, token string, id int64) {
	t.Helper()

	rec := doRequest(t, router, http.MethodPatch, fmt.Sprintf("/api/v1/articles/%d", id), token, gin.H{
		"status": "published",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestRegisterAndLogin(t *testing.T) {
	router := newTestRouter(t)

	token, _ := signUp(t, router, "Alice", "alice@example.com")
	require.NotEmpty(t, token)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "secretpass",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrongpass",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "alice@example.com", data["email"])
}

func TestAnonymousListSeesOnlyPublished(t *testing.T) {
	router := newTestRouter(t)
	token, _ := signUp(t, router, "Alice", "alice@example.com")

	for i := 0; i < 10; i++ {
		id := createArticle(t, router, token, fmt.Sprintf("published %d", i))
		publishArticle(t, router, token, id)
	}
	for i := 0; i < 10; i++ {
		createArticle(t, router, token, fmt.Sprintf("draft %d", i))
	}

	rec := doRequest(t, router, http.MethodGet, "/api/v1/articles", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	list := decodeBody(t, rec)["data"].([]any)
	require.Len(t, list, 10)
	for _, item := range list {
		assert.Equal(t, "published", item.(map[string]any)["status"])
	}
}

func TestOwnerListIncludesOwnDrafts(t *testing.T) {
	router := newTestRouter(t)
	aliceToken, _ := signUp(t, router, "Alice", "alice@example.com")
	bobToken, _ := signUp(t, router, "Bob", "bob@example.com")

	published := createArticle(t, router, aliceToken, "public piece")
	publishArticle(t, router, aliceToken, published)
	createArticle(t, router, aliceToken, "private draft")

	rec := doRequest(t, router, http.MethodGet, "/api/v1/articles", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["data"].([]any), 2)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/articles", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["data"].([]any), 1)
}

func TestEmptyListIsSuccess(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/articles", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["data"].([]any), 0)
}

func TestCreateRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/articles", "", gin.H{
		"title": "nope",
		"body":  "nope",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	errs := decodeBody(t, rec)["errors"].([]any)
	assert.Contains(t, errs, "You need to sign in or sign up before continuing.")
}

func TestCreateForcesDraftAndOwner(t *testing.T) {
	router := newTestRouter(t)
	token, userID := signUp(t, router, "Alice", "alice@example.com")

	// caller-supplied status and user_id are ignored
	rec := doRequest(t, router, http.MethodPost, "/api/v1/articles", token, gin.H{
		"title":   "my post",
		"body":    "the body",
		"status":  "published",
		"user_id": 9999,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "draft", data["status"])
	assert.Equal(t, float64(userID), data["user_id"])
	assert.Equal(t, "my post", data["title"])
	assert.NotZero(t, data["id"])
}

func TestCreateValidatesPayload(t *testing.T) {
	router := newTestRouter(t)
	token, _ := signUp(t, router, "Alice", "alice@example.com")

	rec := doRequest(t, router, http.MethodPost, "/api/v1/articles", token, gin.H{"body": "no title"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := decodeBody(t, rec)["errors"].([]any)
	assert.Contains(t, errs, "Title can't be blank")
}

func TestGetArticleVisibility(t *testing.T) {
	router := newTestRouter(t)
	aliceToken, _ := signUp(t, router, "Alice", "alice@example.com")
	bobToken, _ := signUp(t, router, "Bob", "bob@example.com")

	draft := createArticle(t, router, aliceToken, "secret draft")

	// owner sees own draft
	rec := doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/v1/articles/%d", draft), aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// everyone else gets the same 404 as a missing record
	rec = doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/v1/articles/%d", draft), "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/v1/articles/%d", draft), bobToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/v1/articles/1000", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// published is public, any authenticated reader included
	publishArticle(t, router, aliceToken, draft)
	rec = doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/v1/articles/%d", draft), bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/v1/articles/%d", draft), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateOnlyChangesSuppliedFields(t *testing.T) {
	router := newTestRouter(t)
	token, _ := signUp(t, router, "Alice", "alice@example.com")

	id := createArticle(t, router, token, "original title")

	rec := doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/v1/articles/%d", id), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	before := decodeBody(t, rec)["data"].(map[string]any)

	// created_at in the payload is ignored rather than rejected
	rec = doRequest(t, router, http.MethodPatch, fmt.Sprintf("/api/v1/articles/%d", id), token, gin.H{
		"title":      "updated title",
		"created_at": "1999-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	after := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "updated title", after["title"])
	assert.Equal(t, before["body"], after["body"])
	assert.Equal(t, before["created_at"], after["created_at"])
}

func TestUpdateDeniedForNonOwner(t *testing.T) {
	router := newTestRouter(t)
	aliceToken, _ := signUp(t, router, "Alice", "alice@example.com")
	bobToken, _ := signUp(t, router, "Bob", "bob@example.com")

	id := createArticle(t, router, aliceToken, "alices post")
	publishArticle(t, router, aliceToken, id)

	rec := doRequest(t, router, http.MethodPatch, fmt.Sprintf("/api/v1/articles/%d", id), bobToken, gin.H{
		"title": "bobs now",
	})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, http.MethodPatch, fmt.Sprintf("/api/v1/articles/%d", id), "", gin.H{
		"title": "anon",
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteArticle(t *testing.T) {
	router := newTestRouter(t)
	aliceToken, _ := signUp(t, router, "Alice", "alice@example.com")
	bobToken, _ := signUp(t, router, "Bob", "bob@example.com")

	id := createArticle(t, router, aliceToken, "to delete")
	publishArticle(t, router, aliceToken, id)

	rec := doRequest(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/articles/%d", id), "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/articles/%d", id), bobToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/articles/%d", id), aliceToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/v1/articles/%d", id), "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodDelete, fmt.Sprintf("/api/v1/articles/%d", id), aliceToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInvalidTokenIsAnonymousOnReads(t *testing.T) {
	router := newTestRouter(t)
	token, _ := signUp(t, router, "Alice", "alice@example.com")
	draft := createArticle(t, router, token, "draft")

	rec := doRequest(t, router, http.MethodGet, fmt.Sprintf("/api/v1/articles/%d", draft), "garbage-token", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/articles", "garbage-token", gin.H{"title": "x", "body": "y"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
