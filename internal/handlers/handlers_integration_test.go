package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"portfolio/internal/handlers"
	"portfolio/internal/middleware"
	"portfolio/internal/models"
	"portfolio/internal/repositories"
	"portfolio/internal/seed"
	"portfolio/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	adminUsername = "admin"
	adminPassword = "password123"
)

type MockContactPublisher struct {
	mock.Mock
}

func (m *MockContactPublisher) PublishContactMessage(msg models.ContactMessage) error {
	args := m.Called(msg)
	return args.Error(0)
}

type testEnv struct {
	app       *fiber.App
	storage   *services.Storage
	auth      *services.AuthService
	publisher *MockContactPublisher
}

// setupApp wires seeded in-memory stores, services and handlers the same way the
// server does, with an admin account and a mocked contact publisher.
func setupApp(t *testing.T) *testEnv {
	t.Helper()

	stores := repositories.NewMemoryStores()
	data, err := seed.Default()
	require.NoError(t, err)
	require.NoError(t, seed.Load(stores, data))

	storage := services.NewStorage(stores)
	authService := services.NewAuthService(storage, "test_jwt_secret", time.Hour)
	_, err = authService.EnsureAdmin(adminUsername, adminPassword, "", "admin@example.com")
	require.NoError(t, err)

	publisher := new(MockContactPublisher)
	publisher.On("PublishContactMessage", mock.Anything).Return(nil)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler()})
	app.Use(middleware.RequestID())

	auth := middleware.AuthRequired(authService)
	api := app.Group("/api")
	handlers.NewAuthHandler(authService).RegisterRoutes(api)
	handlers.NewUserHandler(storage).RegisterRoutes(api, auth)
	handlers.NewProjectHandler(storage).RegisterRoutes(api, auth)
	handlers.NewDocumentHandler(storage, services.NewDocumentService(storage, nil)).RegisterRoutes(api, auth)
	handlers.NewContactHandler(services.NewContactService(storage, publisher)).RegisterRoutes(api, auth)

	return &testEnv{app: app, storage: storage, auth: authService, publisher: publisher}
}

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()

	resp := e.do(t, http.MethodPost, "/api/token/", "", map[string]string{
		"username": adminUsername,
		"password": adminPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body["access"])
	return body["access"]
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestToken(t *testing.T) {
	env := setupApp(t)

	token := env.login(t)
	claims, err := env.auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, adminUsername, claims["username"])

	resp := env.do(t, http.MethodPost, "/api/token/", "", map[string]string{
		"username": adminUsername,
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/token/", "", map[string]string{"username": adminUsername})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "Validation failed", body["message"])
	assert.Contains(t, body["errors"], "password")
}

func TestProjects_PublicReads(t *testing.T) {
	env := setupApp(t)

	resp := env.do(t, http.MethodGet, "/api/projects", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	projects := decode[[]models.Project](t, resp)
	require.Len(t, projects, 6)
	assert.Equal(t, "1", projects[0].ID)
	assert.Equal(t, "6", projects[5].ID)

	resp = env.do(t, http.MethodGet, "/api/projects?category=All", "", nil)
	assert.Len(t, decode[[]models.Project](t, resp), 6)

	resp = env.do(t, http.MethodGet, "/api/projects?category=Web", "", nil)
	for _, p := range decode[[]models.Project](t, resp) {
		assert.Equal(t, "Web", p.Category)
	}

	resp = env.do(t, http.MethodGet, "/api/projects?category=web", "", nil)
	assert.Empty(t, decode[[]models.Project](t, resp))

	resp = env.do(t, http.MethodGet, "/api/projects/1/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", decode[models.Project](t, resp).ID)

	resp = env.do(t, http.MethodGet, "/api/projects/does-not-exist/", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProjects_WritesRequireAuth(t *testing.T) {
	env := setupApp(t)
	payload := map[string]any{
		"title":        "Unauthorized",
		"description":  "x",
		"category":     "Web",
		"technologies": []string{"Go"},
	}

	resp := env.do(t, http.MethodPost, "/api/projects/", "", payload)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/projects/1/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/api/projects/", "not-a-jwt", payload)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	projects, err := env.storage.ListProjects()
	require.NoError(t, err)
	assert.Len(t, projects, 6)
}

func TestProjects_CRUD(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	link := "https://example.com/cli"
	resp := env.do(t, http.MethodPost, "/api/projects/", token, map[string]any{
		"title":        "CLI Tool",
		"description":  "A command line tool",
		"category":     "Tools",
		"image":        "https://example.com/cli.png",
		"technologies": []string{"Go", "Cobra"},
		"link":         link,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[models.Project](t, resp)
	assert.False(t, seed.IsSeedID(created.ID))
	assert.Equal(t, []string{"Go", "Cobra"}, created.Technologies)
	require.NotNil(t, created.Link)
	assert.Equal(t, link, *created.Link)
	assert.Nil(t, created.Github)

	resp = env.do(t, http.MethodGet, "/api/projects", "", nil)
	assert.Len(t, decode[[]models.Project](t, resp), 7)

	resp = env.do(t, http.MethodPut, "/api/projects/"+created.ID+"/", token, map[string]any{
		"title":        "CLI Tool v2",
		"description":  "A faster command line tool",
		"category":     "Tools",
		"technologies": []string{"Go"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	replaced := decode[models.Project](t, resp)
	assert.Equal(t, created.ID, replaced.ID)
	assert.Equal(t, "CLI Tool v2", replaced.Title)
	assert.Nil(t, replaced.Link)

	resp = env.do(t, http.MethodDelete, "/api/projects/"+created.ID+"/", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodDelete, "/api/projects/"+created.ID+"/", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodPut, "/api/projects/missing/", token, map[string]any{
		"title":        "x",
		"description":  "x",
		"category":     "x",
		"technologies": []string{"x"},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProjects_TechnologiesDefaultToEmpty(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	resp := env.do(t, http.MethodPost, "/api/projects/", token, map[string]any{
		"title":       "No stack listed",
		"description": "x",
		"category":    "Web",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, []any{}, body["technologies"])
}

func TestProjects_Validation(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	resp := env.do(t, http.MethodPost, "/api/projects/", token, map[string]any{
		"title": "Missing fields",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	errs, ok := body["errors"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, errs, "description")
	assert.Contains(t, errs, "category")
	assert.NotContains(t, errs, "technologies")

	resp = env.do(t, http.MethodPost, "/api/projects/", token, map[string]any{
		"title":        "Blank technology",
		"description":  "x",
		"category":     "Web",
		"technologies": []string{"Go", ""},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req := httptest.NewRequest(http.MethodPost, "/api/projects/", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	raw, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestDocuments_CreateAlongsideSeed(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	resp := env.do(t, http.MethodGet, "/api/documents", "", nil)
	require.Len(t, decode[[]models.Document](t, resp), 8)

	resp = env.do(t, http.MethodPost, "/api/documents/", token, map[string]any{
		"title":       "X",
		"description": "Y",
		"type":        "PDF",
		"category":    "Guide",
		"fileUrl":     "data:text/plain;base64,aGVsbG8=",
		"size":        "1.0 MB",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[models.Document](t, resp)
	assert.False(t, seed.IsSeedID(created.ID))

	resp = env.do(t, http.MethodGet, "/api/documents", "", nil)
	assert.Len(t, decode[[]models.Document](t, resp), 9)

	resp = env.do(t, http.MethodGet, "/api/documents?category=Guide", "", nil)
	guides := decode[[]models.Document](t, resp)
	require.NotEmpty(t, guides)
	for _, d := range guides {
		assert.Equal(t, "Guide", d.Category)
	}

	resp = env.do(t, http.MethodGet, "/api/documents/"+created.ID+"/file/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, "attachment", resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	resp = env.do(t, http.MethodDelete, "/api/documents/"+created.ID+"/", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/documents/"+created.ID+"/", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDocuments_InlineHTMLIsServedAsAttachment(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	resp := env.do(t, http.MethodPost, "/api/documents/", token, map[string]any{
		"title":       "Page",
		"description": "Page",
		"type":        "HTML",
		"category":    "Other",
		"fileUrl":     "data:text/html;base64,PHNjcmlwdD5hbGVydCgxKTwvc2NyaXB0Pg==",
		"size":        "1 KB",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	doc := decode[models.Document](t, resp)

	resp = env.do(t, http.MethodGet, "/api/documents/"+doc.ID+"/file/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "attachment", resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestDocuments_FileRedirectAndUnavailable(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	create := func(fileURL string) models.Document {
		resp := env.do(t, http.MethodPost, "/api/documents/", token, map[string]any{
			"title":       "Doc",
			"description": "Doc",
			"type":        "PDF",
			"category":    "Other",
			"fileUrl":     fileURL,
			"size":        "1 KB",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		return decode[models.Document](t, resp)
	}

	linked := create("https://example.com/doc.pdf")
	resp := env.do(t, http.MethodGet, "/api/documents/"+linked.ID+"/file/", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://example.com/doc.pdf", resp.Header.Get("Location"))

	placeholder := create("#")
	resp = env.do(t, http.MethodGet, "/api/documents/"+placeholder.ID+"/file/", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/documents/missing/file/", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestContact(t *testing.T) {
	env := setupApp(t)

	resp := env.do(t, http.MethodPost, "/api/contact/", "", map[string]string{
		"name":    "Jane",
		"email":   "jane@example.com",
		"subject": "Hello",
		"message": "Nice portfolio",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	msg := decode[models.ContactMessage](t, resp)
	assert.NotEmpty(t, msg.ID)
	env.publisher.AssertNumberOfCalls(t, "PublishContactMessage", 1)

	resp = env.do(t, http.MethodPost, "/api/contact/", "", map[string]string{
		"name":    "Jane",
		"email":   "not-an-email",
		"subject": "Hello",
		"message": "Nice portfolio",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/contact/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/contact/", env.login(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	msgs := decode[[]models.ContactMessage](t, resp)
	require.Len(t, msgs, 1)
	assert.Equal(t, msg.ID, msgs[0].ID)
}

func TestUsersMe(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	resp := env.do(t, http.MethodGet, "/api/users/me/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/users/me/", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[map[string]any](t, resp)
	assert.Equal(t, adminUsername, me["username"])
	assert.Equal(t, "admin@example.com", me["email"])
	assert.NotContains(t, me, "password")

	avatar := "data:image/png;base64,iVBORw0KGgo="
	resp = env.do(t, http.MethodPatch, "/api/users/me/", token, map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"profile":    map[string]any{"image": avatar},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[models.User](t, resp)
	assert.Equal(t, "Ada", updated.FirstName)
	assert.Equal(t, "Lovelace", updated.LastName)
	assert.Equal(t, "admin@example.com", updated.Email)
	require.NotNil(t, updated.Profile.Image)
	assert.Equal(t, avatar, *updated.Profile.Image)

	resp = env.do(t, http.MethodPatch, "/api/users/me/", token, map[string]any{"email": "bad"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUsersMe_UsernameConflict(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	hash, err := services.HashPassword("other-password")
	require.NoError(t, err)
	_, err = env.storage.CreateUser(models.UserInput{Username: "editor", Password: hash})
	require.NoError(t, err)

	resp := env.do(t, http.MethodPatch, "/api/users/me/", token, map[string]any{"username": "editor"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	user, err := env.storage.GetUserByUsername(adminUsername)
	require.NoError(t, err)
	assert.NotNil(t, user)
}

func TestUnknownRouteCarriesRequestID(t *testing.T) {
	env := setupApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/nowhere", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	resp, err := env.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "req-123", body["request_id"])
}
