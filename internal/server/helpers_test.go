package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"noticeboard/internal/config"
	"noticeboard/internal/database"
	"noticeboard/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "server-test-secret-at-least-32-chars"

type testEnv struct {
	server *Server
	app    *fiber.App
	blobs  *storage.MemoryStore
	redis  *miniredis.Miniredis
}

func testConfig(env string) *config.Config {
	return &config.Config{
		Env:            env,
		Port:           "0",
		AllowedOrigins: "http://localhost:8000",
		JWTSecret:      testSecret,
		JWTAlgorithm:   "HS256",
		JWTTTL:         15 * time.Minute,
		BcryptCost:     bcrypt.MinCost,
		DBDriver:       "sqlite",
		DBPath:         ":memory:",
		BlobDriver:     "memory",
		BlobBucket:     "posts",
		MaxUploadMB:    1,
	}
}

func newTestEnv(t *testing.T, surface Surface) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, surface, testConfig("test"))
}

func newTestEnvWithConfig(t *testing.T, surface Surface, cfg *config.Config) *testEnv {
	t.Helper()

	db, err := database.Connect(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})

	blobs := storage.NewMemoryStore("")
	srv, err := NewServerWithDeps(cfg, db, rdb, blobs)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = database.Close(db)
		_ = rdb.Close()
	})

	app, err := srv.NewApp(surface)
	require.NoError(t, err)
	return &testEnv{server: srv, app: app, blobs: blobs, redis: mr}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	return req
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func multipartRequest(t *testing.T, target, content, filename string, file []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("post_content", content))
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

// signupForm returns a complete signup submission for a generated person.
func signupForm(email string) url.Values {
	return url.Values{
		"first_name":   {gofakeit.FirstName()},
		"last_name":    {gofakeit.LastName()},
		"email":        {email},
		"password":     {"password-" + email},
		"phone_number": {gofakeit.Numerify("+1##########")},
	}
}

func sessionCookieFrom(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatalf("response carries no %s cookie", sessionCookie)
	return nil
}
