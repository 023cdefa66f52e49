package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/pose-mock/internal/config"
)

// =========================================================================
// HELPERS
// =========================================================================

type testServer struct {
	t     *testing.T
	srv   *Server
	token string
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *testServer {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	srv, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { srv.Close() })

	return &testServer{t: t, srv: srv}
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	ts.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.srv.Handler().ServeHTTP(rec, req)
	return rec
}

// login authenticates the helper; later calls send the access token.
func (ts *testServer) login() {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/v1/auth/login", `{"token":"e2e"}`)
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())
	ts.token = decodeMap(ts.t, rec)["access_token"].(string)
}

func (ts *testServer) mustCreate(path, body string) map[string]any {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, path, body)
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeMap(ts.t, rec)
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func idOf(v map[string]any) string {
	return strconv.Itoa(int(v["id"].(float64)))
}

// =========================================================================
// ROUTER BOUNDARY
// =========================================================================

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestUnknownRoutesAre404(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.login()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/nonexistent"},
		{http.MethodGet, "/nowhere"},
		{http.MethodGet, "/api/v1/poses/abc"},
		{http.MethodPatch, "/api/v1/poses"},
		{http.MethodGet, "/api/v1/sequences/1/extra"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := ts.do(tt.method, tt.path, "")

			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.JSONEq(t, `{"detail":"Not found"}`, rec.Body.String())
		})
	}
}

func TestUnknownAPIRouteWithoutAuthIs404(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/api/v1/nonexistent", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Not found"}`, rec.Body.String())
}

func TestUnknownSequenceRoutesWithoutAuthAre404(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/sequences/abc"},
		{http.MethodGet, "/api/v1/sequences/abc"},
		{http.MethodGet, "/api/sequences/1/extra"},
		{http.MethodGet, "/api/v1/sequences/1/extra"},
		{http.MethodPatch, "/api/sequences/1"},
		{http.MethodPatch, "/api/v1/sequences/1"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := ts.do(tt.method, tt.path, "")

			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.JSONEq(t, `{"detail":"Not found"}`, rec.Body.String())
		})
	}

	// Matched routes under both prefixes still demand a token.
	for _, path := range []string{"/api/sequences/1", "/api/v1/sequences/1"} {
		rec := ts.do(http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	ts := newTestServer(t, nil)

	paths := []string{
		"/api/v1/auth/me",
		"/api/v1/categories",
		"/api/v1/muscles",
		"/api/v1/poses",
		"/api/v1/sequences",
		"/api/sequences",
	}
	headers := []string{"", "Basic abc", "bearer abc", "Bearerabc"}

	for _, path := range paths {
		for _, h := range headers {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if h != "" {
				req.Header.Set("Authorization", h)
			}
			rec := httptest.NewRecorder()
			ts.srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s with %q", path, h)
			assert.JSONEq(t, `{"detail":"Unauthorized"}`, rec.Body.String())
		}
	}
}

func TestPanicBecomesJSON500(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.srv.router.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("store exploded")
	})

	rec := ts.do(http.MethodGet, "/boom", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"store exploded"}`, rec.Body.String())
}

func TestRequestIDHeaderIsNotRequired(t *testing.T) {
	ts := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()

	ts.srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

// =========================================================================
// AUTH
// =========================================================================

func TestLoginThenMe(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodPost, "/api/v1/auth/login", `{"token":"abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeMap(t, rec)
	assert.NotEmpty(t, body["access_token"])
	assert.NotEmpty(t, body["refresh_token"])
	assert.Equal(t, "bearer", body["token_type"])
	assert.Equal(t, float64(3600), body["expires_in"])

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "refresh_token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "refresh cookie set")

	ts.token = body["access_token"].(string)
	rec = ts.do(http.MethodGet, "/api/v1/auth/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":1,"token":"access-abc","name":"Test User"}`, rec.Body.String())
}

func TestRefreshWithCookie(t *testing.T) {
	ts := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: "refresh-abc"})
	rec := httptest.NewRecorder()

	ts.srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "access-abc", decodeMap(t, rec)["access_token"])
}

func TestJWTMode(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) {
		c.Auth.Mode = config.AuthJWT
		c.Auth.JWTSecret = "an-adequately-long-test-secret"
	})

	ts.token = "not-a-jwt"
	rec := ts.do(http.MethodGet, "/api/v1/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ts.token = ""
	ts.login()
	assert.Equal(t, 3, len(strings.Split(ts.token, ".")), "access token is a JWT")

	rec = ts.do(http.MethodGet, "/api/v1/auth/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeMap(t, rec)["id"])
}

func TestNewRejectsShortJWTSecret(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Auth.Mode = config.AuthJWT
	cfg.Auth.JWTSecret = "short"

	_, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.Error(t, err)
}

// =========================================================================
// RESOURCE FLOWS (run against both store drivers)
// =========================================================================

var drivers = map[string]func(*config.Config){
	"memory": nil,
	"sqlite": func(c *config.Config) {
		c.Store.Driver = config.DriverSQLite
		c.Store.Path = ":memory:"
	},
}

func TestCategoryDeleteOrphansPoses(t *testing.T) {
	for name, mutate := range drivers {
		t.Run(name, func(t *testing.T) {
			ts := newTestServer(t, mutate)
			ts.login()

			cat := ts.mustCreate("/api/v1/categories", `{"name":"Standing"}`)
			catID := idOf(cat)
			var poseIDs []string
			for i := 0; i < 3; i++ {
				p := ts.mustCreate("/api/v1/poses", `{"code":"P`+strconv.Itoa(i)+`","name":"Pose","category_id":`+catID+`}`)
				assert.Equal(t, "Standing", p["category_name"])
				poseIDs = append(poseIDs, idOf(p))
			}

			rec := ts.do(http.MethodGet, "/api/v1/categories", "")
			assert.Contains(t, rec.Body.String(), `"pose_count":3`)

			for i := 0; i < 2; i++ {
				rec = ts.do(http.MethodDelete, "/api/v1/categories/"+catID, "")
				assert.Equal(t, http.StatusNoContent, rec.Code)
			}

			rec = ts.do(http.MethodGet, "/api/v1/categories", "")
			assert.JSONEq(t, `[]`, rec.Body.String())

			for _, id := range poseIDs {
				rec = ts.do(http.MethodGet, "/api/v1/poses/"+id, "")
				require.Equal(t, http.StatusOK, rec.Code)
				p := decodeMap(t, rec)
				assert.Nil(t, p["category_id"])
				assert.Nil(t, p["category_name"])
			}
		})
	}
}

func TestPoseLifecycle(t *testing.T) {
	for name, mutate := range drivers {
		t.Run(name, func(t *testing.T) {
			ts := newTestServer(t, mutate)
			ts.login()

			p := ts.mustCreate("/api/v1/poses", `{"code":"X1","name":"Test"}`)
			assert.Equal(t, float64(1), p["version"])
			assert.Equal(t, []any{}, p["muscles"])
			assert.Nil(t, p["category_name"])

			id := idOf(p)
			rec := ts.do(http.MethodDelete, "/api/v1/poses/"+id, "")
			assert.Equal(t, http.StatusNoContent, rec.Code)

			rec = ts.do(http.MethodGet, "/api/v1/poses/"+id, "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.JSONEq(t, `{"detail":"Pose not found"}`, rec.Body.String())
		})
	}
}

func TestPoseWithMuscles(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.login()

	rec := ts.do(http.MethodPost, "/api/v1/muscles/seed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	first := rec.Body.String()
	rec = ts.do(http.MethodPost, "/api/v1/muscles/seed", "")
	assert.JSONEq(t, first, rec.Body.String(), "seeding is idempotent")

	p := ts.mustCreate("/api/v1/poses", `{"code":"M","name":"Muscled","muscles":[{"muscle_id":1,"activation_level":80}]}`)
	muscles := p["muscles"].([]any)
	require.Len(t, muscles, 1)
	m := muscles[0].(map[string]any)
	assert.Equal(t, float64(80), m["activation_level"])
	assert.NotEmpty(t, m["muscle_name"])

	rec = ts.do(http.MethodPost, "/api/v1/poses", `{"code":"M","name":"Bad","muscles":[{"muscle_id":999}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPosePagination(t *testing.T) {
	for name, mutate := range drivers {
		t.Run(name, func(t *testing.T) {
			ts := newTestServer(t, mutate)
			ts.login()
			for i := 0; i < 7; i++ {
				ts.mustCreate("/api/v1/poses", `{"code":"P","name":"P"}`)
			}

			tests := []struct {
				skip, limit, want int
			}{
				{0, 100, 7},
				{0, 3, 3},
				{5, 3, 2},
				{7, 3, 0},
				{20, 3, 0},
				{0, 0, 0},
			}
			for _, tt := range tests {
				rec := ts.do(http.MethodGet, "/api/v1/poses?skip="+strconv.Itoa(tt.skip)+"&limit="+strconv.Itoa(tt.limit), "")
				require.Equal(t, http.StatusOK, rec.Code)
				page := decodeMap(t, rec)
				assert.Len(t, page["items"], tt.want, "skip=%d limit=%d", tt.skip, tt.limit)
				assert.Equal(t, float64(7), page["total"])
			}
		})
	}
}

func TestSchemaUploadRoundTrip(t *testing.T) {
	for name, mutate := range drivers {
		t.Run(name, func(t *testing.T) {
			ts := newTestServer(t, mutate)
			ts.login()
			p := ts.mustCreate("/api/v1/poses", `{"code":"S","name":"Schema"}`)
			data := []byte("\x89PNG\r\n\x1a\n\x00\xffpayload")

			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			fw, err := mw.CreateFormFile("file", "schema.png")
			require.NoError(t, err)
			_, err = fw.Write(data)
			require.NoError(t, err)
			require.NoError(t, mw.Close())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/poses/"+idOf(p)+"/schema", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			req.Header.Set("Authorization", "Bearer "+ts.token)
			rec := httptest.NewRecorder()
			ts.srv.Handler().ServeHTTP(rec, req)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			schemaPath := decodeMap(t, rec)["schema_path"].(string)
			assert.Equal(t, "/storage/uploads/"+idOf(p)+"/schema.png", schemaPath)

			ts.token = ""
			rec = ts.do(http.MethodGet, schemaPath, "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
			assert.Equal(t, data, rec.Body.Bytes())
		})
	}
}

func TestStorageMissIsBare404(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(http.MethodGet, "/storage/uploads/42/schema.png", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestSequencesUnderBothPrefixes(t *testing.T) {
	for name, mutate := range drivers {
		t.Run(name, func(t *testing.T) {
			ts := newTestServer(t, mutate)
			ts.login()
			a := ts.mustCreate("/api/v1/poses", `{"code":"A","name":"A"}`)
			b := ts.mustCreate("/api/v1/poses", `{"code":"B","name":"B"}`)

			seq := ts.mustCreate("/api/sequences", `{"name":"Flow","poses":[`+
				`{"pose_id":`+idOf(a)+`,"duration_seconds":10},`+
				`{"pose_id":`+idOf(b)+`,"duration_seconds":20}]}`)
			assert.Equal(t, float64(30), seq["duration_seconds"])
			assert.Equal(t, "beginner", seq["difficulty"])

			rec := ts.do(http.MethodGet, "/api/v1/sequences/"+idOf(seq), "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, float64(30), decodeMap(t, rec)["duration_seconds"])

			rec = ts.do(http.MethodGet, "/api/v1/sequences", "")
			require.Equal(t, http.StatusOK, rec.Code)
			page := decodeMap(t, rec)
			assert.Equal(t, float64(1), page["total"])
			assert.Equal(t, float64(20), page["limit"])

			rec = ts.do(http.MethodPut, "/api/sequences/"+idOf(seq), `{"difficulty":"advanced"}`)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "advanced", decodeMap(t, rec)["difficulty"])

			rec = ts.do(http.MethodDelete, "/api/v1/sequences/"+idOf(seq), "")
			assert.Equal(t, http.StatusNoContent, rec.Code)
			rec = ts.do(http.MethodGet, "/api/sequences/"+idOf(seq), "")
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

// =========================================================================
// SUPPLEMENTARY ENDPOINTS
// =========================================================================

func TestResetEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.login()
	ts.mustCreate("/api/v1/poses", `{"code":"A","name":"A"}`)

	rec := ts.do(http.MethodPost, "/__test__/reset", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	p := ts.mustCreate("/api/v1/poses", `{"code":"B","name":"B"}`)
	assert.Equal(t, "1", idOf(p))
}

func TestResetEndpointDisabled(t *testing.T) {
	ts := newTestServer(t, func(c *config.Config) { c.Test.ResetEnabled = false })

	rec := ts.do(http.MethodPost, "/__test__/reset", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(http.MethodGet, "/health", "")
	ts.do(http.MethodGet, "/health", "")

	rec := ts.do(http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `posemock_http_requests_total{method="GET",route="/health",status="200"} 2`)
}
