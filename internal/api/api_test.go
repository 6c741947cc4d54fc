package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RishiKendai/codelens/internal/config"
	"github.com/RishiKendai/codelens/internal/engine"
	"github.com/RishiKendai/codelens/internal/models"
	"github.com/RishiKendai/codelens/internal/plagiarism"
	"github.com/RishiKendai/codelens/internal/repository"
)

const bubble = `def bubble_sort(arr):
    n = len(arr)
    for i in range(n):
        for j in range(0, n-i-1):
            if arr[j] > arr[j+1]:
                arr[j], arr[j+1] = arr[j+1], arr[j]
    return arr
`

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		CORSOrigins:     []string{"http://localhost:3000"},
		MaxSnippetBytes: 4096,
		RateLimitRPS:    1000,
	}
}

func newRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	pool := plagiarism.NewWorkerPool(context.Background(), 2)
	t.Cleanup(pool.Close)

	opts := engine.DefaultOptions()
	opts.MaxSnippetBytes = cfg.MaxSnippetBytes
	svc := engine.New(repository.NewMemoryCorpus(), repository.NewMemoryReports(), nil, pool, opts)
	_, err := svc.SeedCorpus(context.Background())
	require.NoError(t, err)
	return SetupRoutes(cfg, svc)
}

func doJSON(r http.Handler, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func multipartBody(t *testing.T, files map[string][2]string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, f := range files {
		fw, err := mw.CreateFormFile(field, f[0])
		require.NoError(t, err)
		_, err = fw.Write([]byte(f[1]))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	r := newRouter(t, testConfig())
	w := doJSON(r, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestAnalyze(t *testing.T) {
	r := newRouter(t, testConfig())

	tests := []struct {
		name     string
		path     string
		body     any
		wantCode int
		wantKind string
	}{
		{name: "matches corpus", path: "/api/analyze", body: models.AnalyzeRequest{Code: bubble, Language: "python"}, wantCode: http.StatusOK},
		{name: "enhanced without provider", path: "/api/analyze-enhanced", body: models.AnalyzeRequest{Code: bubble, Language: "python"}, wantCode: http.StatusOK},
		{name: "empty code", path: "/api/analyze", body: models.AnalyzeRequest{Code: "  "}, wantCode: http.StatusBadRequest, wantKind: "INPUT_ERROR"},
		{name: "too large", path: "/api/analyze", body: models.AnalyzeRequest{Code: strings.Repeat("a", 5000)}, wantCode: http.StatusRequestEntityTooLarge, wantKind: "INPUT_ERROR"},
		{name: "bad json", path: "/api/analyze", body: "not an object", wantCode: http.StatusBadRequest, wantKind: "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(r, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, decode[ErrorResponse](t, w).Code)
			}
		})
	}

	w := doJSON(r, http.MethodPost, "/api/analyze", models.AnalyzeRequest{Code: bubble, Language: "python"})
	resp := decode[models.AnalyzeResponse](t, w)
	assert.Equal(t, "python", resp.Language)
	assert.Equal(t, "1", resp.Similarity.Matches[0].ID)
	assert.Equal(t, plagiarism.RiskVeryHigh, resp.Similarity.RiskLevel)

	w = doJSON(r, http.MethodPost, "/api/analyze-enhanced", models.AnalyzeRequest{Code: bubble, Language: "python"})
	resp = decode[models.AnalyzeResponse](t, w)
	assert.True(t, resp.Similarity.Degraded)
	assert.Equal(t, models.ModeLexical, resp.Similarity.Mode)

	noDB := false
	w = doJSON(r, http.MethodPost, "/api/analyze", models.AnalyzeRequest{Code: bubble, CheckDatabase: &noDB})
	resp = decode[models.AnalyzeResponse](t, w)
	assert.Empty(t, resp.Similarity.Matches)
}

func TestCompareReportAndHistory(t *testing.T) {
	r := newRouter(t, testConfig())

	w := doJSON(r, http.MethodPost, "/api/comparison/compare", models.CompareRequest{Code1: bubble, Code2: bubble, Language1: "python", Language2: "python"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cmp := decode[models.CompareResponse](t, w)
	assert.NotEmpty(t, cmp.ComparisonID)
	assert.Equal(t, 1.0, cmp.SimilarityScore)
	assert.True(t, cmp.IsPlagiarized)

	w = doJSON(r, http.MethodGet, "/api/comparison/report/"+cmp.ComparisonID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[models.ComparisonReport](t, w)
	assert.Equal(t, engine.DefaultFile1Name, report.File1Name)
	assert.Equal(t, bubble, report.Code1)

	w = doJSON(r, http.MethodPost, "/api/comparison/compare", models.CompareRequest{Code1: bubble, Code2: "x = 1\n"})
	require.Equal(t, http.StatusOK, w.Code)
	second := decode[models.CompareResponse](t, w)

	w = doJSON(r, http.MethodGet, "/api/comparison/history?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode[[]models.ReportSummary](t, w)
	require.Len(t, history, 1)
	assert.Equal(t, second.ComparisonID, history[0].ID)

	w = doJSON(r, http.MethodGet, "/api/comparison/history", nil)
	assert.Len(t, decode[[]models.ReportSummary](t, w), 2)

	w = doJSON(r, http.MethodGet, "/api/comparison/history?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/comparison/report/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode[ErrorResponse](t, w).Code)
}

func TestUploadCompare(t *testing.T) {
	r := newRouter(t, testConfig())

	body, ct := multipartBody(t, map[string][2]string{
		"file1": {"a.py", bubble},
		"file2": {"b.py", bubble},
	}, map[string]string{"language1": "auto"})
	req := httptest.NewRequest(http.MethodPost, "/api/comparison/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cmp := decode[models.CompareResponse](t, w)

	w = doJSON(r, http.MethodGet, "/api/comparison/report/"+cmp.ComparisonID, nil)
	report := decode[models.ComparisonReport](t, w)
	assert.Equal(t, "a.py", report.File1Name)
	assert.Equal(t, "b.py", report.File2Name)
	assert.Equal(t, "python", report.Language1)
	assert.Equal(t, "python", report.Language2)

	body, ct = multipartBody(t, map[string][2]string{"file1": {"a.py", bubble}}, nil)
	req = httptest.NewRequest(http.MethodPost, "/api/comparison/upload", body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadSingleFile(t *testing.T) {
	r := newRouter(t, testConfig())
	body, ct := multipartBody(t, map[string][2]string{"file": {"Main.java", "class Main {}\n"}}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, "java", got["language"])
	assert.Equal(t, "Main.java", got["filename"])
	assert.EqualValues(t, 14, got["size"])
}

func TestBatchAndStatistics(t *testing.T) {
	r := newRouter(t, testConfig())

	w := doJSON(r, http.MethodPost, "/api/batch-analyze", models.BatchAnalyzeRequest{Codes: []string{bubble, "", bubble}, Language: "python"})
	require.Equal(t, http.StatusOK, w.Code)
	batch := decode[models.BatchAnalyzeResponse](t, w)
	require.Len(t, batch.Results, 3)
	assert.Equal(t, engine.BatchStatusError, batch.Results[1].Status)
	require.Len(t, batch.CrossSimilarities, 1)
	assert.Equal(t, 1.0, batch.CrossSimilarities[0].SimilarityScore)

	w = doJSON(r, http.MethodPost, "/api/batch-analyze", models.BatchAnalyzeRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[models.Statistics](t, w)
	assert.Equal(t, 7, stats.CorpusSize)

	w = doJSON(r, http.MethodGet, "/api/supported-languages", nil)
	langs := decode[map[string][]string](t, w)
	assert.Contains(t, langs["languages"], "kotlin")
}

func TestCorpusRequiresTokenWhenSecretSet(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = "s3cret"
	r := newRouter(t, cfg)
	entry := models.CorpusAddRequest{Code: "total = sum(values)\n", Language: "python"}

	w := doJSON(r, http.MethodPost, "/api/corpus", entry)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	bad, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "ingest"}).SignedString([]byte("other"))
	require.NoError(t, err)
	w = doJSON(r, http.MethodPost, "/api/corpus", entry, "Authorization", "Bearer "+bad)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ingest",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	w = doJSON(r, http.MethodPost, "/api/corpus", entry, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[models.CorpusAddResponse](t, w)

	w = doJSON(r, http.MethodPost, "/api/corpus", entry, "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	again := decode[models.CorpusAddResponse](t, w)
	assert.False(t, again.Added)
	assert.Equal(t, first.ID, again.ID)
}

func TestCorpusOpenWithoutSecret(t *testing.T) {
	r := newRouter(t, testConfig())
	w := doJSON(r, http.MethodPost, "/api/corpus", models.CorpusAddRequest{Code: "y = 2\n"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 1
	r := newRouter(t, cfg)

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, doJSON(r, http.MethodGet, "/api/supported-languages", nil).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/api/health", nil).Code)
}

func TestRateLimiterDropsIdleClients(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Unix(0, 0)
	rl.now = func() time.Time { return now }

	rl.GetLimiter("a")
	now = now.Add(2 * time.Hour)
	rl.GetLimiter("b")
	assert.Equal(t, 1, rl.Len())
}

func TestCORS(t *testing.T) {
	r := newRouter(t, testConfig())
	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
