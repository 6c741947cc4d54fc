package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/RishiKendai/codelens/internal/engine"
	"github.com/RishiKendai/codelens/internal/lang"
	"github.com/RishiKendai/codelens/internal/models"
)

// Handler holds dependencies for handlers
type Handler struct {
	svc             *engine.Service
	maxSnippetBytes int64
}

// NewHandler creates a new handler
func NewHandler(svc *engine.Service, maxSnippetBytes int) *Handler {
	return &Handler{svc: svc, maxSnippetBytes: int64(maxSnippetBytes)}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

func (h *Handler) Analyze(c *gin.Context) {
	h.analyze(c, false)
}

// AnalyzeEnhanced always takes the semantic path.
func (h *Handler) AnalyzeEnhanced(c *gin.Context) {
	h.analyze(c, true)
}

func (h *Handler) analyze(c *gin.Context, enhanced bool) {
	var req models.AnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}

	checkDatabase := true
	if req.CheckDatabase != nil {
		checkDatabase = *req.CheckDatabase
	}
	resp, err := h.svc.Analyze(c.Request.Context(), engine.AnalyzeInput{
		Code:          req.Code,
		Language:      req.Language,
		CheckDatabase: checkDatabase,
		Enhanced:      enhanced || req.UseCohere,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if !bindJSON(c, &req) {
		return
	}

	h.compare(c, engine.CompareInput{
		Code1:     req.Code1,
		Code2:     req.Code2,
		Language1: req.Language1,
		Language2: req.Language2,
		Enhanced:  req.UseCohere,
	})
}

// UploadCompare compares two uploaded files. An empty or auto language is
// taken from the file extension.
func (h *Handler) UploadCompare(c *gin.Context) {
	code1, name1, ok := h.formFile(c, "file1")
	if !ok {
		return
	}
	code2, name2, ok := h.formFile(c, "file2")
	if !ok {
		return
	}

	in := engine.CompareInput{
		Code1:     code1,
		Code2:     code2,
		Language1: uploadLanguage(c.PostForm("language1"), name1),
		Language2: uploadLanguage(c.PostForm("language2"), name2),
		File1Name: name1,
		File2Name: name2,
	}
	if v := c.PostForm("useCohere"); v != "" {
		enhanced, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, "useCohere must be a boolean")
			return
		}
		in.Enhanced = &enhanced
	}
	h.compare(c, in)
}

func (h *Handler) compare(c *gin.Context, in engine.CompareInput) {
	report, err := h.svc.Compare(c.Request.Context(), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CompareResponse{
		ComparisonID:    report.ID,
		SimilarityScore: report.SimilarityScore,
		IsPlagiarized:   report.IsPlagiarized,
		Explanation:     report.Analysis.Explanation,
	})
}

func (h *Handler) Report(c *gin.Context) {
	report, err := h.svc.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) History(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(c, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	history, err := h.svc.History(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *Handler) SupportedLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"languages": engine.SupportedLanguages()})
}

// Upload returns the content of a single file without analyzing it.
func (h *Handler) Upload(c *gin.Context) {
	code, name, ok := h.formFile(c, "file")
	if !ok {
		return
	}
	l := lang.FromFilename(name)
	if l == lang.Unknown {
		l = lang.Detect(code)
	}
	c.JSON(http.StatusOK, gin.H{
		"code":     code,
		"filename": name,
		"language": string(l),
		"size":     len(code),
	})
}

func (h *Handler) BatchAnalyze(c *gin.Context) {
	var req models.BatchAnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.BatchAnalyze(c.Request.Context(), req.Codes, req.Language)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) AddToCorpus(c *gin.Context) {
	var req models.CorpusAddRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.AddToCorpus(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if resp.Added {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

func (h *Handler) Statistics(c *gin.Context) {
	stats, err := h.svc.Statistics(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// formFile reads a multipart file, reading at most one byte past the
// snippet limit so oversized files are still rejected by the engine.
func (h *Handler) formFile(c *gin.Context, field string) (string, string, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		badRequest(c, fmt.Sprintf("%s is required", field))
		return "", "", false
	}
	code, err := h.readFile(fh)
	if err != nil {
		log.Error().Err(err).Str("field", field).Msg("Failed to read uploaded file")
		badRequest(c, fmt.Sprintf("failed to read %s", field))
		return "", "", false
	}
	return code, fh.Filename, true
}

func (h *Handler) readFile(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxSnippetBytes+1))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func uploadLanguage(tag, filename string) string {
	if lang.Normalize(tag) != lang.Auto {
		return tag
	}
	if l := lang.FromFilename(filename); l != lang.Unknown {
		return string(l)
	}
	return string(lang.Auto)
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return false
	}
	return true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: string(engine.KindInput)})
}

// writeError maps an engine failure onto its HTTP status.
func writeError(c *gin.Context, err error) {
	kind := engine.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case engine.KindInput:
		status = http.StatusBadRequest
		if errors.Is(err, engine.ErrSnippetTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
	case engine.KindCorpusUnavailable:
		status = http.StatusServiceUnavailable
	case engine.KindNotFound:
		status = http.StatusNotFound
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	}
	c.JSON(status, ErrorResponse{Error: engine.MessageOf(err), Code: string(kind)})
}
