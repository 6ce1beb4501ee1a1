package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/fitaichain/fitchain/internal/recognition"

	"github.com/gin-gonic/gin"
)

// maxImageBytes bounds uploaded food photos.
const maxImageBytes = 8 << 20

// AnalyzeHandler proxies food images to the recognition service.
type AnalyzeHandler struct {
	analyzer recognition.Analyzer
}

// NewAnalyzeHandler constructs an AnalyzeHandler.
func NewAnalyzeHandler(analyzer recognition.Analyzer) *AnalyzeHandler {
	return &AnalyzeHandler{analyzer: analyzer}
}

// Analyze estimates calories for an uploaded image. Upstream failures come
// back as a marked placeholder rather than an error.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	image, errRead := io.ReadAll(io.LimitReader(c.Request.Body, maxImageBytes+1))
	if errRead != nil {
		respondError(c, http.StatusBadRequest, "read image failed")
		return
	}
	if len(image) == 0 {
		respondError(c, http.StatusBadRequest, "missing image body")
		return
	}
	if len(image) > maxImageBytes {
		respondError(c, http.StatusRequestEntityTooLarge, "image too large")
		return
	}

	mimeType := strings.TrimSpace(c.ContentType())
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	result, errAnalyze := h.analyzer.Analyze(c.Request.Context(), image, mimeType)
	if errAnalyze != nil {
		respondError(c, http.StatusServiceUnavailable, "analysis unavailable")
		return
	}
	respondData(c, http.StatusOK, result)
}
