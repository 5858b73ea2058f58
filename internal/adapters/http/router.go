package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
	"github.com/kirillkom/agro-knowledge/internal/core/ports"
	"github.com/kirillkom/agro-knowledge/internal/observability/metrics"
)

const defaultMaxUploadBytes = 32 << 20

type Options struct {
	Logger         *slog.Logger
	Metrics        *metrics.HTTPServerMetrics
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	MaxUploadBytes int64
	// Health adds details (breaker states) to /healthz. May be nil.
	Health func() map[string]string
}

type Router struct {
	uploads  ports.DocumentIngestor
	searcher ports.KnowledgeSearcher
	library  ports.DocumentLibrary
	catalog  ports.CatalogReader
	advice   ports.AdviceService
	opts     Options
	logger   *slog.Logger
}

func NewRouter(
	uploads ports.DocumentIngestor,
	searcher ports.KnowledgeSearcher,
	library ports.DocumentLibrary,
	catalog ports.CatalogReader,
	advice ports.AdviceService,
	opts Options,
) *Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Router{
		uploads:  uploads,
		searcher: searcher,
		library:  library,
		catalog:  catalog,
		advice:   advice,
		opts:     opts,
		logger:   logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /v1/documents", rt.uploadDocument)
	mux.HandleFunc("GET /v1/documents", rt.listDocuments)
	mux.HandleFunc("DELETE /v1/documents/{id}", rt.deleteDocument)
	mux.HandleFunc("POST /v1/knowledge/search", rt.searchKnowledge)
	mux.HandleFunc("GET /v1/catalog/crops", rt.listCrops)
	mux.HandleFunc("GET /v1/catalog/fertilizers", rt.listFertilizers)
	mux.HandleFunc("POST /v1/ask", rt.ask)
	if rt.opts.Metrics != nil {
		mux.Handle("GET /metrics", rt.opts.Metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.opts.MaxInFlight, 250*time.Millisecond)
	handler = rateLimitMiddleware(handler, rt.opts.RateLimitRPS, rt.opts.RateLimitBurst, func(r *http.Request) {
		if rt.opts.Metrics != nil {
			rt.opts.Metrics.RecordRateLimited(r.URL.Path)
		}
	})
	if rt.opts.Metrics != nil {
		handler = rt.opts.Metrics.Middleware(handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(rt.logger, handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"status": "ok"}
	if rt.opts.Health != nil {
		if details := rt.opts.Health(); len(details) > 0 {
			resp["breakers"] = details
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// uploadDocument answers 201 when the pipeline ran in-process and 202 when
// the upload was queued for the worker.
func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.opts.MaxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "file is too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read uploaded file"})
		return
	}

	logger := requestLogger(r.Context())
	doc, err := rt.uploads.Ingest(r.Context(), domain.SourceFile{
		Name:     fileHeader.Filename,
		MimeType: detectMimeType(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), content),
		Content:  content,
	}, func(ev domain.ProgressEvent) {
		logger.Debug("ingest_progress", "phase", ev.Phase, "message", ev.Message)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusCreated
	if doc.Status == domain.StatusProcessing {
		status = http.StatusAccepted
	}
	writeJSON(w, status, doc)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"documents": rt.library.ListDocuments(r.Context())})
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := rt.library.DeleteDocument(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) searchKnowledge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	contextBlock := rt.searcher.Search(r.Context(), query)
	writeJSON(w, http.StatusOK, map[string]any{
		"context": contextBlock,
		"no_data": strings.HasPrefix(contextBlock, domain.NoDataPrefix),
	})
}

func (rt *Router) listCrops(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"crops": rt.catalog.CropNames()})
}

func (rt *Router) listFertilizers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"fertilizers": rt.catalog.FertilizerNames()})
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	answer, err := rt.advice.Ask(r.Context(), req.Question)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return false
	}
	return true
}

// detectMimeType trusts the declared type unless it is missing or generic,
// then falls back to the extension and content sniffing. The result is a
// lower-case media type without parameters.
func detectMimeType(filename, declared string, content []byte) string {
	if mt := mediaType(declared); mt != "" && mt != "application/octet-stream" {
		return mt
	}
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return "application/pdf"
	}
	return mediaType(http.DetectContentType(content))
}

func mediaType(v string) string {
	mt, _, err := mime.ParseMediaType(v)
	if err != nil {
		return ""
	}
	return mt
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
