package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"k8s.io/klog/v2"

	"github.com/lexplain/docanalyzer/internal/application/uploads"
	"github.com/lexplain/docanalyzer/internal/domain/ai"
	"github.com/lexplain/docanalyzer/internal/domain/documents"
	"github.com/lexplain/docanalyzer/internal/middleware"
)

type Analyzer interface {
	Analyze(ctx context.Context, req documents.AnalyzeRequest) (*documents.AnalysisResult, error)
}

type Uploader interface {
	Upload(ctx context.Context, cmd uploads.UploadCommand) (uploads.UploadResult, error)
}

type Assistant interface {
	Answer(ctx context.Context, question, text string) (string, error)
	Checklist(ctx context.Context, text string) (string, error)
}

type Translator interface {
	Translate(ctx context.Context, texts []string, target string) ([]string, error)
}

// Options configures the HTTP surface. Zero durations and limits disable the matching guard.
type Options struct {
	CORSOrigins    []string
	MaxBodyBytes   int64
	RequestTimeout time.Duration
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP. Enable it only
	// behind a proxy that overwrites those headers.
	TrustProxy     bool
	Limiter        *middleware.RateLimiter
	Health         map[string]middleware.HealthChecker
}

type Router struct {
	analysis  Analyzer
	uploads   Uploader
	assistant Assistant
	translate Translator
	opts      Options
}

func NewRouter(analysis Analyzer, up Uploader, assistant Assistant, translate Translator, opts Options) http.Handler {
	r := &Router{analysis: analysis, uploads: up, assistant: assistant, translate: translate, opts: opts}
	mux := chi.NewRouter()

	if opts.TrustProxy {
		mux.Use(chimw.RealIP)
	}
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	mux.Use(middleware.RateLimitMiddleware(opts.Limiter))

	mux.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Lexplain backend is running"})
	})
	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(opts.Health))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/api", func(rt chi.Router) {
		rt.Use(middleware.RequestTimeout(opts.RequestTimeout))
		rt.Post("/analyze", r.wrap("Failed to analyze document", r.handleAnalyze))

		upload := r.wrap("Failed to upload file", r.handleUpload)
		rt.Post("/upload/", upload)
		rt.Post("/upload", upload)

		qa := r.wrap("Failed to answer question", r.handleQA)
		rt.Post("/qa/qa", qa)
		rt.Post("/qa", qa)

		checklist := r.wrap("Failed to generate checklist", r.handleChecklist)
		rt.Post("/export/export-checklist", checklist)
		rt.Post("/export/checklist", checklist)

		translate := r.wrap("Failed to translate text", r.handleTranslate)
		rt.Post("/translate/translate", translate)
		rt.Post("/translate", translate)
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps handler errors to status codes. Only validation messages reach the client; anything
// else is logged and answered with the route's generic message.
// A request past its deadline gets a 504; a client that went away gets nothing.
func (r *Router) wrap(generic string, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		if ctxErr := req.Context().Err(); ctxErr != nil {
			klog.Warningf("[HTTP] %s %s abandoned: %v (%v)", req.Method, req.URL.Path, ctxErr, err)
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				writeError(w, http.StatusGatewayTimeout, "Request timed out")
			}
			return
		}

		var tooLarge *http.MaxBytesError
		var invalid *documents.ValidationError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
		case errors.As(err, &invalid):
			writeError(w, http.StatusBadRequest, invalid.Message)
		case errors.Is(err, documents.ErrUnsupportedMediaType):
			writeError(w, http.StatusBadRequest, "Unsupported file type")
		case errors.Is(err, ai.ErrQuotaExceeded):
			writeError(w, http.StatusTooManyRequests, "AI quota exceeded, please try again later")
		default:
			klog.Errorf("[HTTP] %s %s: %v", req.Method, req.URL.Path, err)
			writeError(w, http.StatusInternalServerError, generic)
		}
	}
}

// POST /api/analyze
// Body: {"gcs_uri": "gs://bucket/key", "mime_type": "application/pdf"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		GCSURI   string `json:"gcs_uri"`
		MimeType string `json:"mime_type"`
	}
	if err := r.decode(w, req, &body); err != nil {
		return err
	}
	analyzeReq := documents.AnalyzeRequest{Locator: documents.Locator(body.GCSURI), MimeType: body.MimeType}
	if err := analyzeReq.Validate(); err != nil {
		return err
	}
	mimeType, err := middleware.ValidateMimeType(body.MimeType)
	if err != nil {
		return documents.Invalid("%v", err)
	}
	analyzeReq.MimeType = mimeType

	middleware.IncrementAnalyses()
	res, err := r.analysis.Analyze(req.Context(), analyzeReq)
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}
	middleware.AddDegradedStages(len(res.Degraded))
	return writeJSON(w, http.StatusOK, res)
}

// POST /api/upload/
// Multipart form with a single "file" part.
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	if r.opts.MaxBodyBytes > 0 {
		req.Body = http.MaxBytesReader(w, req.Body, r.opts.MaxBodyBytes)
	}
	file, header, err := req.FormFile("file")
	if req.MultipartForm != nil {
		defer req.MultipartForm.RemoveAll()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return documents.Invalid("No file part")
	}
	defer file.Close()

	res, err := r.uploads.Upload(req.Context(), uploads.UploadCommand{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		return err
	}
	middleware.IncrementUploads()
	return writeJSON(w, http.StatusOK, map[string]string{
		"message":   "File uploaded successfully",
		"gcs_uri":   string(res.Locator),
		"mime_type": res.MimeType,
	})
}

// POST /api/qa/qa
// Body: {"question": "...", "textContent": "..."}
func (r *Router) handleQA(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Question    string `json:"question"`
		TextContent string `json:"textContent"`
	}
	if err := r.decode(w, req, &body); err != nil {
		return err
	}
	answer, err := r.assistant.Answer(req.Context(), middleware.SanitizeString(body.Question), body.TextContent)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// POST /api/export/export-checklist
// Body: {"textContent": "..."}; answers with a checklist.txt attachment.
func (r *Router) handleChecklist(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		TextContent string `json:"textContent"`
	}
	if err := r.decode(w, req, &body); err != nil {
		return err
	}
	checklist, err := r.assistant.Checklist(req.Context(), body.TextContent)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="checklist.txt"`)
	w.WriteHeader(http.StatusOK)
	_, err = io.WriteString(w, checklist)
	return err
}

// POST /api/translate/translate
// Body: {"texts": ["..."], "target": "fr"}
func (r *Router) handleTranslate(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Texts  []string `json:"texts"`
		Target string   `json:"target"`
	}
	if err := r.decode(w, req, &body); err != nil {
		return err
	}
	translated, err := r.translate.Translate(req.Context(), body.Texts, body.Target)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string][]string{"translated_texts": translated})
}

func (r *Router) decode(w http.ResponseWriter, req *http.Request, v any) error {
	body := req.Body
	if r.opts.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, req.Body, r.opts.MaxBodyBytes)
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return documents.Invalid("Request body is required")
		}
		return documents.Invalid("Invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, map[string]string{"error": msg})
}
