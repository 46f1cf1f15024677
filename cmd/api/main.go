package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"k8s.io/klog/v2"

	"github.com/lexplain/docanalyzer/internal/application"
	appai "github.com/lexplain/docanalyzer/internal/application/ai"
	"github.com/lexplain/docanalyzer/internal/application/analysis"
	"github.com/lexplain/docanalyzer/internal/application/translation"
	"github.com/lexplain/docanalyzer/internal/application/uploads"
	"github.com/lexplain/docanalyzer/internal/config"
	"github.com/lexplain/docanalyzer/internal/domain/documents"
	"github.com/lexplain/docanalyzer/internal/infra/ai/openai"
	"github.com/lexplain/docanalyzer/internal/infra/extraction"
	"github.com/lexplain/docanalyzer/internal/infra/extraction/docai"
	"github.com/lexplain/docanalyzer/internal/infra/httpserver"
	"github.com/lexplain/docanalyzer/internal/infra/storage"
	"github.com/lexplain/docanalyzer/internal/infra/translation/google"
	"github.com/lexplain/docanalyzer/internal/middleware"
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		klog.Fatalf("config load error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		klog.Fatalf("invalid config: %v", err)
	}

	ctx := context.Background()

	store, err := storage.New(ctx,
		cfg.Storage.Endpoint,
		cfg.Storage.Region,
		cfg.Storage.BucketName,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.LocatorScheme,
		cfg.Storage.UseSSL,
	)
	if err != nil {
		klog.Fatalf("storage init error: %v", err)
	}

	docs, err := docai.New(ctx,
		cfg.DocumentAI.Project,
		cfg.DocumentAI.Location,
		cfg.DocumentAI.Processor,
		cfg.DocumentAI.Endpoint,
		cfg.DocumentAI.InlineContent,
		store,
	)
	if err != nil {
		klog.Fatalf("document ai init error: %v", err)
	}
	defer docs.Close()
	extractor := extraction.NewRouter(store, docs)

	llm := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.MaxTokens)

	translator, err := newTranslator(ctx, cfg, llm)
	if err != nil {
		klog.Fatalf("translator init error: %v", err)
	}
	if c, ok := translator.(io.Closer); ok {
		defer c.Close()
	}

	var limiter *middleware.RateLimiter
	if rl := cfg.Server.RateLimit; rl.Capacity > 0 {
		limiter = middleware.NewRateLimiter(rl.Capacity, rl.RefillPerSecond)
		defer limiter.Stop()
	}

	handler := httpserver.NewRouter(
		analysis.NewService(extractor, llm, cfg.OpenAI.MaxInputChars),
		uploads.NewService(store, application.SystemClock{}, cfg.Upload.AllowedTypes),
		appai.NewService(llm, cfg.OpenAI.MaxInputChars),
		translation.NewService(translator, middleware.ValidateLanguageCode),
		httpserver.Options{
			CORSOrigins:    cfg.Server.CORSOrigins,
			MaxBodyBytes:   cfg.MaxUploadBytes(),
			RequestTimeout: cfg.Server.RequestTimeout.Duration,
			TrustProxy:     cfg.Server.TrustProxyHeaders,
			Limiter:        limiter,
			Health: map[string]middleware.HealthChecker{
				"storage": middleware.WithTimeout(store, 2*time.Second),
			},
		},
	)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		klog.Infof("server listening on %s (model=%s, translation=%s)", addr, cfg.OpenAI.Model, cfg.Translation.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			klog.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	klog.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		klog.Errorf("shutdown error: %v", err)
	}
}

func newTranslator(ctx context.Context, cfg *config.Config, llm *openai.Client) (documents.Translator, error) {
	switch cfg.Translation.Provider {
	case "llm":
		return openai.NewTranslator(llm), nil
	case "google":
		return google.New(ctx, cfg.Translation.Endpoint)
	default:
		return nil, fmt.Errorf("unknown translation provider %q", cfg.Translation.Provider)
	}
}
