package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port              int      `yaml:"port"`
		ReadTimeout       Duration `yaml:"readTimeout"`
		WriteTimeout      Duration `yaml:"writeTimeout"`
		RequestTimeout    Duration `yaml:"requestTimeout"`
		MaxUploadMB       int64    `yaml:"maxUploadMB"`
		CORSOrigins       []string `yaml:"corsOrigins"`
		// TrustProxyHeaders takes client addresses from X-Forwarded-For. Only set behind a proxy.
		TrustProxyHeaders bool     `yaml:"trustProxyHeaders"`
		RateLimit         struct {
			Capacity        int `yaml:"capacity"`
			RefillPerSecond int `yaml:"refillPerSecond"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	// Storage is any S3-compatible endpoint: MinIO locally, storage.googleapis.com with HMAC keys in GCP.
	Storage struct {
		Endpoint      string `yaml:"endpoint"`
		AccessKey     string `yaml:"accessKey"`
		SecretKey     string `yaml:"secretKey"`
		BucketName    string `yaml:"bucketName"`
		Region        string `yaml:"region"`
		UseSSL        bool   `yaml:"useSSL"`
		LocatorScheme string `yaml:"locatorScheme"`
	} `yaml:"storage"`

	OpenAI struct {
		APIKey        string `yaml:"apiKey"`
		BaseURL       string `yaml:"baseURL"`
		Model         string `yaml:"model"`
		MaxTokens     int    `yaml:"maxTokens"`
		MaxInputChars int    `yaml:"maxInputChars"`
	} `yaml:"openai"`

	DocumentAI struct {
		Project       string `yaml:"project"`
		Location      string `yaml:"location"`
		Processor     string `yaml:"processor"`
		Endpoint      string `yaml:"endpoint"`
		InlineContent bool   `yaml:"inlineContent"`
	} `yaml:"documentAI"`

	Translation struct {
		Provider string `yaml:"provider"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"translation"`

	Upload struct {
		AllowedTypes []string `yaml:"allowedTypes"`
	} `yaml:"upload"`
}

// Duration decodes "30s" style strings.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = v
	return nil
}

// Load reads an optional .env, then the YAML file at path. ${VAR} references in the
// file are expanded from the environment so secrets can stay out of it.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes raw YAML, expands env references and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.ReadTimeout.Duration == 0 {
		c.Server.ReadTimeout.Duration = 15 * time.Second
	}
	// analysis chains several model calls; keep the write deadline above the request timeout
	if c.Server.RequestTimeout.Duration == 0 {
		c.Server.RequestTimeout.Duration = 120 * time.Second
	}
	if c.Server.WriteTimeout.Duration == 0 {
		c.Server.WriteTimeout.Duration = c.Server.RequestTimeout.Duration + 10*time.Second
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 20
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Storage.LocatorScheme == "" {
		c.Storage.LocatorScheme = "gs"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.MaxTokens == 0 {
		c.OpenAI.MaxTokens = 2048
	}
	if c.OpenAI.MaxInputChars == 0 {
		c.OpenAI.MaxInputChars = 100000
	}
	if c.DocumentAI.Location == "" {
		c.DocumentAI.Location = "us"
	}
	if c.Translation.Provider == "" {
		c.Translation.Provider = "google"
	}
	if len(c.Upload.AllowedTypes) == 0 {
		c.Upload.AllowedTypes = []string{
			"application/pdf",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"text/plain",
			"image/png",
			"image/jpeg",
			"image/tiff",
			"image/gif",
			"image/bmp",
			"image/webp",
		}
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	require := func(v, name string) {
		if strings.TrimSpace(v) == "" {
			errs = append(errs, fmt.Errorf("%s is required", name))
		}
	}
	require(c.Storage.Endpoint, "storage.endpoint")
	require(c.Storage.BucketName, "storage.bucketName")
	require(c.OpenAI.APIKey, "openai.apiKey")
	require(c.DocumentAI.Project, "documentAI.project")
	require(c.DocumentAI.Processor, "documentAI.processor")

	switch c.Translation.Provider {
	case "google", "llm":
	default:
		errs = append(errs, fmt.Errorf("translation.provider must be google or llm, got %q", c.Translation.Provider))
	}
	if c.Server.RateLimit.Capacity < 0 || c.Server.RateLimit.RefillPerSecond < 0 {
		errs = append(errs, errors.New("server.rateLimit values must not be negative"))
	}
	return errors.Join(errs...)
}

// MaxUploadBytes is the multipart body limit.
func (c *Config) MaxUploadBytes() int64 {
	return c.Server.MaxUploadMB << 20
}
