package uploads

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"github.com/lexplain/docanalyzer/internal/application"
	"github.com/lexplain/docanalyzer/internal/domain/documents"
)

// sniffLen is how much of the body http.DetectContentType looks at.
const sniffLen = 512

var safeExt = regexp.MustCompile(`^\.[a-z0-9]{1,10}$`)

// documentTypes covers extensions the mime package only knows from host tables.
var documentTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
}

// Service stores uploaded documents so they can later be analysed by locator.
type Service struct {
	Store   documents.BlobStore
	Clock   application.Clock
	Allowed map[string]bool
}

func NewService(store documents.BlobStore, clock application.Clock, allowed []string) *Service {
	if clock == nil {
		clock = application.SystemClock{}
	}
	set := make(map[string]bool, len(allowed))
	for _, t := range allowed {
		set[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return &Service{Store: store, Clock: clock, Allowed: set}
}

// UploadCommand describes one multipart file part.
type UploadCommand struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type UploadResult struct {
	Locator  documents.Locator `json:"gcs_uri"`
	MimeType string            `json:"mime_type"`
}

// Upload resolves the media type, checks it against the allow-list and stores the body under
// uploads/YYYY/MM/DD/<uuid><ext>.
func (s *Service) Upload(ctx context.Context, cmd UploadCommand) (UploadResult, error) {
	name := strings.TrimSpace(filepath.Base(cmd.Filename))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return UploadResult{}, documents.Invalid("No selected file")
	}
	if cmd.Body == nil || cmd.Size == 0 {
		return UploadResult{}, documents.Invalid("No file part")
	}

	ext := strings.ToLower(filepath.Ext(name))
	br := bufio.NewReaderSize(cmd.Body, sniffLen)
	mimeType := resolveType(cmd.ContentType, ext, br)
	if len(s.Allowed) > 0 && !s.Allowed[mimeType] {
		return UploadResult{}, documents.Invalid("Unsupported file type: %s", mimeType)
	}

	if !safeExt.MatchString(ext) {
		ext = ""
	}
	key := fmt.Sprintf("uploads/%s/%s%s", s.Clock.Now().Format("2006/01/02"), uuid.NewString(), ext)
	loc, err := s.Store.Put(ctx, br, cmd.Size, key, mimeType)
	if err != nil {
		return UploadResult{}, fmt.Errorf("store upload: %w", err)
	}
	klog.V(6).Infof("[Uploads] stored %q as %s (%s, %d bytes)", name, loc, mimeType, cmd.Size)
	return UploadResult{Locator: loc, MimeType: mimeType}, nil
}

// resolveType trusts an explicit part header first, then the extension, then the content.
func resolveType(header, ext string, br *bufio.Reader) string {
	if t := normalize(header); t != "" && t != "application/octet-stream" {
		return t
	}
	if t, ok := documentTypes[ext]; ok {
		return t
	}
	if t := normalize(mime.TypeByExtension(ext)); t != "" {
		return t
	}
	head, _ := br.Peek(sniffLen)
	return normalize(http.DetectContentType(head))
}

func normalize(contentType string) string {
	if contentType == "" {
		return ""
	}
	t, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(t)
}
