package google

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/lexplain/docanalyzer/internal/domain/documents"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), srv.URL+"/language/translate/", option.WithoutAuthentication())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// upperServer "translates" by upper-casing and counts requests.
func upperServer(t *testing.T, calls *int32) *Client {
	return newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/language/translate/v2", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "text", r.Form.Get("format"))

		var items []string
		for _, q := range r.Form["q"] {
			items = append(items, fmt.Sprintf(`{"translatedText":%q}`, r.Form.Get("target")+":"+strings.ToUpper(q)))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":{"translations":[%s]}}`, strings.Join(items, ","))
	})
}

func TestTranslatePreservesOrderAcrossBatches(t *testing.T) {
	var calls int32
	c := upperServer(t, &calls)

	texts := make([]string, 300)
	for i := range texts {
		texts[i] = fmt.Sprintf("t%d", i)
	}
	out, err := c.Translate(context.Background(), texts, "fr")
	require.NoError(t, err)
	require.Len(t, out, 300)
	assert.Equal(t, "fr:T0", out[0])
	assert.Equal(t, "fr:T299", out[299])
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestBatchesRespectCharacterBudget(t *testing.T) {
	long := strings.Repeat("a", maxBatchChars-10)
	got := batches([]string{long, "0123456789x", "b", strings.Repeat("c", maxBatchChars+1)})
	require.Len(t, got, 3)
	assert.Equal(t, []string{long}, got[0])
	assert.Equal(t, []string{"0123456789x", "b"}, got[1])
	assert.Len(t, got[2], 1)
}

func TestTranslateUnescapesEntities(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"translations":[{"translatedText":"l&#39;accord"}]}}`))
	})
	out, err := c.Translate(context.Background(), []string{"the agreement"}, "fr")
	require.NoError(t, err)
	assert.Equal(t, []string{"l'accord"}, out)
}

func TestTranslateErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Invalid Value"}}`))
	})
	_, err := c.Translate(context.Background(), []string{"Hello"}, "fr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Value")

	_, err = c.Translate(context.Background(), []string{"Hello"}, "not a language")
	assert.ErrorIs(t, err, documents.ErrInvalidInput)
}

func TestTranslateRejectsShortResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"translations":[{"translatedText":"un"}]}}`))
	})
	_, err := c.Translate(context.Background(), []string{"one", "two"}, "fr")
	assert.Error(t, err)
}
