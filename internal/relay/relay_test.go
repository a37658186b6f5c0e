package relay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailboxConsumeBeforePublishIsEmpty(t *testing.T) {
	m := NewMailbox(0)
	_, ok := m.Consume()
	assert.False(t, ok)
}

func TestMailboxRepeatedConsumeReturnsSameValue(t *testing.T) {
	m := NewMailbox(0)
	m.Publish(Envelope{PDFDataBase64: "b", PDFURL: "u"})
	first, ok := m.Consume()
	require.True(t, ok)
	second, ok := m.Consume()
	require.True(t, ok)
	assert.Equal(t, first, second)
	assert.Equal(t, "b", second.PDFDataBase64)
	assert.Equal(t, "u", second.PDFURL)

	m.Publish(Envelope{PDFURL: "u2", Error: "blocked"})
	latest, ok := m.Consume()
	require.True(t, ok)
	assert.True(t, latest.Empty())
	assert.Equal(t, "blocked", latest.Error)

	m.Clear()
	_, ok = m.Consume()
	assert.False(t, ok)
}

func TestMailboxMaxAgeHidesStaleEntries(t *testing.T) {
	m := NewMailbox(time.Hour)
	clock := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }
	m.Publish(Envelope{PDFDataBase64: "b"})

	clock = clock.Add(30 * time.Minute)
	_, ok := m.Consume()
	assert.True(t, ok)

	clock = clock.Add(time.Hour)
	_, ok = m.Consume()
	assert.False(t, ok)
}

func newTestServer(t *testing.T) (*Mailbox, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mailbox := NewMailbox(0)
	srv := httptest.NewServer(NewServer(mailbox, nil, ServerOptions{AllowOrigins: []string{"*"}}).Handler())
	t.Cleanup(srv.Close)
	return mailbox, srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServerSpeaksMessageProtocol(t *testing.T) {
	_, srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/messages", map[string]string{"type": TypeRequestWebPDF})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var empty map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&empty))
	assert.Equal(t, "", empty["pdfDataBase64"])
	assert.NotContains(t, empty, "publishedAt")

	resp = postJSON(t, srv.URL+"/messages", map[string]string{
		"type": TypePDFDataExtracted, "pdfDataBase64": "QUJD", "pdfUrl": "https://example.com/a.pdf",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ack map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ack))
	assert.Equal(t, "ok", ack["status"])

	for i := 0; i < 2; i++ {
		resp = postJSON(t, srv.URL+"/messages", map[string]string{"type": TypeRequestWebPDF})
		var pending PendingPDF
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&pending))
		assert.Equal(t, "QUJD", pending.PDFDataBase64)
		assert.Equal(t, "https://example.com/a.pdf", pending.PDFURL)
		require.NotNil(t, pending.PublishedAt)
	}
}

func TestServerRejectsUnknownAndMalformed(t *testing.T) {
	_, srv := newTestServer(t)
	resp := postJSON(t, srv.URL+"/messages", map[string]string{"type": "PING"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	raw, err := http.Post(srv.URL+"/messages", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	defer raw.Body.Close()
	assert.Equal(t, http.StatusBadRequest, raw.StatusCode)
}

func TestServerCORSPreflight(t *testing.T) {
	_, srv := newTestServer(t)
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/messages", nil)
	req.Header.Set("Origin", "https://journals.example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestClientRoundTrip(t *testing.T) {
	_, srv := newTestServer(t)
	client := NewClient(srv.URL, srv.Client())
	ctx := context.Background()

	require.NoError(t, client.Health(ctx))
	_, ok, err := client.Consume(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, client.Publish(ctx, Envelope{PDFDataBase64: "QUJD", PDFURL: "file.pdf"}))
	env, ok, err := client.Consume(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "QUJD", env.PDFDataBase64)
	assert.False(t, env.PublishedAt.IsZero())
}

func TestClientUnreachableRelayFailsFast(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.Listener.Addr().String()
	srv.Close()

	client := NewClient(addr, nil)
	start := time.Now()
	_, ok, err := client.Consume(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), ConsumeTimeout+time.Second)
}

func TestCapture(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "notes.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-1.4 body"), 0o644))
	textPath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("hello"), 0o644))

	env := Capture(context.Background(), pdfPath, nil)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 body")), env.PDFDataBase64)
	assert.Empty(t, env.Error)

	env = Capture(context.Background(), textPath, nil)
	assert.True(t, env.Empty())
	assert.NotEmpty(t, env.Error)

	failing := func(context.Context, string) ([]byte, error) { return nil, errors.New("403 Forbidden") }
	env = Capture(context.Background(), "https://example.com/locked.pdf", failing)
	assert.Equal(t, "https://example.com/locked.pdf", env.PDFURL)
	assert.Equal(t, "403 Forbidden", env.Error)
}
