package relay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	// ConsumeTimeout bounds how long a dashboard waits for the relay at startup.
	ConsumeTimeout = 2 * time.Second
	publishTimeout = 60 * time.Second
)

// Client talks to a relay server.
type Client struct {
	base string
	http *http.Client
}

// NewClient accepts "host:port" or a full base URL.
func NewClient(addr string, httpClient *http.Client) *Client {
	base := strings.TrimRight(strings.TrimSpace(addr), "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{base: base, http: httpClient}
}

// Publish sends a PDF_DATA_EXTRACTED message.
func (c *Client) Publish(ctx context.Context, env Envelope) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	var reply struct {
		Status string `json:"status"`
	}
	err := c.post(ctx, Message{
		Type:          TypePDFDataExtracted,
		PDFDataBase64: env.PDFDataBase64,
		PDFURL:        env.PDFURL,
		Error:         env.Error,
	}, &reply)
	if err != nil {
		return err
	}
	if reply.Status != "ok" {
		return fmt.Errorf("relay rejected publish: status %q", reply.Status)
	}
	return nil
}

// Consume sends REQUEST_WEB_PDF. ok is false when nothing is pending. The
// call gives up after ConsumeTimeout.
func (c *Client) Consume(ctx context.Context) (Envelope, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, ConsumeTimeout)
	defer cancel()
	var reply PendingPDF
	if err := c.post(ctx, Message{Type: TypeRequestWebPDF}, &reply); err != nil {
		return Envelope{}, false, err
	}
	if reply.PublishedAt == nil {
		return Envelope{}, false, nil
	}
	return Envelope{
		PDFDataBase64: reply.PDFDataBase64,
		PDFURL:        reply.PDFURL,
		Error:         reply.Error,
		PublishedAt:   *reply.PublishedAt,
	}, true, nil
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ConsumeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("relay unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay unhealthy: %s", resp.Status)
	}
	return nil
}

func (c *Client) post(ctx context.Context, msg Message, out any) error {
	buf, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/messages", bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("relay unreachable: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("relay error: %s (%s)", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.Unmarshal(body, out)
}

// Fetch downloads a PDF by URL.
type Fetch func(ctx context.Context, url string) ([]byte, error)

// Capture plays the page observer: it reads source (a local path or an
// http(s) URL) and builds the envelope to publish. Read failures are
// carried in Envelope.Error so the dashboard can report them.
func Capture(ctx context.Context, source string, fetch Fetch) Envelope {
	source = strings.TrimSpace(source)
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = fetch(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return Envelope{PDFURL: source, Error: err.Error()}
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return Envelope{PDFURL: source, Error: "source is not a PDF document"}
	}
	return Envelope{PDFURL: source, PDFDataBase64: base64.StdEncoding.EncodeToString(data)}
}
