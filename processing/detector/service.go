package detector

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"vpdetect/internal/models"
	"vpdetect/internal/source"
)

const DefaultFormField = "image"

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// RemoteDetector submits one image per call to a detection service. http and
// https endpoints get a multipart POST, ws and wss endpoints a single
// websocket exchange. There is no retry: one call, one attempt.
type RemoteDetector struct {
	endpoint  *url.URL
	formField string
	timeout   time.Duration

	httpClient *http.Client
	dialer     *websocket.Dialer
}

type Option func(*RemoteDetector)

// WithFormField overrides the multipart field carrying the image.
func WithFormField(name string) Option {
	return func(d *RemoteDetector) {
		if name != "" {
			d.formField = name
		}
	}
}

// WithTimeout bounds each request. Zero means no timeout. It applies on top
// of any client passed to WithHTTPClient, whatever the option order.
func WithTimeout(timeout time.Duration) Option {
	return func(d *RemoteDetector) {
		d.timeout = timeout
	}
}

// WithHTTPClient sends requests through c. c itself is never modified.
func WithHTTPClient(c *http.Client) Option {
	return func(d *RemoteDetector) {
		if c != nil {
			d.httpClient = c
		}
	}
}

func NewRemoteDetector(endpoint string, opts ...Option) (*RemoteDetector, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, fmt.Errorf("invalid endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid endpoint %q: missing host", endpoint)
	}

	d := &RemoteDetector{
		endpoint:   u,
		formField:  DefaultFormField,
		httpClient: &http.Client{},
		dialer:     &websocket.Dialer{Proxy: http.ProxyFromEnvironment},
	}
	for _, opt := range opts {
		opt(d)
	}

	if d.timeout > 0 {
		client := *d.httpClient
		client.Timeout = d.timeout
		d.httpClient = &client
		d.dialer.HandshakeTimeout = d.timeout
	}

	return d, nil
}

func (d *RemoteDetector) Endpoint() string {
	return d.endpoint.String()
}

// Detect sends img to the service and maps the outcome onto a Result.
// Failures never escape as errors; they become TransportError values.
func (d *RemoteDetector) Detect(ctx context.Context, img source.SelectedImage) models.Result {
	start := time.Now()

	var (
		body []byte
		err  error
	)
	switch d.endpoint.Scheme {
	case "ws", "wss":
		body, err = d.exchange(ctx, img.File)
	default:
		body, err = d.post(ctx, img.File)
	}

	if err != nil {
		slog.Debug("detection failed", "endpoint", d.endpoint.String(), "file", img.File.Name, "error", err)
		return models.TransportError{Message: err.Error()}
	}

	res := ParseResponse(body)
	slog.Debug("detection finished",
		"endpoint", d.endpoint.String(),
		"file", img.File.Name,
		"result", fmt.Sprintf("%T", res),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return res
}

func (d *RemoteDetector) post(ctx context.Context, f source.File) ([]byte, error) {
	payload, contentType, err := d.multipartBody(f)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint.String(), payload)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("http error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func (d *RemoteDetector) multipartBody(f source.File) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(d.formField), quoteEscaper.Replace(f.Name)))
	h.Set("Content-Type", http.DetectContentType(f.Data))

	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, "", fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

// exchange sends the raw image as one binary message and waits for one reply.
func (d *RemoteDetector) exchange(ctx context.Context, f source.File) ([]byte, error) {
	conn, resp, err := d.dialer.DialContext(ctx, d.endpoint.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.BinaryMessage, f.Data); err != nil {
		return nil, fmt.Errorf("websocket write: %w", err)
	}

	if d.timeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(d.timeout)); err != nil {
			return nil, fmt.Errorf("websocket deadline: %w", err)
		}
	}
	_, message, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("websocket read: %w", err)
	}

	// The reply is already in hand; a failed close only matters for diagnostics.
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteMessage(websocket.CloseMessage, closeMsg); err != nil {
		slog.Debug("websocket close failed", "endpoint", d.endpoint.String(), "error", err)
	}
	return message, nil
}
