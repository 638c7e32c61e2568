package builtin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sentineld/sentinel/internal/videostream"
)

// HTTPVideoStream is an async VideoStream that GETs one raw pixel-buffer
// frame per NextFrame call from a remote endpoint — a stand-in for a real
// RTSP/ONVIF camera, grounded on the teacher's camera.CameraClient pattern
// of wrapping a remote device behind plain HTTP calls.
type HTTPVideoStream struct {
	URL    string
	Client *http.Client
}

// NewHTTPVideoStream builds a stream pulling frames from url. A nil client
// defaults to http.DefaultClient with no extra timeout beyond ctx's.
func NewHTTPVideoStream(url string, client *http.Client) *HTTPVideoStream {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPVideoStream{URL: url, Client: client}
}

// NextFrame issues one GET against URL and treats the body as a raw,
// already-decoded pixel buffer. A 204 response is end-of-stream (nil, nil);
// any other non-2xx status is a transport error.
func (h *HTTPVideoStream) NextFrame(ctx context.Context) (*videostream.Frame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("builtin: http video stream: %w", err)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("builtin: http video stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("builtin: http video stream: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("builtin: http video stream: read body: %w", err)
	}

	width, height := 0, 0
	if w := resp.Header.Get("X-Frame-Width"); w != "" {
		fmt.Sscanf(w, "%d", &width)
	}
	if hh := resp.Header.Get("X-Frame-Height"); hh != "" {
		fmt.Sscanf(hh, "%d", &height)
	}

	return &videostream.Frame{
		CapturedAt: time.Now(),
		Width:      width,
		Height:     height,
		Pixels:     body,
	}, nil
}

// CleanUp closes idle connections on the underlying client's transport.
func (h *HTTPVideoStream) CleanUp(ctx context.Context) error {
	h.Client.CloseIdleConnections()
	return nil
}
