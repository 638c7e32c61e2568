package builtin

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sentineld/sentinel/internal/detector"
	"github.com/sentineld/sentinel/internal/videostream"
)

// RemoteDetector is an async Detector implementing spec.md's remote
// detector wire protocol: POST {frame_base64, dtype, shape} to URL,
// receive {detections: [...]}.
type RemoteDetector struct {
	URL    string
	DType  string
	Client *http.Client
}

// NewRemoteDetector builds a detector posting frames to url. dtype names
// the pixel encoding sent in the request body (e.g. "uint8"); a zero value
// defaults to "uint8". A nil client defaults to http.DefaultClient.
func NewRemoteDetector(url, dtype string, client *http.Client) *RemoteDetector {
	if dtype == "" {
		dtype = "uint8"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &RemoteDetector{URL: url, DType: dtype, Client: client}
}

type remoteDetectRequest struct {
	FrameBase64 string `json:"frame_base64"`
	DType       string `json:"dtype"`
	Shape       []int  `json:"shape"`
}

type remoteBoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type remotePredCategory struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type remoteDetection struct {
	PredCategories []remotePredCategory `json:"pred_categories"`
	BoundingBox    remoteBoundingBox    `json:"bounding_box"`
}

type remoteDetectResponse struct {
	Detections []remoteDetection `json:"detections"`
}

func (r *RemoteDetector) Detect(ctx context.Context, f videostream.Frame) (detector.DetectionResult, error) {
	reqBody := remoteDetectRequest{
		FrameBase64: base64.StdEncoding.EncodeToString(f.Pixels),
		DType:       r.DType,
		Shape:       []int{f.Height, f.Width, f.Channels},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return detector.DetectionResult{}, fmt.Errorf("builtin: remote detector: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(payload))
	if err != nil {
		return detector.DetectionResult{}, fmt.Errorf("builtin: remote detector: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return detector.DetectionResult{}, fmt.Errorf("builtin: remote detector: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return detector.DetectionResult{}, fmt.Errorf("builtin: remote detector: unexpected status %d", resp.StatusCode)
	}

	var body remoteDetectResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return detector.DetectionResult{}, fmt.Errorf("builtin: remote detector: decode response: %w", err)
	}

	result := detector.DetectionResult{Frame: f}
	for _, d := range body.Detections {
		cats := make([]detector.Category, 0, len(d.PredCategories))
		for _, c := range d.PredCategories {
			score := c.Score
			cats = append(cats, detector.Category{Name: c.Name, Score: &score})
		}
		result.Detections = append(result.Detections, detector.Detection{
			X:          d.BoundingBox.X,
			Y:          d.BoundingBox.Y,
			Width:      d.BoundingBox.Width,
			Height:     d.BoundingBox.Height,
			Categories: cats,
		})
	}
	return result, nil
}
