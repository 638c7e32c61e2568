package builtin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentineld/sentinel/internal/videostream"
)

func TestRemoteDetector_ParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req remoteDetectRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "uint8", req.DType)
		assert.NotEmpty(t, req.FrameBase64)

		resp := remoteDetectResponse{
			Detections: []remoteDetection{
				{
					PredCategories: []remotePredCategory{{Name: "person", Score: 0.9}},
					BoundingBox:    remoteBoundingBox{X: 1, Y: 1, Width: 3, Height: 3},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	d := NewRemoteDetector(srv.URL, "", nil)
	frame := videostream.Frame{Width: 10, Height: 10, Channels: 1, Pixels: make([]byte, 100)}
	result, err := d.Detect(context.Background(), frame)
	require.NoError(t, err)
	require.Len(t, result.Detections, 1)
	assert.Equal(t, "person", result.Detections[0].Categories[0].Name)
	assert.Equal(t, 3, result.Detections[0].Width)
}

func TestRemoteDetector_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewRemoteDetector(srv.URL, "", nil)
	_, err := d.Detect(context.Background(), videostream.Frame{})
	assert.Error(t, err)
}
