package builtin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPVideoStream_NextFrame(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Width", "4")
		w.Header().Set("X-Frame-Height", "2")
		w.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	}))
	defer srv.Close()

	s := NewHTTPVideoStream(srv.URL, nil)
	f, err := s.NextFrame(context.Background())
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, 4, f.Width)
	assert.Equal(t, 2, f.Height)
	assert.Len(t, f.Pixels, 8)
}

func TestHTTPVideoStream_NoContentIsEndOfStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	s := NewHTTPVideoStream(srv.URL, nil)
	f, err := s.NextFrame(context.Background())
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestHTTPVideoStream_ServerErrorIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewHTTPVideoStream(srv.URL, nil)
	_, err := s.NextFrame(context.Background())
	assert.Error(t, err)
}
