package geocode

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах
	// Без Redis: кэш отключен, тестируем только HTTP-путь
	return NewClient(baseURL, 5*time.Second, nil, logger)
}

func TestLookup_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "123 Main St", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat": "27.9506", "lon": "-82.4572"}]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	point, err := client.Lookup(context.Background(), "123 Main St")

	require.NoError(t, err)
	assert.Equal(t, 27.9506, point.Latitude)
	assert.Equal(t, -82.4572, point.Longitude)
}

func TestLookup_NoResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	point, err := client.Lookup(context.Background(), "nowhere at all")

	require.Error(t, err)
	assert.Nil(t, point)
	assert.ErrorIs(t, err, ErrNoResult)
}

func TestLookup_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	point, err := client.Lookup(context.Background(), "123 Main St")

	require.Error(t, err)
	assert.Nil(t, point)
	assert.ErrorContains(t, err, "unexpected status 502")
}

func TestLookup_MalformedCoordinates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat": "not-a-number", "lon": "-82.45"}]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	point, err := client.Lookup(context.Background(), "123 Main St")

	require.Error(t, err)
	assert.Nil(t, point)
	assert.ErrorContains(t, err, "parse latitude")
}
