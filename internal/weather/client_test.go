package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent_NoAPIKey(t *testing.T) {
	client := NewClient("", "Tampa,FL", 5*time.Second)

	conditions, err := client.Current(context.Background())

	require.Error(t, err)
	assert.Nil(t, conditions)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestCurrent_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Tampa,FL", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"main": {"temp": 28.5, "humidity": 70},
			"weather": [{"description": "scattered clouds"}],
			"wind": {"speed": 4.2}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", "Tampa,FL", 5*time.Second)
	client.baseURL = server.URL

	conditions, err := client.Current(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 28.5, conditions.Temp)
	assert.Equal(t, 70, conditions.Humidity)
	assert.Equal(t, 4.2, conditions.WindSpeed)
	assert.Equal(t, "Scattered Clouds", conditions.Description)
}

func TestCurrent_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("bad-key", "Tampa,FL", 5*time.Second)
	client.baseURL = server.URL

	conditions, err := client.Current(context.Background())

	require.Error(t, err)
	assert.Nil(t, conditions)
	assert.ErrorIs(t, err, ErrUnavailable)
}
