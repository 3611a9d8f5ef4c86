package alphavantage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dailyPayload = `{
  "Meta Data": {"2. Symbol": "IBM"},
  "Time Series (Daily)": {
    "2026-08-28": {
      "1. open": "100.00", "2. high": "105.00", "3. low": "99.00",
      "4. close": "104.00", "5. volume": "1200345"
    }
  }
}`

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	all := append([]Option{WithBaseURL(baseURL), WithAPIKey("test-key"), WithMaxRetries(1)}, opts...)
	client, err := NewClient(all...)
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv(apiKeyEnv, "")
	_, err := NewClient()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")
}

func TestNewClientRejectsBadOutputSize(t *testing.T) {
	_, err := NewClient(WithAPIKey("k"), WithOutputSize("huge"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output size")
}

func TestFetchDaily(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, functionDaily, q.Get("function"))
		assert.Equal(t, "IBM", q.Get("symbol"))
		assert.Equal(t, "test-key", q.Get("apikey"))
		assert.Equal(t, OutputSizeCompact, q.Get("outputsize"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(dailyPayload))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	body, err := client.FetchDaily(context.Background(), "ibm")
	require.NoError(t, err)
	assert.Equal(t, dailyPayload, string(body))
}

func TestFetchDailyEmptySymbol(t *testing.T) {
	client := newTestClient(t, "http://unused.invalid")
	_, err := client.FetchDaily(context.Background(), "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol cannot be empty")
}

func TestFetchDailySoftErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name:    "rejected symbol",
			body:    `{"Error Message": "Invalid API call."}`,
			wantErr: "request rejected",
		},
		{
			name:    "rate limit note",
			body:    `{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`,
			wantErr: "request throttled",
		},
		{
			name:    "premium information",
			body:    `{"Information": "This endpoint requires a premium plan."}`,
			wantErr: "request refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)
			_, err := client.FetchDaily(context.Background(), "IBM")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFetchDailyRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(dailyPayload))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithMaxRetries(3))
	body, err := client.FetchDaily(context.Background(), "IBM")
	require.NoError(t, err)
	assert.Equal(t, dailyPayload, string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchDailyDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, WithMaxRetries(3))
	_, err := client.FetchDaily(context.Background(), "IBM")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 403")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchDailyHonoursContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := newTestClient(t, server.URL, WithMaxRetries(10))
	_, err := client.FetchDaily(ctx, "IBM")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
