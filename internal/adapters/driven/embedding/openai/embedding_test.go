package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quill/internal/core/domain"
)

// embeddingServer returns [len(input), index] for each input, in reverse order.
func embeddingServer(t *testing.T, requests *[]embeddingRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*requests = append(*requests, req)

		type item struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		}
		data := make([]item, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, item{Embedding: []float32{float32(len(req.Input[i])), float32(i)}, Index: i})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewEmbeddingService_RequiresKey(t *testing.T) {
	_, err := NewEmbeddingService(Config{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "sk"})
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", svc.ModelName())
	assert.Equal(t, 1536, svc.Dimensions())
}

func TestEmbedBatch_OrdersByIndexAndBatches(t *testing.T) {
	var requests []embeddingRequest
	srv := embeddingServer(t, &requests)

	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: srv.URL + "/", Model: "custom", BatchSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 0, svc.Dimensions())

	got, err := svc.EmbedBatch(context.Background(), []string{"a", "bb", "", "dddd"})
	require.NoError(t, err)

	require.Len(t, got, 4)
	assert.Equal(t, []float32{1, 0}, got[0])
	assert.Equal(t, []float32{2, 1}, got[1])
	assert.Equal(t, []float32{1, 0}, got[2])
	assert.Equal(t, []float32{4, 1}, got[3])

	require.Len(t, requests, 2)
	assert.Equal(t, " ", requests[1].Input[0])
	assert.Equal(t, "custom", requests[0].Model)
	assert.Equal(t, 2, svc.Dimensions())
}

func TestEmbed_Single(t *testing.T) {
	var requests []embeddingRequest
	srv := embeddingServer(t, &requests)

	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	vec, err := svc.Embed(context.Background(), "dragão")
	require.NoError(t, err)
	assert.Equal(t, []float32{float32(len("dragão")), 0}, vec)
}

func TestEmbedBatch_Empty(t *testing.T) {
	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	got, err := svc.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEmbed_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		is     error
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down","type":"requests"}}`, domain.ErrRateLimited},
		{"api error", http.StatusUnauthorized, `{"error":{"message":"bad key","type":"auth"}}`, nil},
		{"not json", http.StatusBadGateway, `<html>`, nil},
		{"missing data", http.StatusOK, `{"data":[]}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: srv.URL})
			require.NoError(t, err)

			_, err = svc.Embed(context.Background(), "x")
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	svc, err := NewEmbeddingService(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.NoError(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}
