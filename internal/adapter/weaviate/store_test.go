package weaviate_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"

	adapter "knowbase/internal/adapter/weaviate"
	"knowbase/internal/worker"
)

func mockWeaviate(t *testing.T, handler http.HandlerFunc) (*weaviate.Client, *httptest.Server) {
	ts := httptest.NewServer(handler)
	cfg := weaviate.Config{Host: ts.Listener.Addr().String(), Scheme: "http"}
	client, err := weaviate.NewClient(cfg)
	assert.NoError(t, err)
	return client, ts
}

func writeMeta(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"version": "1.19.0"}`))
}

func TestStore_StoreChunk(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			writeMeta(w)
			return
		}
		assert.Equal(t, "/v1/objects", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		props := body["properties"].(map[string]interface{})
		assert.Equal(t, "test content", props["content"])
		assert.Equal(t, "doc-1", props["documentId"])
		assert.Equal(t, "bot-1", props["botId"])

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{"id": "1"})
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	chunk := worker.Chunk{
		Content:    "test content",
		Vector:     []float32{0.1, 0.2},
		DocumentID: "doc-1",
		BotID:      "bot-1",
		ChunkIndex: 0,
	}
	assert.NoError(t, store.StoreChunk(context.Background(), chunk))
}

func TestStore_DeleteByDocument(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			writeMeta(w)
			return
		}
		assert.Equal(t, "/v1/batch/objects", r.URL.Path)
		assert.Equal(t, "DELETE", r.Method)

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		match := body["match"].(map[string]interface{})
		where := match["where"].(map[string]interface{})
		assert.Equal(t, []interface{}{"documentId"}, where["path"])

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{})
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	assert.NoError(t, store.DeleteByDocument(context.Background(), "doc-1"))
}

func TestStore_DeleteByBot(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			writeMeta(w)
			return
		}
		assert.Equal(t, "/v1/batch/objects", r.URL.Path)

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		match := body["match"].(map[string]interface{})
		where := match["where"].(map[string]interface{})
		assert.Equal(t, []interface{}{"botId"}, where["path"])

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{})
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	assert.NoError(t, store.DeleteByBot(context.Background(), "bot-1"))
}

func TestStore_SearchNear(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			writeMeta(w)
			return
		}
		assert.Equal(t, "/v1/graphql", r.URL.Path)

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		query := body["query"].(string)
		assert.Contains(t, query, "nearVector")
		// Tenant isolation lives in this filter.
		assert.Contains(t, query, "botId")
		assert.Contains(t, query, "bot-1")

		w.WriteHeader(http.StatusOK)
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"Get": map[string]interface{}{
					"DocumentChunk": []interface{}{
						map[string]interface{}{
							"content":    "found content",
							"documentId": "doc-1",
							"chunkIndex": 2.0,
							"_additional": map[string]interface{}{
								"certainty": 0.93,
							},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	results, err := store.SearchNear(context.Background(), []float32{0.1, 0.2}, "bot-1", 5)
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "found content", results[0].Content)
	assert.Equal(t, "doc-1", results[0].DocumentID)
	assert.Equal(t, 2, results[0].ChunkIndex)
	assert.Equal(t, float32(0.93), results[0].Similarity)
}

func TestStore_SearchNear_StringCertainty(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			writeMeta(w)
			return
		}
		w.WriteHeader(http.StatusOK)
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"Get": map[string]interface{}{
					"DocumentChunk": []interface{}{
						map[string]interface{}{
							"content": "c",
							"_additional": map[string]interface{}{
								"certainty": "0.87",
							},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	results, err := store.SearchNear(context.Background(), []float32{0.1}, "bot-1", 5)
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, float32(0.87), results[0].Similarity)
}

func TestStore_SearchNear_UnparsableCertainty(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			writeMeta(w)
			return
		}
		w.WriteHeader(http.StatusOK)
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"Get": map[string]interface{}{
					"DocumentChunk": []interface{}{
						map[string]interface{}{
							"content": "garbage score",
							"_additional": map[string]interface{}{
								"certainty": "not-a-number",
							},
						},
						map[string]interface{}{
							"content": "good score",
							"_additional": map[string]interface{}{
								"certainty": "0.91",
							},
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	results, err := store.SearchNear(context.Background(), []float32{0.1}, "bot-1", 5)
	assert.NoError(t, err)
	// A candidate without a readable score is dropped, not returned at 0.
	assert.Len(t, results, 1)
	assert.Equal(t, "good score", results[0].Content)
	assert.Equal(t, float32(0.91), results[0].Similarity)
}

func TestStore_SearchNear_GraphQLError(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			writeMeta(w)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"errors": [{"message": "class not found"}]}`))
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	_, err := store.SearchNear(context.Background(), []float32{0.1}, "bot-1", 5)
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "graphql error"))
}

func TestStore_GetChunks(t *testing.T) {
	client, ts := mockWeaviate(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/meta" {
			writeMeta(w)
			return
		}
		assert.Equal(t, "/v1/graphql", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"Get": map[string]interface{}{
					"DocumentChunk": []interface{}{
						map[string]interface{}{
							"content":    "chunk content",
							"documentId": "doc-1",
							"botId":      "bot-1",
							"chunkIndex": 0.0,
						},
					},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})
	defer ts.Close()

	store := adapter.NewStore(client)
	chunks, err := store.GetChunks(context.Background(), "doc-1")
	assert.NoError(t, err)
	assert.Len(t, chunks, 1)
	assert.Equal(t, "chunk content", chunks[0].Content)
	assert.Equal(t, "bot-1", chunks[0].BotID)
}
