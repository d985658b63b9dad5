// Package weaviate persists document chunks and serves bot-scoped vector
// search on top of the DocumentChunk class.
package weaviate

import (
	"context"
	"fmt"
	"strconv"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"knowbase/internal/retrieval"
	"knowbase/internal/vector"
	"knowbase/internal/worker"
)

type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

// EnsureSchema creates or patches the DocumentChunk class.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return vector.EnsureSchema(ctx, vector.NewWeaviateClientAdapter(s.client))
}

func (s *Store) StoreChunk(ctx context.Context, chunk worker.Chunk) error {
	_, err := s.client.Data().Creator().
		WithClassName(vector.ClassDocumentChunk).
		WithProperties(map[string]interface{}{
			"content":    chunk.Content,
			"documentId": chunk.DocumentID,
			"botId":      chunk.BotID,
			"chunkIndex": chunk.ChunkIndex,
		}).
		WithVector(chunk.Vector).
		Do(ctx)
	return err
}

// DeleteByDocument purges every chunk belonging to one document.
func (s *Store) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassDocumentChunk).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{"documentId"}).
			WithOperator(filters.Equal).
			WithValueString(documentID)).
		Do(ctx)
	return err
}

// DeleteByBot purges every chunk belonging to one bot, including chunks whose
// document row is already gone.
func (s *Store) DeleteByBot(ctx context.Context, botID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassDocumentChunk).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithPath([]string{"botId"}).
			WithOperator(filters.Equal).
			WithValueString(botID)).
		Do(ctx)
	return err
}

// SearchNear runs a nearVector query restricted to one bot's chunks. The
// botId filter is not optional: it is what keeps tenants isolated.
func (s *Store) SearchNear(ctx context.Context, vec []float32, botID string, limit int) ([]retrieval.Result, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vec)

	where := filters.Where().
		WithPath([]string{"botId"}).
		WithOperator(filters.Equal).
		WithValueString(botID)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "documentId"},
		{Name: "chunkIndex"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassDocumentChunk).
		WithNearVector(nearVector).
		WithWhere(where).
		WithLimit(limit).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var results []retrieval.Result
	if data, ok := res.Data["Get"].(map[string]interface{}); ok {
		if chunks, ok := data[vector.ClassDocumentChunk].([]interface{}); ok {
			for _, c := range chunks {
				props, ok := c.(map[string]interface{})
				if !ok {
					continue
				}
				var result retrieval.Result
				if content, ok := props["content"].(string); ok {
					result.Content = content
				}
				if documentID, ok := props["documentId"].(string); ok {
					result.DocumentID = documentID
				}
				if chunkIndex, ok := props["chunkIndex"].(float64); ok {
					result.ChunkIndex = int(chunkIndex)
				}
				if additional, ok := props["_additional"].(map[string]interface{}); ok {
					// Certainty decodes as float64 normally, but some server
					// versions serialize _additional values as strings.
					switch certainty := additional["certainty"].(type) {
					case float64:
						result.Similarity = float32(certainty)
					case string:
						f, err := strconv.ParseFloat(certainty, 32)
						if err != nil {
							// A candidate without a readable score cannot be
							// thresholded; drop it.
							continue
						}
						result.Similarity = float32(f)
					}
				}
				results = append(results, result)
			}
		}
	}
	return results, nil
}

// GetChunks lists one document's chunks, used for inspection endpoints.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]worker.Chunk, error) {
	fields := []graphql.Field{
		{Name: "content"},
		{Name: "documentId"},
		{Name: "botId"},
		{Name: "chunkIndex"},
	}

	where := filters.Where().
		WithPath([]string{"documentId"}).
		WithOperator(filters.Equal).
		WithValueString(documentID)

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassDocumentChunk).
		WithWhere(where).
		WithLimit(1000).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var chunks []worker.Chunk
	if data, ok := res.Data["Get"].(map[string]interface{}); ok {
		if rawChunks, ok := data[vector.ClassDocumentChunk].([]interface{}); ok {
			for _, c := range rawChunks {
				props, ok := c.(map[string]interface{})
				if !ok {
					continue
				}
				chunk := worker.Chunk{}
				if content, ok := props["content"].(string); ok {
					chunk.Content = content
				}
				if documentID, ok := props["documentId"].(string); ok {
					chunk.DocumentID = documentID
				}
				if botID, ok := props["botId"].(string); ok {
					chunk.BotID = botID
				}
				if idx, ok := props["chunkIndex"].(float64); ok {
					chunk.ChunkIndex = int(idx)
				}
				chunks = append(chunks, chunk)
			}
		}
	}
	return chunks, nil
}
