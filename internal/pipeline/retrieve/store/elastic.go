// internal/pipeline/retrieve/store/elastic.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// ElasticStore indexes one document per chunk keyed by record ID, so
// writes are inherently overwrites. Search runs a kNN query against a
// dense_vector field with cosine similarity; distance is 1 - score.
type ElasticStore struct {
	client *elasticsearch.Client
	index  string
	dims   int
}

var _ VectorStore = (*ElasticStore)(nil)

type chunkDoc struct {
	Content      string    `json:"content"`
	DocumentType string    `json:"document_type"`
	Source       string    `json:"source"`
	ChunkIndex   int       `json:"chunk_index"`
	Embedding    []float32 `json:"embedding,omitempty"`
}

func NewElasticStore(client *elasticsearch.Client, index string, dims int) (*ElasticStore, error) {
	s := &ElasticStore{client: client, index: index, dims: dims}
	if err := s.ensureIndex(context.Background()); err != nil {
		return nil, fmt.Errorf("ensuring index: %w", err)
	}
	return s, nil
}

func (s *ElasticStore) ensureIndex(ctx context.Context) error {
	existsReq := esapi.IndicesExistsRequest{Index: []string{s.index}}
	res, err := existsReq.Do(ctx, s.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("index check failed: %s", res.String())
	}

	mapping := fmt.Sprintf(`{
		"mappings": {
			"properties": {
				"content": {"type": "text"},
				"document_type": {"type": "keyword"},
				"source": {"type": "keyword"},
				"chunk_index": {"type": "integer"},
				"embedding": {
					"type": "dense_vector",
					"dims": %d,
					"index": true,
					"similarity": "cosine"
				}
			}
		}
	}`, s.dims)

	createReq := esapi.IndicesCreateRequest{
		Index: s.index,
		Body:  bytes.NewReader([]byte(mapping)),
	}
	createRes, err := createReq.Do(ctx, s.client)
	if err != nil {
		return err
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("index creation failed: %s", createRes.String())
	}
	return nil
}

func (s *ElasticStore) Upsert(ctx context.Context, records []Record) error {
	for _, r := range records {
		doc, err := json.Marshal(chunkDoc{
			Content:      r.Content,
			DocumentType: r.DocumentType,
			Source:       r.Source,
			ChunkIndex:   r.ChunkIndex,
			Embedding:    r.Vector,
		})
		if err != nil {
			return fmt.Errorf("encoding chunk %s: %w", r.ID, err)
		}

		req := esapi.IndexRequest{
			Index:      s.index,
			DocumentID: r.ID,
			Body:       bytes.NewReader(doc),
			Refresh:    "true",
		}
		res, err := req.Do(ctx, s.client)
		if err != nil {
			return fmt.Errorf("indexing chunk %s: %w", r.ID, err)
		}
		res.Body.Close()

		if res.IsError() {
			return fmt.Errorf("indexing chunk %s failed: %s", r.ID, res.String())
		}
	}
	return nil
}

func (s *ElasticStore) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	numCandidates := k * 10
	if numCandidates < 100 {
		numCandidates = 100
	}

	searchBody := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "embedding",
			"query_vector":   vector,
			"k":              k,
			"num_candidates": numCandidates,
		},
		"_source": []string{"content", "document_type", "source", "chunk_index"},
		"size":    k,
	}
	body, _ := json.Marshal(searchBody)

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search query failed: %s", res.String())
	}

	var sr struct {
		Hits struct {
			Hits []struct {
				ID     string   `json:"_id"`
				Score  float64  `json:"_score"`
				Source chunkDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	matches := make([]Match, 0, len(sr.Hits.Hits))
	for _, hit := range sr.Hits.Hits {
		matches = append(matches, Match{
			Record: Record{
				ID:           hit.ID,
				Content:      hit.Source.Content,
				DocumentType: hit.Source.DocumentType,
				Source:       hit.Source.Source,
				ChunkIndex:   hit.Source.ChunkIndex,
			},
			Distance: 1 - hit.Score,
		})
	}
	return matches, nil
}

func (s *ElasticStore) Clear(ctx context.Context) error {
	body := []byte(`{"query":{"match_all":{}}}`)
	req := esapi.DeleteByQueryRequest{
		Index:   []string{s.index},
		Body:    bytes.NewReader(body),
		Refresh: esapi.BoolPtr(true),
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("clear failed: %s", res.String())
	}
	return nil
}

func (s *ElasticStore) Count(ctx context.Context) (int, error) {
	req := esapi.CountRequest{Index: []string{s.index}}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, fmt.Errorf("count failed: %s", res.String())
	}

	var cr struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(res.Body).Decode(&cr); err != nil {
		return 0, fmt.Errorf("decoding count response: %w", err)
	}
	return cr.Count, nil
}

// Close is a no-op; the Elasticsearch client does not hold connections
// that need explicit shutdown.
func (s *ElasticStore) Close() error {
	return nil
}
