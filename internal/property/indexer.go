package property

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"realestate_backend/internal/config"
	"realestate_backend/internal/platform/elasticsearch"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"
)

// maxSearchHits caps how many ids a free-text search hands to the repository.
const maxSearchHits = 1000

// Indexer keeps a search index of properties.
type Indexer interface {
	Enabled() bool
	Index(ctx context.Context, p *Property) error
	Delete(ctx context.Context, id string) error
	// BulkIndex returns how many documents the index rejected.
	BulkIndex(ctx context.Context, ps []Property) (int, error)
	// Search returns the ids of properties matching term, best match first.
	Search(ctx context.Context, term string) ([]string, error)
}

// IndexMapping is the mapping the properties index is created with.
var IndexMapping = map[string]interface{}{
	"settings": map[string]interface{}{
		"number_of_shards":   1,
		"number_of_replicas": 0,
	},
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"propertyId":   map[string]interface{}{"type": "keyword"},
			"slug":         map[string]interface{}{"type": "keyword"},
			"title":        map[string]interface{}{"type": "text"},
			"description":  map[string]interface{}{"type": "text"},
			"city":         map[string]interface{}{"type": "text", "fields": map[string]interface{}{"keyword": map[string]interface{}{"type": "keyword"}}},
			"address":      map[string]interface{}{"type": "text"},
			"state":        map[string]interface{}{"type": "keyword"},
			"country":      map[string]interface{}{"type": "keyword"},
			"propertyType": map[string]interface{}{"type": "keyword"},
			"listingType":  map[string]interface{}{"type": "keyword"},
			"status":       map[string]interface{}{"type": "keyword"},
			"price":        map[string]interface{}{"type": "double"},
			"bedrooms":     map[string]interface{}{"type": "integer"},
			"bathrooms":    map[string]interface{}{"type": "integer"},
			"amenities":    map[string]interface{}{"type": "keyword"},
			"featured":     map[string]interface{}{"type": "boolean"},
			"location":     map[string]interface{}{"type": "geo_point"},
			"createdAt":    map[string]interface{}{"type": "date"},
		},
	},
}

// ToSearchDocument converts a property to its index document.
func ToSearchDocument(p *Property) map[string]interface{} {
	doc := map[string]interface{}{
		"propertyId":   p.PropertyID,
		"slug":         p.Slug,
		"title":        p.Title,
		"description":  p.Description,
		"city":         p.Location.City,
		"address":      p.Location.Address,
		"state":        p.Location.State,
		"country":      p.Location.Country,
		"propertyType": p.PropertyType,
		"listingType":  p.ListingType,
		"status":       p.Status,
		"price":        p.Price,
		"bedrooms":     p.Bedrooms,
		"bathrooms":    p.Bathrooms,
		"amenities":    nonNil(p.Amenities),
		"featured":     p.Featured,
		"createdAt":    p.CreatedAt,
	}
	if p.Location.Latitude != 0 || p.Location.Longitude != 0 {
		doc["location"] = map[string]float64{"lat": p.Location.Latitude, "lon": p.Location.Longitude}
	}
	return doc
}

type esIndexer struct {
	client *elasticsearch.ESClientWrapper
	index  string
	logger *zap.Logger
}

// NewIndexer returns an Elasticsearch backed indexer, or a no-op one when
// client is nil.
func NewIndexer(client *elasticsearch.ESClientWrapper, cfg *config.Config, logger *zap.Logger) Indexer {
	if client == nil {
		return NopIndexer{}
	}
	index := cfg.ElasticsearchIndex
	if index == "" {
		index = "properties"
	}
	return &esIndexer{client: client, index: index, logger: logger.Named("property_indexer")}
}

// EnsureIndex creates the properties index if it is missing. No-op without Elasticsearch.
func EnsureIndex(ctx context.Context, client *elasticsearch.ESClientWrapper, cfg *config.Config, logger *zap.Logger) error {
	if client == nil {
		return nil
	}
	index := cfg.ElasticsearchIndex
	if index == "" {
		index = "properties"
	}
	return elasticsearch.EnsureIndex(ctx, client, index, IndexMapping, logger)
}

func (i *esIndexer) Enabled() bool { return true }

func (i *esIndexer) Index(ctx context.Context, p *Property) error {
	body, err := json.Marshal(ToSearchDocument(p))
	if err != nil {
		return fmt.Errorf("failed to encode search document: %w", err)
	}
	res, err := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: p.ID,
		Body:       bytes.NewReader(body),
	}.Do(ctx, i.client.Client)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index request returned %s: %v", res.Status(), elasticsearch.DecodeError(res))
	}
	return nil
}

func (i *esIndexer) Delete(ctx context.Context, id string) error {
	res, err := esapi.DeleteRequest{Index: i.index, DocumentID: id}.Do(ctx, i.client.Client)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete request returned %s: %v", res.Status(), elasticsearch.DecodeError(res))
	}
	return nil
}

func (i *esIndexer) BulkIndex(ctx context.Context, ps []Property) (int, error) {
	if len(ps) == 0 {
		return 0, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for idx := range ps {
		meta := map[string]interface{}{"index": map[string]interface{}{"_index": i.index, "_id": ps[idx].ID}}
		if err := enc.Encode(meta); err != nil {
			return 0, err
		}
		if err := enc.Encode(ToSearchDocument(&ps[idx])); err != nil {
			return 0, err
		}
	}

	failed, err := elasticsearch.Bulk(ctx, i.client, buf.Bytes())
	if err != nil {
		return 0, err
	}
	for _, f := range failed {
		i.logger.Error("Failed to index property in bulk batch",
			zap.String("property_id", f.ID),
			zap.Int("status", f.Status),
			zap.String("type", f.Type),
			zap.String("reason", f.Reason),
		)
	}
	return len(failed), nil
}

func (i *esIndexer) Search(ctx context.Context, term string) ([]string, error) {
	query := map[string]interface{}{
		"size":    maxSearchHits,
		"_source": false,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     term,
				"fields":    []string{"title^3", "propertyId^3", "city^2", "address", "description", "amenities"},
				"fuzziness": "AUTO",
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	res, err := esapi.SearchRequest{
		Index: []string{i.index},
		Body:  bytes.NewReader(body),
	}.Do(ctx, i.client.Client)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search request returned %s: %v", res.Status(), elasticsearch.DecodeError(res))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// NopIndexer is used when Elasticsearch is not configured.
type NopIndexer struct{}

func (NopIndexer) Enabled() bool                                      { return false }
func (NopIndexer) Index(context.Context, *Property) error             { return nil }
func (NopIndexer) Delete(context.Context, string) error               { return nil }
func (NopIndexer) BulkIndex(context.Context, []Property) (int, error) { return 0, nil }
func (NopIndexer) Search(context.Context, string) ([]string, error)   { return nil, nil }
