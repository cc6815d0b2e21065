package vectorstore

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"mini-qna/internal/contextutil"
)

const defaultGRPCPort = 6334

// QdrantStore implements VectorStore and CollectionManager using Qdrant.
type QdrantStore struct {
	client *qdrant.Client
}

// NewQdrantStore creates a new Qdrant vector store client.
// urlStr should be in the format "http://host:port" (e.g., "http://localhost:6333").
// The gRPC port is derived from the HTTP port; https enables TLS.
func NewQdrantStore(urlStr, apiKey string) (*QdrantStore, error) {
	host, port, useTLS, err := parseAddress(urlStr)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	return &QdrantStore{client: client}, nil
}

// parseAddress maps an HTTP URL to the gRPC host and port (HTTP port + 1).
func parseAddress(urlStr string) (host string, port int, useTLS bool, err error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", 0, false, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host = parsedURL.Hostname()
	if host == "" {
		host = "localhost"
	}

	port = defaultGRPCPort
	if p := parsedURL.Port(); p != "" {
		httpPort, err := strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid Qdrant port %q: %w", p, err)
		}
		port = httpPort + 1
	}

	return host, port, parsedURL.Scheme == "https", nil
}

// Close releases the underlying gRPC connection.
func (s *QdrantStore) Close() error {
	return s.client.Close()
}

// Upsert inserts or updates points in the collection.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, 0, len(points))
	for _, point := range points {
		qdrantPoint := &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(point.ID),
			Vectors: qdrant.NewVectors(point.Vec...),
		}
		if len(point.Meta) > 0 {
			payload, err := qdrant.TryValueMap(point.Meta)
			if err != nil {
				return fmt.Errorf("invalid payload for point %d: %w", point.ID, err)
			}
			qdrantPoint.Payload = payload
		}
		qdrantPoints = append(qdrantPoints, qdrantPoint)
	}

	wait := true
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         qdrantPoints,
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.DebugContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search performs a similarity search with optional filters.
func (s *QdrantStore) Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	limit := uint64(k)
	queryReq := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(query...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
		Filter:         buildFilter(filters),
	}

	scoredPoints, err := s.client.Query(ctx, queryReq)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(scoredPoints))
	for _, point := range scoredPoints {
		var pointID uint64
		if point.Id != nil {
			pointID = point.Id.GetNum()
		}
		results = append(results, SearchResult{
			PointID: pointID,
			Score:   point.Score,
			Meta:    convertPayloadToMap(point.Payload),
		})
	}

	logger.DebugContext(ctx, "search completed", "collection", collection, "k", k, "results", len(results))
	return results, nil
}

// buildFilter turns supported filter keys into Qdrant must-conditions.
// Unknown keys and empty values are ignored. Returns nil when nothing applies.
func buildFilter(filters map[string]any) *qdrant.Filter {
	var must []*qdrant.Condition
	if src, ok := filters["source_id"].(string); ok && src != "" {
		must = append(must, qdrant.NewMatch("source_id", src))
	}
	if len(must) == 0 {
		return nil
	}
	return &qdrant.Filter{Must: must}
}

// Delete removes points by their IDs.
func (s *QdrantStore) Delete(ctx context.Context, collection string, ids []uint64) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(ids) == 0 {
		return nil
	}

	qdrantIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		qdrantIDs = append(qdrantIDs, qdrant.NewIDNum(id))
	}

	wait := true
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         qdrant.NewPointsSelector(qdrantIDs...),
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete points", "collection", collection, "count", len(ids), "error", err)
		return fmt.Errorf("failed to delete points: %w", err)
	}

	logger.DebugContext(ctx, "deleted points", "collection", collection, "count", len(ids))
	return nil
}

// EnsureCollection ensures a collection exists with the specified vector size.
// An existing collection must have the same vector size.
func (s *QdrantStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	exists, err := s.client.CollectionExists(ctx, collection)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		logger.InfoContext(ctx, "creating collection", "collection", collection, "vector_size", vectorSize)
		err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(vectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		return nil
	}

	info, err := s.GetCollectionInfo(ctx, collection)
	if err != nil {
		return err
	}
	if info.VectorSize == 0 {
		return fmt.Errorf("could not determine collection vector size")
	}
	if info.VectorSize != vectorSize {
		return fmt.Errorf("collection vector size mismatch: expected %d, got %d", vectorSize, info.VectorSize)
	}

	logger.InfoContext(ctx, "collection validated", "collection", collection, "vector_size", vectorSize)
	return nil
}

// GetCollectionInfo returns information about a collection including point count.
func (s *QdrantStore) GetCollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error) {
	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection info: %w", err)
	}

	var vectorSize int
	if config := info.GetConfig(); config != nil && config.GetParams() != nil {
		if params := config.GetParams().GetVectorsConfig().GetParams(); params != nil {
			vectorSize = int(params.GetSize())
		}
	}

	var pointsCount int
	if info.PointsCount != nil {
		pointsCount = int(*info.PointsCount)
	}

	status := "unknown"
	if info.Status != 0 {
		status = info.Status.String()
	}

	return &CollectionInfo{
		VectorSize:  vectorSize,
		PointsCount: pointsCount,
		Status:      status,
	}, nil
}

// convertPayloadToMap converts Qdrant payload to map[string]any.
func convertPayloadToMap(payload map[string]*qdrant.Value) map[string]any {
	result := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		result[k] = convertValue(v)
	}
	return result
}

func convertValue(v *qdrant.Value) any {
	switch val := v.Kind.(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.Values))
		for i, item := range val.ListValue.Values {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayloadToMap(val.StructValue.Fields)
	default:
		return nil
	}
}
