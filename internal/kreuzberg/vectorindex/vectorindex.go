// Package vectorindex stores chunk embeddings in Qdrant for downstream
// semantic search. It is entirely optional: a Pipeline with no Index
// configured skips embedding and chunk upsert, and every other package in
// this module is usable without Qdrant running.
package vectorindex

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/kreuzberg/kreuzberg-go/internal/kreuzberg/kdoc"
)

// Embedder turns chunk text into a fixed-dimension vector. Callers supply
// their own implementation (e.g. an HTTP client to an embeddings API); this
// package only knows how to store and search whatever comes back.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Index is a thin wrapper over a Qdrant collection keyed by
// (content_hash, chunk_index), holding one point per document chunk.
type Index struct {
	client     qdrant.PointsClient
	collection qdrant.CollectionsClient
	conn       *grpc.ClientConn
	name       string
	dimensions int
}

// Open dials Qdrant at addr and ensures the named collection exists with
// the given vector dimensionality and cosine distance.
func Open(ctx context.Context, addr, collectionName string, dimensions int) (*Index, error) {
	conn, err := grpc.Dial(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vectorindex: dial %s: %w", addr, err)
	}

	idx := &Index{
		client:     qdrant.NewPointsClient(conn),
		collection: qdrant.NewCollectionsClient(conn),
		conn:       conn,
		name:       collectionName,
		dimensions: dimensions,
	}
	if err := idx.ensureCollection(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) ensureCollection(ctx context.Context) error {
	existing, err := idx.collection.List(ctx, &qdrant.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("vectorindex: list collections: %w", err)
	}
	for _, c := range existing.Collections {
		if c.Name == idx.name {
			return nil
		}
	}

	_, err = idx.collection.Create(ctx, &qdrant.CreateCollection{
		CollectionName: idx.name,
		VectorsConfig: &qdrant.VectorsConfig{
			Config: &qdrant.VectorsConfig_Params{
				Params: &qdrant.VectorParams{
					Size:     uint64(idx.dimensions),
					Distance: qdrant.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorindex: create collection %s: %w", idx.name, err)
	}
	return nil
}

// chunkPointID derives a deterministic point ID from the content hash and
// chunk index so re-extracting the same document upserts in place instead
// of accumulating duplicate points.
func chunkPointID(contentHash string, chunkIndex int) string {
	seed := fmt.Sprintf("%s:%d", contentHash, chunkIndex)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

// UpsertChunks embeds and stores every chunk in chunks, keyed by
// (contentHash, chunk_index). Chunks that fail to embed, or whose vector
// length differs from the embedder's Dimensions, are skipped rather than
// aborting the whole batch; skipped chunks are not reported, and the
// returned error covers only the Qdrant upsert call.
func (idx *Index) UpsertChunks(ctx context.Context, contentHash string, chunks []kdoc.Chunk, embedder Embedder) error {
	if embedder == nil || len(chunks) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i := range chunks {
		vec, err := embedder.Embed(ctx, chunks[i].Content)
		if err != nil {
			continue
		}
		if len(vec) != embedder.Dimensions() {
			continue
		}
		chunks[i].Embedding = vec

		payload := map[string]*qdrant.Value{
			"content_hash": {Kind: &qdrant.Value_StringValue{StringValue: contentHash}},
			"chunk_index":  {Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(chunks[i].Metadata.ChunkIndex)}},
			"byte_start":   {Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(chunks[i].Metadata.ByteStart)}},
			"byte_end":     {Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(chunks[i].Metadata.ByteEnd)}},
		}

		points = append(points, &qdrant.PointStruct{
			Id: &qdrant.PointId{
				PointIdOptions: &qdrant.PointId_Uuid{Uuid: chunkPointID(contentHash, chunks[i].Metadata.ChunkIndex)},
			},
			Vectors: &qdrant.Vectors{
				VectorsOptions: &qdrant.Vectors_Vector{Vector: &qdrant.Vector{Data: vec}},
			},
			Payload: payload,
		})
	}
	if len(points) == 0 {
		return nil
	}

	_, err := idx.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: idx.name,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("vectorindex: upsert %d points: %w", len(points), err)
	}
	return nil
}

// SearchResult is one hit from Search, with its similarity score.
type SearchResult struct {
	ContentHash string
	ChunkIndex  int
	Score       float32
}

// Search finds the topK chunks nearest to queryVector across every document
// stored in the collection.
func (idx *Index) Search(ctx context.Context, queryVector []float32, topK int) ([]SearchResult, error) {
	if len(queryVector) != idx.dimensions {
		return nil, fmt.Errorf("vectorindex: query vector has %d dimensions, want %d", len(queryVector), idx.dimensions)
	}
	if topK <= 0 {
		topK = 10
	}

	resp, err := idx.client.Search(ctx, &qdrant.SearchPoints{
		CollectionName: idx.name,
		Vector:         queryVector,
		Limit:          uint64(topK),
		WithPayload: &qdrant.WithPayloadSelector{
			SelectorOptions: &qdrant.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: search: %w", err)
	}

	out := make([]SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		sr := SearchResult{Score: r.Score}
		if r.Payload != nil {
			if v, ok := r.Payload["content_hash"]; ok {
				sr.ContentHash = v.GetStringValue()
			}
			if v, ok := r.Payload["chunk_index"]; ok {
				sr.ChunkIndex = int(v.GetIntegerValue())
			}
		}
		out = append(out, sr)
	}
	return out, nil
}

// Close releases the underlying gRPC connection.
func (idx *Index) Close() error {
	if idx.conn != nil {
		return idx.conn.Close()
	}
	return nil
}
