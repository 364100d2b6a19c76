package store

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"sync"

	"github.com/coder/hnsw"
)

// VectorIndexConfig configures a VectorIndex.
type VectorIndexConfig struct {
	Dimensions int
	M          int // Max connections per node
	EfSearch   int // Minimum search width
}

// VectorIndex is an in-memory cosine HNSW graph over one field's vectors.
// Keys are row positions, so results can be reported in dataset order.
// It is built once, exported to bytes for the vault, and imported on query.
type VectorIndex struct {
	mu     sync.RWMutex
	graph  *hnsw.Graph[uint64]
	config VectorIndexConfig
	ids    []string // row position -> identity
}

// vectorIndexBlob is the serialized form of a VectorIndex.
type vectorIndexBlob struct {
	IDs    []string
	Config VectorIndexConfig
	Graph  []byte
}

// NewVectorIndex creates an empty cosine index.
func NewVectorIndex(cfg VectorIndexConfig) *VectorIndex {
	if cfg.M == 0 {
		cfg.M = 16 // coder/hnsw default recommendation
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 20 // coder/hnsw default
	}

	return &VectorIndex{
		graph:  newGraph(cfg),
		config: cfg,
	}
}

func newGraph(cfg VectorIndexConfig) *hnsw.Graph[uint64] {
	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = cfg.M
	graph.EfSearch = cfg.EfSearch
	graph.Ml = 0.25
	return graph
}

// Build inserts one vector per identity, in order.
func (x *VectorIndex) Build(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch: %d vs %d", len(ids), len(vectors))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	for _, v := range vectors {
		if len(v) != x.config.Dimensions {
			return ErrDimensionMismatch{
				Expected: x.config.Dimensions,
				Got:      len(v),
			}
		}
	}

	for i := range ids {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		vec := make([]float32, len(vectors[i]))
		copy(vec, vectors[i])
		normalizeVectorInPlace(vec)

		x.graph.Add(hnsw.MakeNode(uint64(len(x.ids)), vec))
		x.ids = append(x.ids, ids[i])
	}
	x.graph.EfSearch = max(x.config.EfSearch, len(x.ids))

	return nil
}

// Len returns the number of indexed vectors.
func (x *VectorIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.ids)
}

// Dimensions returns the vector dimension the index accepts.
func (x *VectorIndex) Dimensions() int {
	return x.config.Dimensions
}

// ScoreAll returns a result for every indexed identity, in build order.
// The graph search width covers the whole index; any node the search does
// not reach is scored directly so no identity is dropped.
func (x *VectorIndex) ScoreAll(ctx context.Context, query []float32) ([]VectorResult, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(query) != x.config.Dimensions {
		return nil, ErrDimensionMismatch{
			Expected: x.config.Dimensions,
			Got:      len(query),
		}
	}

	n := len(x.ids)
	if n == 0 {
		return []VectorResult{}, nil
	}

	q := make([]float32, len(query))
	copy(q, query)
	normalizeVectorInPlace(q)

	nodes := x.graph.Search(q, n)

	distances := make([]float32, n)
	seen := make([]bool, n)
	for _, node := range nodes {
		if node.Key >= uint64(n) {
			continue
		}
		distances[node.Key] = x.graph.Distance(q, node.Value)
		seen[node.Key] = true
	}

	results := make([]VectorResult, n)
	for i, id := range x.ids {
		if !seen[i] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			vec, ok := x.graph.Lookup(uint64(i))
			if !ok {
				return nil, fmt.Errorf("vector for %q missing from graph", id)
			}
			distances[i] = x.graph.Distance(q, vec)
		}
		results[i] = VectorResult{
			ID:       id,
			Distance: distances[i],
			Score:    distanceToScore(distances[i]),
		}
	}

	return results, nil
}

// MarshalBinary exports the graph and identity table.
func (x *VectorIndex) MarshalBinary() ([]byte, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	blob := vectorIndexBlob{IDs: x.ids, Config: x.config}
	if len(x.ids) > 0 {
		var graph bytes.Buffer
		if err := x.graph.Export(&graph); err != nil {
			return nil, fmt.Errorf("failed to export graph: %w", err)
		}
		blob.Graph = graph.Bytes()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(blob); err != nil {
		return nil, fmt.Errorf("encode vector index: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary replaces the index with a previously exported one.
func (x *VectorIndex) UnmarshalBinary(data []byte) error {
	var blob vectorIndexBlob
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&blob); err != nil {
		return fmt.Errorf("decode vector index: %w", err)
	}

	graph := newGraph(blob.Config)
	if len(blob.Graph) > 0 {
		// bytes.Reader satisfies the io.ByteReader hnsw Import needs
		if err := graph.Import(bytes.NewReader(blob.Graph)); err != nil {
			return fmt.Errorf("failed to import graph: %w", err)
		}
	}
	if graph.Len() != len(blob.IDs) {
		return fmt.Errorf("graph has %d nodes, expected %d", graph.Len(), len(blob.IDs))
	}

	graph.EfSearch = max(blob.Config.EfSearch, len(blob.IDs))

	x.mu.Lock()
	defer x.mu.Unlock()
	x.graph = graph
	x.config = blob.Config
	x.ids = blob.IDs
	return nil
}

// normalizeVectorInPlace normalizes a vector to unit length in place.
func normalizeVectorInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	invMagnitude := float32(1.0 / math.Sqrt(sumSquares))
	for i := range v {
		v[i] *= invMagnitude
	}
}

// distanceToScore converts cosine distance (0 identical, 2 opposite)
// to a similarity score in [0, 1].
func distanceToScore(distance float32) float32 {
	return 1.0 - distance/2.0
}
