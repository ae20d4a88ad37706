// Package vectorstore owns all Qdrant operations, from collection lifecycle
// through segment upserts and per-document deletion.
package vectorstore

import (
	"context"
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Store talks to Qdrant over gRPC.
type Store struct {
	conn        *grpc.ClientConn
	points      pb.PointsClient
	collections pb.CollectionsClient
	collection  string
}

// New connects to Qdrant at the given gRPC address (e.g. localhost:6334).
func New(addr, collection string) (*Store, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("vectorstore: dial qdrant %s: %w", addr, err)
	}
	return &Store{
		conn:        conn,
		points:      pb.NewPointsClient(conn),
		collections: pb.NewCollectionsClient(conn),
		collection:  collection,
	}, nil
}

// Close closes the underlying gRPC connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Collection returns the configured collection name.
func (s *Store) Collection() string {
	return s.collection
}

// EnsureCollection creates the cosine-distance collection if missing.
// Safe to call on every startup.
func (s *Store) EnsureCollection(ctx context.Context, dims int) error {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("vectorstore: list collections: %w", err)
	}
	for _, c := range list.GetCollections() {
		if c.GetName() == s.collection {
			return nil
		}
	}

	_, err = s.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(dims),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: create collection %s: %w", s.collection, err)
	}
	return nil
}

// SegmentPoint is one segment ready for upsert.
type SegmentPoint struct {
	DocID         string
	Source        string
	Content       string
	Context       string
	Level         int
	ChunkIndex    int
	PageNumber    int
	TotalSegments int
	Vector        []float32
}

// Upsert writes segment points. Point IDs are deterministic per
// (document, segment index), so rerunning a document overwrites its old
// points instead of duplicating them.
func (s *Store) Upsert(ctx context.Context, points []SegmentPoint) error {
	if len(points) == 0 {
		return nil
	}

	pts := make([]*pb.PointStruct, len(points))
	for i, p := range points {
		pts[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(p.DocID, p.ChunkIndex)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: p.Vector},
				},
			},
			Payload: map[string]*pb.Value{
				"doc_id":         stringValue(p.DocID),
				"source":         stringValue(p.Source),
				"content":        stringValue(p.Content),
				"context":        stringValue(p.Context),
				"level":          intValue(p.Level),
				"chunk_index":    intValue(p.ChunkIndex),
				"page_number":    intValue(p.PageNumber),
				"total_segments": intValue(p.TotalSegments),
			},
		}
	}

	wait := true
	_, err := s.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: s.collection,
		Points:         pts,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("vectorstore: upsert %d points: %w", len(pts), err)
	}
	return nil
}

// DeleteDocument removes every point belonging to a document.
func (s *Store) DeleteDocument(ctx context.Context, docID string) error {
	wait := true
	_, err := s.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: s.collection,
		Wait:           &wait,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: &pb.Filter{
					Must: []*pb.Condition{
						{
							ConditionOneOf: &pb.Condition_Field{
								Field: &pb.FieldCondition{
									Key: "doc_id",
									Match: &pb.Match{
										MatchValue: &pb.Match_Keyword{Keyword: docID},
									},
								},
							},
						},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("vectorstore: delete document %s: %w", docID, err)
	}
	return nil
}

// Count returns the number of points in the collection.
func (s *Store) Count(ctx context.Context) (uint64, error) {
	resp, err := s.points.Count(ctx, &pb.CountPoints{
		CollectionName: s.collection,
	})
	if err != nil {
		return 0, fmt.Errorf("vectorstore: count points: %w", err)
	}
	return resp.GetResult().GetCount(), nil
}

// ListCollections returns all collection names on the server.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	list, err := s.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return nil, fmt.Errorf("vectorstore: list collections: %w", err)
	}
	names := make([]string, 0, len(list.GetCollections()))
	for _, c := range list.GetCollections() {
		names = append(names, c.GetName())
	}
	return names, nil
}

// DeleteCollection drops the configured collection entirely.
func (s *Store) DeleteCollection(ctx context.Context) error {
	_, err := s.collections.Delete(ctx, &pb.DeleteCollection{
		CollectionName: s.collection,
	})
	if err != nil {
		return fmt.Errorf("vectorstore: delete collection %s: %w", s.collection, err)
	}
	return nil
}

func stringValue(v string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: v}}
}

func intValue(v int) *pb.Value {
	return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: int64(v)}}
}
