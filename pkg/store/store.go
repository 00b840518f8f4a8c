// Package store keeps raw building documents in MongoDB, keyed by name.
//
// Documents are stored in their canonical JSON form (see
// [building.WriteJSON]) converted to BSON, so a stored building reads back
// into an equal graph:
//
//	s, err := store.Open(ctx, store.Config{URI: "mongodb://localhost:27017"})
//	if err != nil {
//	    return err
//	}
//	defer s.Close(ctx)
//	if err := s.Save(ctx, "campus-main", g); err != nil {
//	    return err
//	}
//	g, diags, err := s.Load(ctx, "campus-main")
package store

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/wayfinder/pkg/building"
	"github.com/matzehuels/wayfinder/pkg/cache"
	"github.com/matzehuels/wayfinder/pkg/errors"
)

// Store persists building documents by name.
type Store interface {
	Load(ctx context.Context, name string) (*building.Graph, building.Diagnostics, error)
	Save(ctx context.Context, name string, g *building.Graph) error
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, name string) error
	Close(ctx context.Context) error
}

// Config configures [Open].
type Config struct {
	URI        string
	Database   string // default "wayfinder"
	Collection string // default "buildings"
}

// record is the stored form of a building.
type record struct {
	Name      string    `bson:"_id"`
	UpdatedAt time.Time `bson:"updated_at"`
	Document  bson.D    `bson:"document"`
}

// MongoStore is a [Store] backed by a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects to MongoDB and verifies the connection, retrying transient
// failures. Connection failures are NETWORK_ERROR.
func Open(ctx context.Context, cfg Config) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "store: mongo URI is required")
	}
	if cfg.Database == "" {
		cfg.Database = "wayfinder"
	}
	if cfg.Collection == "" {
		cfg.Collection = "buildings"
	}

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(5*time.Second))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "store: connect")
	}

	err = cache.RetryWithBackoff(ctx, func() error {
		if err := client.Ping(ctx, nil); err != nil {
			return cache.Retryable(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "store: ping %s", redact(cfg.URI))
	}

	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Load reads the building stored under name. A missing name is NOT_FOUND.
func (s *MongoStore) Load(ctx context.Context, name string) (*building.Graph, building.Diagnostics, error) {
	var rec struct {
		Document bson.Raw `bson:"document"`
	}
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&rec)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, errors.Wrap(errors.ErrCodeNotFound, cache.ErrNotFound, "building %q", name)
	}
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeNetwork, err, "store: find %q", name)
	}
	return fromBSON(rec.Document)
}

// Save stores g under name, replacing any previous version.
func (s *MongoStore) Save(ctx context.Context, name string, g *building.Graph) error {
	if err := errors.ValidateNodeID(name); err != nil {
		return err
	}
	doc, err := toBSON(g)
	if err != nil {
		return err
	}
	rec := record{Name: name, UpdatedAt: time.Now().UTC(), Document: doc}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": name}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "store: save %q", name)
	}
	return nil
}

// List returns the stored names in ascending order.
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	cur, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "store: list")
	}
	defer cur.Close(ctx)

	var names []string
	for cur.Next(ctx) {
		var row struct {
			Name string `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("store: decode: %w", err)
		}
		names = append(names, row.Name)
	}
	return names, cur.Err()
}

// Delete removes name. Deleting a missing name is NOT_FOUND.
func (s *MongoStore) Delete(ctx context.Context, name string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "store: delete %q", name)
	}
	if res.DeletedCount == 0 {
		return errors.Wrap(errors.ErrCodeNotFound, cache.ErrNotFound, "building %q", name)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// toBSON converts g's canonical JSON document to BSON.
func toBSON(g *building.Graph) (bson.D, error) {
	data, err := building.MarshalJSON(g)
	if err != nil {
		return nil, err
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON(data, false, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "convert building to BSON")
	}
	return doc, nil
}

// fromBSON rebuilds a graph from a stored document.
func fromBSON(raw bson.Raw) (*building.Graph, building.Diagnostics, error) {
	if len(raw) == 0 {
		return nil, nil, errors.New(errors.ErrCodeMalformedInput, "stored building has no document")
	}
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeMalformedInput, err, "convert stored building")
	}
	return building.ReadJSON(bytes.NewReader(data))
}

// redact hides the password of a connection string in error messages.
func redact(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return uri
	}
	user, _, _ := strings.Cut(creds, ":")
	return scheme + "://" + user + ":***@" + host
}

var _ Store = (*MongoStore)(nil)
