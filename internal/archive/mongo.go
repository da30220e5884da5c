package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"signal-relay/internal/config"
	"signal-relay/internal/model"
)

type signalDocument struct {
	ID          string    `bson:"_id"`
	ReceivedAt  time.Time `bson:"receivedAt"`
	RemoteIP    string    `bson:"remoteIp,omitempty"`
	RequestID   string    `bson:"requestId,omitempty"`
	Outcome     string    `bson:"outcome"`
	Signal      string    `bson:"signal,omitempty"`
	Symbol      string    `bson:"symbol,omitempty"`
	Price       string    `bson:"price,omitempty"`
	Payload     bson.M    `bson:"payload,omitempty"`
	PayloadText string    `bson:"payloadText,omitempty"`
}

// MongoStore archives each webhook as one document.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

// NewMongoStore connects to cfg.URI and pings the primary before returning.
func NewMongoStore(ctx context.Context, cfg config.ArchiveConfig, logger *slog.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := newMongoStore(client, cfg.Database, cfg.Collection, logger)
	s.logger.Info("archive connected", "database", cfg.Database, "collection", cfg.Collection)
	return s, nil
}

func newMongoStore(client *mongo.Client, database, collection string, logger *slog.Logger) *MongoStore {
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_archive"),
	}
}

// Save inserts rec. The payload is always kept verbatim as JSON text; object
// payloads are additionally stored as a nested document so they can be queried.
func (s *MongoStore) Save(ctx context.Context, rec model.Record) error {
	doc := toDocument(rec)
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert signal %s: %w", doc.ID, err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	s.logger.Debug("disconnecting archive")
	return s.client.Disconnect(ctx)
}

func toDocument(rec model.Record) signalDocument {
	doc := signalDocument{
		ID:         rec.ID.String(),
		ReceivedAt: rec.ReceivedAt,
		RemoteIP:   rec.RemoteIP,
		RequestID:  rec.RequestID,
		Outcome:    rec.Outcome,
		Signal:     rec.Signal.Kind,
		Symbol:     rec.Signal.Symbol,
	}
	if !rec.Signal.Price.IsZero() {
		doc.Price = rec.Signal.Price.String()
	}

	doc.PayloadText = string(rec.Payload)
	if m, ok := decodeObject(rec.Payload); ok {
		doc.Payload = m
	}
	return doc
}

// decodeObject parses a JSON object as plain JSON. Keys such as "$date" stay
// ordinary fields and numbers keep their exact digits.
func decodeObject(raw []byte) (bson.M, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	return toBSON(obj).(bson.M), true
}

func toBSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(bson.M, len(t))
		for k, x := range t {
			m[k] = toBSON(x)
		}
		return m
	case []any:
		a := make(bson.A, len(t))
		for i, x := range t {
			a[i] = toBSON(x)
		}
		return a
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if d, err := bson.ParseDecimal128(t.String()); err == nil {
			return d
		}
		return t.String()
	default:
		return v
	}
}
