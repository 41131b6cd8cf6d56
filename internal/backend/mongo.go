package backend

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/complyscan/complyscan/internal/types"
)

// mongoBackend serves document stores. Collections appear as tables and
// field schemas are inferred from a sampled document.
type mongoBackend struct {
	client *mongo.Client
	db     *mongo.Database
}

func openMongo(ctx context.Context, cfg Config) (*mongoBackend, error) {
	uri := cfg.DSN
	if uri == "" {
		host, port := cfg.Host, cfg.Port
		if host == "" {
			host = "localhost"
		}
		if port == 0 {
			port = 27017
		}
		if cfg.User != "" && cfg.Password != "" {
			uri = fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.User, cfg.Password, host, port)
		} else {
			uri = fmt.Sprintf("mongodb://%s:%d", host, port)
		}
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	b := &mongoBackend{client: client, db: client.Database(cfg.Name)}
	if err := b.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return b, nil
}

func (b *mongoBackend) Ping(ctx context.Context) error {
	if b.client == nil {
		return ErrNotConnected
	}
	return b.client.Ping(ctx, readpref.Primary())
}

func (b *mongoBackend) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Disconnect(context.Background())
}

func (b *mongoBackend) Dialect() Dialect { return DialectMongo }

func (b *mongoBackend) ListTables(ctx context.Context) ([]string, error) {
	if b.db == nil {
		return nil, ErrNotConnected
	}
	return b.db.ListCollectionNames(ctx, bson.D{})
}

func (b *mongoBackend) Schema(ctx context.Context, table string) (types.TableSchema, error) {
	schema := types.TableSchema{Name: table}
	if b.db == nil {
		return schema, ErrNotConnected
	}
	var doc bson.M
	err := b.db.Collection(table).FindOne(ctx, bson.D{}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return schema, nil
	}
	if err != nil {
		return schema, fmt.Errorf("sample document for %s: %w", table, err)
	}
	for key, value := range doc {
		schema.Columns = append(schema.Columns, types.Column{
			Name:     key,
			Type:     inferBSONType(value),
			Nullable: true,
		})
	}
	return schema, nil
}

func inferBSONType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case int32, int64, int:
		return "int"
	case float64:
		return "double"
	case bool:
		return "bool"
	case primitive.DateTime:
		return "date"
	case primitive.ObjectID:
		return "objectId"
	case bson.A:
		return "array"
	case bson.M, bson.D:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}

// Query is not supported: checkers gate count-query checks on Dialect().IsSQL().
func (b *mongoBackend) Query(_ context.Context, _ string, _ ...any) ([]map[string]any, error) {
	return nil, ErrUnsupportedQuery
}

func (b *mongoBackend) Sample(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	if b.db == nil {
		return nil, ErrNotConnected
	}
	cur, err := b.db.Collection(table).Find(ctx, bson.D{}, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []map[string]any
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, normalizeDoc(doc))
	}
	return out, cur.Err()
}

func (b *mongoBackend) SampleColumn(ctx context.Context, table, column string, limit int) ([]any, error) {
	if b.db == nil {
		return nil, ErrNotConnected
	}
	filter := bson.M{column: bson.M{"$ne": nil}}
	opts := options.Find().
		SetLimit(int64(limit)).
		SetProjection(bson.M{column: 1, "_id": 0})
	cur, err := b.db.Collection(table).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var vals []any
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		if v, ok := doc[column]; ok {
			vals = append(vals, v)
		}
	}
	return vals, cur.Err()
}

func (b *mongoBackend) Distinct(ctx context.Context, table, column string, limit int) ([]any, error) {
	if b.db == nil {
		return nil, ErrNotConnected
	}
	vals, err := b.db.Collection(table).Distinct(ctx, column, bson.M{column: bson.M{"$ne": nil}})
	if err != nil {
		return nil, err
	}
	if len(vals) > limit {
		vals = vals[:limit]
	}
	return vals, nil
}

func normalizeDoc(doc bson.M) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if id, ok := v.(primitive.ObjectID); ok {
			out[k] = id.Hex()
			continue
		}
		out[k] = v
	}
	return out
}
