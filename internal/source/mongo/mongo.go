package mongo

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mis-esta/OpenMetadata/internal/entity"
	"github.com/mis-esta/OpenMetadata/internal/workflow"
)

// Config is the mongodb source config block.
type Config struct {
	ServiceName   string `json:"service_name"`
	ConnectionURI string `json:"connection_uri"`
	Database      string `json:"database"`
	SampleSize    int    `json:"sample_size"`
}

func (c Config) validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.ConnectionURI == "" {
		return fmt.Errorf("connection_uri is required")
	}
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}
	return nil
}

// Source lists collections and samples documents to infer a column set.
// Collections surface as external tables since mongo has no fixed schema.
type Source struct {
	config Config
	client *mongo.Client
	logger *zap.Logger
	status *workflow.SourceStatus

	queue []entity.Record
	pos   int
}

type Option func(*Source)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

func New(config Config, opts ...Option) (*Source, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if config.SampleSize <= 0 {
		config.SampleSize = 1
	}
	s := &Source{
		config: config,
		logger: zap.NewNop(),
		status: &workflow.SourceStatus{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Source) Status() *workflow.SourceStatus {
	return s.status
}

func (s *Source) Open(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.config.ConnectionURI))
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return err
	}
	s.client = client

	db := client.Database(s.config.Database)

	names, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return err
	}
	sort.Strings(names)

	s.queue = append(s.queue, entity.Record{
		Kind: entity.KindDatabase,
		Database: &entity.Database{
			Name:        s.config.Database,
			Service:     s.config.ServiceName,
			ServiceType: "MongoDB",
		},
	})

	for _, name := range names {
		cols, err := s.sampleColumns(ctx, db.Collection(name))
		if err != nil {
			s.status.Failure(name, err.Error())
			continue
		}
		s.queue = append(s.queue, entity.Record{
			Kind: entity.KindTable,
			Table: &entity.Table{
				Name:               name,
				FullyQualifiedName: entity.BuildFQN(s.config.ServiceName, s.config.Database, name),
				TableType:          "External",
				Database:           s.config.Database,
				Service:            s.config.ServiceName,
				ServiceType:        "MongoDB",
				Columns:            cols,
			},
		})
	}

	s.logger.Info("mongodb collections scanned",
		zap.String("database", s.config.Database),
		zap.Int("collections", len(names)))
	return nil
}

// sampleColumns merges the field sets of up to SampleSize documents.
func (s *Source) sampleColumns(ctx context.Context, coll *mongo.Collection) ([]entity.Column, error) {
	opts := options.Find().SetLimit(int64(s.config.SampleSize))
	cursor, err := coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	fields := make(map[string]string)
	for cursor.Next(ctx) {
		var doc bson.D
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		for _, elem := range doc {
			if _, ok := fields[elem.Key]; !ok {
				fields[elem.Key] = bsonTypeName(elem.Value)
			}
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	cols := make([]entity.Column, 0, len(names))
	for i, name := range names {
		cols = append(cols, entity.Column{
			Name:     name,
			DataType: fields[name],
			Ordinal:  i + 1,
			Nullable: true,
		})
	}
	return cols, nil
}

func bsonTypeName(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case int32, int64, int:
		return "long"
	case float64:
		return "double"
	case bool:
		return "boolean"
	case time.Time, primitive.DateTime:
		return "date"
	case primitive.ObjectID:
		return "objectId"
	case bson.D, bson.M:
		return "object"
	case bson.A:
		return "array"
	case nil:
		return "null"
	default:
		return "unknown"
	}
}

func (s *Source) Next(ctx context.Context) (entity.Record, error) {
	if s.pos >= len(s.queue) {
		return entity.Record{}, io.EOF
	}
	rec := s.queue[s.pos]
	s.pos++
	s.status.Scanned(rec.Name())
	return rec, nil
}

func (s *Source) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
