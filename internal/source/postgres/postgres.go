package postgres

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/mis-esta/OpenMetadata/internal/entity"
	"github.com/mis-esta/OpenMetadata/internal/workflow"
)

// Config is the postgres source config block. The connection is given
// either as a full connection_string or as host_port plus credentials.
type Config struct {
	ServiceName      string   `json:"service_name"`
	ConnectionString string   `json:"connection_string"`
	HostPort         string   `json:"host_port"`
	Username         string   `json:"username"`
	Password         string   `json:"password"`
	Database         string   `json:"database"`
	IncludeSchemas   []string `json:"include_schemas"`
}

func (c Config) validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.ConnectionString == "" && c.HostPort == "" {
		return fmt.Errorf("connection_string or host_port is required")
	}
	return nil
}

func (c Config) dsn() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   c.HostPort,
		Path:   "/" + c.Database,
	}
	if c.Username != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.Username, c.Password)
		} else {
			u.User = url.User(c.Username)
		}
	}
	return u.String()
}

// Source crawls information_schema and emits one table record per table.
type Source struct {
	config Config
	conn   *pgx.Conn
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
	conn, err := pgx.Connect(ctx, s.config.dsn())
	if err != nil {
		return err
	}
	if err := conn.Ping(ctx); err != nil {
		return err
	}
	s.conn = conn

	db := s.config.Database
	if db == "" {
		row := conn.QueryRow(ctx, `SELECT current_database()`)
		if err := row.Scan(&db); err != nil {
			return err
		}
	}

	s.queue = append(s.queue, entity.Record{
		Kind: entity.KindDatabase,
		Database: &entity.Database{
			Name:        db,
			Service:     s.config.ServiceName,
			ServiceType: "Postgres",
		},
	})

	tables, err := s.listTables(ctx)
	if err != nil {
		return err
	}

	for _, t := range tables {
		table, err := s.describeTable(ctx, db, t.schema, t.name, t.tableType)
		if err != nil {
			s.status.Failure(t.schema+"."+t.name, err.Error())
			continue
		}
		s.queue = append(s.queue, entity.Record{Kind: entity.KindTable, Table: table})
	}

	s.logger.Info("postgres catalog crawled",
		zap.String("database", db),
		zap.Int("tables", len(s.queue)-1))
	return nil
}

type tableRef struct {
	schema    string
	name      string
	tableType string
}

func (s *Source) listTables(ctx context.Context) ([]tableRef, error) {
	query := `
		SELECT table_schema, table_name, table_type
		FROM information_schema.tables
		WHERE table_schema NOT IN ('pg_catalog', 'information_schema')
		ORDER BY table_schema, table_name`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []tableRef
	for rows.Next() {
		var t tableRef
		if err := rows.Scan(&t.schema, &t.name, &t.tableType); err != nil {
			return nil, err
		}
		if s.schemaIncluded(t.schema) {
			tables = append(tables, t)
		}
	}
	return tables, rows.Err()
}

func (s *Source) schemaIncluded(schema string) bool {
	if len(s.config.IncludeSchemas) == 0 {
		return true
	}
	for _, inc := range s.config.IncludeSchemas {
		if inc == schema {
			return true
		}
	}
	return false
}

func (s *Source) describeTable(ctx context.Context, db, schema, name, tableType string) (*entity.Table, error) {
	query := `
		SELECT column_name, data_type, ordinal_position, is_nullable
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position`

	rows, err := s.conn.Query(ctx, query, schema, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []entity.Column
	for rows.Next() {
		var col entity.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.DataType, &col.Ordinal, &nullable); err != nil {
			return nil, err
		}
		col.Nullable = strings.EqualFold(nullable, "YES")
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tt := "Regular"
	if strings.Contains(strings.ToLower(tableType), "view") {
		tt = "View"
	}

	return &entity.Table{
		Name:               name,
		FullyQualifiedName: entity.BuildFQN(s.config.ServiceName, db, schema, name),
		TableType:          tt,
		Database:           db,
		Service:            s.config.ServiceName,
		ServiceType:        "Postgres",
		Columns:            cols,
	}, nil
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
	if s.conn == nil {
		return nil
	}
	return s.conn.Close(ctx)
}
