package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"go.uber.org/zap"

	"github.com/mis-esta/OpenMetadata/internal/entity"
	"github.com/mis-esta/OpenMetadata/internal/workflow"
)

// ElasticsearchConfig is the elasticsearch sink config block.
type ElasticsearchConfig struct {
	Host           string `json:"es_host"`
	Port           int    `json:"es_port"`
	Username       string `json:"es_username"`
	Password       string `json:"es_password"`
	IndexTables    *bool  `json:"index_tables"`
	TableIndexName string `json:"table_index_name"`
}

func (c *ElasticsearchConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = 9200
	}
	if c.TableIndexName == "" {
		c.TableIndexName = "table_search_index"
	}
	if c.IndexTables == nil {
		t := true
		c.IndexTables = &t
	}
}

// Elasticsearch indexes flattened table documents for search. Records other
// than tables are dropped and counted as skipped.
type Elasticsearch struct {
	config ElasticsearchConfig
	client *elasticsearch.Client
	logger *zap.Logger
	status *workflow.SinkStatus
}

type ElasticsearchOption func(*Elasticsearch)

func ElasticsearchWithLogger(logger *zap.Logger) ElasticsearchOption {
	return func(s *Elasticsearch) {
		s.logger = logger
	}
}

func NewElasticsearch(config ElasticsearchConfig, opts ...ElasticsearchOption) (*Elasticsearch, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("es_host is required")
	}
	config.applyDefaults()

	s := &Elasticsearch{
		config: config,
		logger: zap.NewNop(),
		status: &workflow.SinkStatus{},
	}
	for _, opt := range opts {
		opt(s)
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{fmt.Sprintf("http://%s:%d", config.Host, config.Port)},
		Username:  config.Username,
		Password:  config.Password,
	})
	if err != nil {
		return nil, err
	}
	s.client = client
	return s, nil
}

func (s *Elasticsearch) Status() *workflow.SinkStatus {
	return s.status
}

func (s *Elasticsearch) Open(ctx context.Context) error {
	if *s.config.IndexTables {
		if err := s.checkOrCreateIndex(ctx, s.config.TableIndexName, tableIndexMapping); err != nil {
			return err
		}
	}
	return nil
}

// checkOrCreateIndex creates the index with its mapping when it does not
// exist yet. Existing indices keep their mapping.
func (s *Elasticsearch) checkOrCreateIndex(ctx context.Context, name, mapping string) error {
	res, err := s.client.Indices.Exists(
		[]string{name},
		s.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	drain(res)

	switch res.StatusCode {
	case 200:
		return nil
	case 404:
		// Fall through to create below.
	default:
		return fmt.Errorf("checking index %s: unexpected status %d", name, res.StatusCode)
	}

	s.logger.Info("creating search index", zap.String("index", name))
	created, err := s.client.Indices.Create(
		name,
		s.client.Indices.Create.WithBody(bytes.NewReader([]byte(mapping))),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer drain(created)
	if created.IsError() {
		return fmt.Errorf("creating index %s: %s", name, created.String())
	}
	return nil
}

func (s *Elasticsearch) Write(ctx context.Context, rec entity.Record) error {
	if rec.Kind != entity.KindTable || !*s.config.IndexTables {
		s.status.RecordSkipped(rec.Name())
		return nil
	}

	doc := newTableDocument(rec.Table)
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	res, err := s.client.Index(
		s.config.TableIndexName,
		bytes.NewReader(body),
		s.client.Index.WithDocumentID(doc.TableID),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer drain(res)
	if res.IsError() {
		return fmt.Errorf("indexing %s: %s", doc.FQDN, res.String())
	}
	s.status.RecordWritten(rec.Name())
	return nil
}

func (s *Elasticsearch) Close(ctx context.Context) error {
	return nil
}

func drain(res *esapi.Response) {
	if res != nil && res.Body != nil {
		io.Copy(io.Discard, res.Body)
		res.Body.Close()
	}
}

type suggestInput struct {
	Input  []string `json:"input"`
	Weight int      `json:"weight"`
}

// tableDocument is the flattened search document for a table.
type tableDocument struct {
	TableID            string         `json:"table_id"`
	Database           string         `json:"database"`
	Service            string         `json:"service"`
	ServiceType        string         `json:"service_type"`
	ServiceCategory    string         `json:"service_category"`
	TableName          string         `json:"table_name"`
	Suggest            []suggestInput `json:"suggest"`
	Description        string         `json:"description"`
	TableType          string         `json:"table_type"`
	LastUpdatedAt      int64          `json:"last_updated_timestamp"`
	ColumnNames        []string       `json:"column_names"`
	ColumnDescriptions []string       `json:"column_descriptions"`
	Tier               string         `json:"tier,omitempty"`
	Tags               []string       `json:"tags"`
	FQDN               string         `json:"fqdn"`
	Owner              string         `json:"owner,omitempty"`
}

func newTableDocument(t *entity.Table) tableDocument {
	doc := tableDocument{
		TableID:         t.ID,
		Database:        t.Database,
		Service:         t.Service,
		ServiceType:     t.ServiceType,
		ServiceCategory: "databaseService",
		TableName:       t.Name,
		TableType:       t.TableType,
		Description:     t.Description,
		LastUpdatedAt:   time.Now().Unix(),
		FQDN:            t.FullyQualifiedName,
		Owner:           t.Owner,
		Tags:            []string{},
		Suggest: []suggestInput{
			{Input: []string{t.FullyQualifiedName}, Weight: 5},
			{Input: []string{t.Name}, Weight: 10},
		},
	}
	if doc.TableID == "" {
		doc.TableID = t.FullyQualifiedName
	}

	// Tier tags are split out of the tag list.
	for _, tag := range t.Tags {
		if tag.IsTier() {
			doc.Tier = tag.TagFQN
		} else {
			doc.Tags = append(doc.Tags, tag.TagFQN)
		}
	}

	doc.ColumnNames = entity.FlattenColumnNames(t.Columns)
	for _, c := range t.Columns {
		if c.Description != "" {
			doc.ColumnDescriptions = append(doc.ColumnDescriptions, c.Description)
		}
		for _, tag := range c.Tags {
			doc.Tags = append(doc.Tags, tag.TagFQN)
		}
	}
	return doc
}
