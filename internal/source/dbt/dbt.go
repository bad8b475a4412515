package dbt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mis-esta/OpenMetadata/internal/entity"
	"github.com/mis-esta/OpenMetadata/internal/lineage"
	"github.com/mis-esta/OpenMetadata/internal/workflow"
)

// Config is the documented dbt source config block.
type Config struct {
	ServiceName    string `json:"service_name"`
	ServiceType    string `json:"service_type"`
	CatalogFile    string `json:"catalog_file"`
	ManifestFile   string `json:"manifest_file"`
	RunResultsFile string `json:"run_results_file"`
	Database       string `json:"database"`
}

func (c Config) validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.CatalogFile == "" {
		return fmt.Errorf("catalog_file is required")
	}
	if c.ManifestFile == "" {
		return fmt.Errorf("manifest_file is required")
	}
	return nil
}

// manifest.json shapes. dbt renamed compiled_sql/raw_sql to *_code in v1.3;
// both spellings are accepted.
type manifest struct {
	Nodes map[string]manifestNode `json:"nodes"`
}

type manifestNode struct {
	ResourceType string                    `json:"resource_type"`
	Name         string                    `json:"name"`
	Schema       string                    `json:"schema"`
	Database     string                    `json:"database"`
	Description  string                    `json:"description"`
	CompiledSQL  string                    `json:"compiled_sql"`
	CompiledCode string                    `json:"compiled_code"`
	RawSQL       string                    `json:"raw_sql"`
	RawCode      string                    `json:"raw_code"`
	DependsOn    manifestDeps              `json:"depends_on"`
	Columns      map[string]manifestColumn `json:"columns"`
}

func (n manifestNode) compiled() string {
	if n.CompiledCode != "" {
		return n.CompiledCode
	}
	return n.CompiledSQL
}

type manifestDeps struct {
	Nodes []string `json:"nodes"`
}

type manifestColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// catalog.json shapes.
type catalog struct {
	Nodes map[string]catalogNode `json:"nodes"`
}

type catalogNode struct {
	Metadata catalogMetadata          `json:"metadata"`
	Columns  map[string]catalogColumn `json:"columns"`
}

type catalogMetadata struct {
	Type     string `json:"type"`
	Schema   string `json:"schema"`
	Name     string `json:"name"`
	Database string `json:"database"`
	Comment  string `json:"comment"`
}

type catalogColumn struct {
	Type    string `json:"type"`
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Comment string `json:"comment"`
}

// run_results.json shapes.
type runResults struct {
	Metadata struct {
		GeneratedAt time.Time `json:"generated_at"`
	} `json:"metadata"`
	Results []runResult `json:"results"`
}

type runResult struct {
	UniqueID string `json:"unique_id"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// Source reads dbt artifacts and emits catalog entities: one database, one
// table per model, lineage edges and test results.
type Source struct {
	config Config
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
	var man manifest
	if err := readJSONFile(s.config.ManifestFile, &man); err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	var cat catalog
	if err := readJSONFile(s.config.CatalogFile, &cat); err != nil {
		return fmt.Errorf("reading catalog: %w", err)
	}

	s.queue = s.buildRecords(man, cat)

	if s.config.RunResultsFile != "" {
		var rr runResults
		if err := readJSONFile(s.config.RunResultsFile, &rr); err != nil {
			return fmt.Errorf("reading run results: %w", err)
		}
		s.queue = append(s.queue, s.buildTestResults(man, rr)...)
	}

	s.logger.Info("dbt artifacts parsed",
		zap.String("service", s.config.ServiceName),
		zap.Int("records", len(s.queue)))
	return nil
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
	return nil
}

func (s *Source) databaseName() string {
	if s.config.Database != "" {
		return s.config.Database
	}
	return "default"
}

func (s *Source) buildRecords(man manifest, cat catalog) []entity.Record {
	records := []entity.Record{{
		Kind: entity.KindDatabase,
		Database: &entity.Database{
			Name:        s.databaseName(),
			Service:     s.config.ServiceName,
			ServiceType: s.config.ServiceType,
		},
	}}

	// Deterministic order keeps runs and their reports reproducible.
	ids := make([]string, 0, len(man.Nodes))
	for id := range man.Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var edges []entity.Record
	for _, id := range ids {
		node := man.Nodes[id]
		if node.ResourceType != "model" {
			continue
		}

		table := s.buildTable(id, node, cat)
		records = append(records, entity.Record{Kind: entity.KindTable, Table: table})

		for _, up := range s.upstreams(id, node, man) {
			edges = append(edges, entity.Record{
				Kind: entity.KindLineage,
				Lineage: &entity.LineageEdge{
					From: up,
					To:   table.FullyQualifiedName,
				},
			})
		}
	}

	// Edges go after every table so both endpoints exist by the time the
	// sink sees them.
	return append(records, edges...)
}

func (s *Source) buildTable(id string, node manifestNode, cat catalog) *entity.Table {
	fqn := entity.BuildFQN(s.config.ServiceName, s.databaseName(), node.Schema, node.Name)

	table := &entity.Table{
		Name:               node.Name,
		FullyQualifiedName: fqn,
		TableType:          "Regular",
		Description:        node.Description,
		Database:           s.databaseName(),
		Service:            s.config.ServiceName,
		ServiceType:        s.config.ServiceType,
		ViewDefinition:     node.compiled(),
	}

	catNode, ok := cat.Nodes[id]
	if !ok {
		// dbt only writes catalog entries for models that have been built.
		s.status.Warning(fqn, "model missing from catalog, columns unknown")
		return table
	}

	if t := strings.ToLower(catNode.Metadata.Type); strings.Contains(t, "view") {
		table.TableType = "View"
	}
	if catNode.Metadata.Comment != "" && table.Description == "" {
		table.Description = catNode.Metadata.Comment
	}

	cols := make([]entity.Column, 0, len(catNode.Columns))
	for _, cc := range catNode.Columns {
		col := entity.Column{
			Name:     cc.Name,
			DataType: cc.Type, // type text preserved verbatim
			Ordinal:  cc.Index,
		}
		if mc, ok := node.Columns[cc.Name]; ok && mc.Description != "" {
			col.Description = mc.Description
		} else if cc.Comment != "" {
			col.Description = cc.Comment
		}
		cols = append(cols, col)
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Ordinal < cols[j].Ordinal })
	table.Columns = cols

	return table
}

// upstreams resolves the tables a model is derived from, merging the
// manifest dependency graph with tables referenced by the compiled SQL.
func (s *Source) upstreams(id string, node manifestNode, man manifest) []string {
	seen := make(map[string]struct{})

	for _, dep := range node.DependsOn.Nodes {
		up, ok := man.Nodes[dep]
		if !ok || up.ResourceType != "model" {
			continue
		}
		fqn := entity.BuildFQN(s.config.ServiceName, s.databaseName(), up.Schema, up.Name)
		seen[fqn] = struct{}{}
	}

	if sql := node.compiled(); sql != "" {
		tables, err := lineage.ParseModelSQL(sql)
		if err != nil {
			s.status.Warning(id, fmt.Sprintf("lineage sql parse: %v", err))
		}
		for _, t := range tables {
			// Qualify bare or schema-qualified names under this service.
			fqn := entity.BuildFQN(s.config.ServiceName, s.databaseName(), t)
			if !strings.HasSuffix(fqn, "."+node.Name) { // a model does not feed itself
				seen[fqn] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for fqn := range seen {
		out = append(out, fqn)
	}
	sort.Strings(out)
	return out
}

func (s *Source) buildTestResults(man manifest, rr runResults) []entity.Record {
	var records []entity.Record
	for _, res := range rr.Results {
		if !strings.HasPrefix(res.UniqueID, "test.") {
			continue
		}
		tr := &entity.TestResult{
			Name:       res.UniqueID,
			Status:     res.Status,
			Message:    res.Message,
			ExecutedAt: rr.Metadata.GeneratedAt,
		}
		if node, ok := man.Nodes[res.UniqueID]; ok && len(node.DependsOn.Nodes) > 0 {
			if target, ok := man.Nodes[node.DependsOn.Nodes[0]]; ok {
				tr.Table = entity.BuildFQN(s.config.ServiceName, s.databaseName(), target.Schema, target.Name)
			}
		}
		records = append(records, entity.Record{Kind: entity.KindTestResult, TestResult: tr})
	}
	return records
}

func readJSONFile(fpath string, out any) error {
	bs, err := os.ReadFile(fpath)
	if err != nil {
		return err
	}
	return json.Unmarshal(bs, out)
}
