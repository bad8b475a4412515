package entity

import (
	"strings"
	"time"
)

// Kind identifies the type of entity carried by a Record.
type Kind string

const (
	KindDatabase   Kind = "database"
	KindTable      Kind = "table"
	KindLineage    Kind = "lineage"
	KindTestResult Kind = "testResult"
)

// Record is the envelope passed from sources to sinks. Exactly one of the
// entity fields is set, selected by Kind.
type Record struct {
	Kind Kind `json:"kind"`

	Database   *Database    `json:"database,omitempty"`
	Table      *Table       `json:"table,omitempty"`
	Lineage    *LineageEdge `json:"lineage,omitempty"`
	TestResult *TestResult  `json:"testResult,omitempty"`
}

// Name returns a human readable identifier for status reporting.
func (r Record) Name() string {
	switch r.Kind {
	case KindDatabase:
		return r.Database.FullyQualifiedName()
	case KindTable:
		return r.Table.FullyQualifiedName
	case KindLineage:
		return r.Lineage.From + " -> " + r.Lineage.To
	case KindTestResult:
		return r.TestResult.Name
	}
	return "unknown"
}

// EntityReference points at an entity by type and fully qualified name.
type EntityReference struct {
	ID   string `json:"id,omitempty"`
	Type string `json:"type"`
	Name string `json:"name"`
}

// TagLabel is a tag applied to a table or column. Tier tags use the
// "Tier.TierN" FQN convention.
type TagLabel struct {
	TagFQN string `json:"tagFQN"`
}

// IsTier reports whether the label belongs to the Tier category.
func (t TagLabel) IsTier() bool {
	return strings.HasPrefix(t.TagFQN, "Tier.")
}

type Database struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Service     string `json:"service"`
	ServiceType string `json:"serviceType,omitempty"`
	Description string `json:"description,omitempty"`
}

// FullyQualifiedName is service.database.
func (d Database) FullyQualifiedName() string {
	return d.Service + "." + d.Name
}

type Column struct {
	Name        string     `json:"name"`
	DataType    string     `json:"dataType"`
	Description string     `json:"description,omitempty"`
	Ordinal     int        `json:"ordinalPosition,omitempty"`
	Nullable    bool       `json:"nullable,omitempty"`
	Tags        []TagLabel `json:"tags,omitempty"`
	Children    []Column   `json:"children,omitempty"`
}

type Table struct {
	ID                 string     `json:"id,omitempty"`
	Name               string     `json:"name"`
	FullyQualifiedName string     `json:"fullyQualifiedName"`
	TableType          string     `json:"tableType,omitempty"`
	Description        string     `json:"description,omitempty"`
	Database           string     `json:"database"`
	Service            string     `json:"service"`
	ServiceType        string     `json:"serviceType,omitempty"`
	Columns            []Column   `json:"columns"`
	Tags               []TagLabel `json:"tags,omitempty"`
	Owner              string     `json:"owner,omitempty"`
	ViewDefinition     string     `json:"viewDefinition,omitempty"`
}

// LineageEdge records that To is derived from From. Names are fully
// qualified table names.
type LineageEdge struct {
	From string `json:"fromEntity"`
	To   string `json:"toEntity"`
}

// TestResult is the outcome of a single quality test run against a table.
type TestResult struct {
	Name       string    `json:"name"`
	Table      string    `json:"table,omitempty"`
	Status     string    `json:"status"`
	Message    string    `json:"message,omitempty"`
	ExecutedAt time.Time `json:"executedAt,omitempty"`
}

// BuildFQN joins non-empty name parts with dots.
func BuildFQN(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ".")
}

// FlattenColumnNames returns dotted column paths, descending into nested
// children the way struct columns nest.
func FlattenColumnNames(cols []Column) []string {
	var names []string
	var walk func(prefix string, cols []Column)
	walk = func(prefix string, cols []Column) {
		for _, c := range cols {
			name := c.Name
			if prefix != "" {
				name = prefix + "." + c.Name
			}
			names = append(names, name)
			if len(c.Children) > 0 {
				walk(name, c.Children)
			}
		}
	}
	walk("", cols)
	return names
}
