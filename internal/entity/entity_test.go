package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFQN(t *testing.T) {
	assert.Equal(t, "svc.db.schema.table", BuildFQN("svc", "db", "schema", "table"))
	assert.Equal(t, "svc.table", BuildFQN("svc", "", "table"))
	assert.Equal(t, "", BuildFQN())
}

func TestTagLabelIsTier(t *testing.T) {
	assert.True(t, TagLabel{TagFQN: "Tier.Tier1"}.IsTier())
	assert.False(t, TagLabel{TagFQN: "PII.Sensitive"}.IsTier())
}

func TestRecordName(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{
			name: "database",
			rec:  Record{Kind: KindDatabase, Database: &Database{Name: "db", Service: "svc"}},
			want: "svc.db",
		},
		{
			name: "table",
			rec:  Record{Kind: KindTable, Table: &Table{FullyQualifiedName: "svc.db.t"}},
			want: "svc.db.t",
		},
		{
			name: "lineage",
			rec:  Record{Kind: KindLineage, Lineage: &LineageEdge{From: "a", To: "b"}},
			want: "a -> b",
		},
		{
			name: "test result",
			rec:  Record{Kind: KindTestResult, TestResult: &TestResult{Name: "not_null_id"}},
			want: "not_null_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.Name())
		})
	}
}

func TestFlattenColumnNames(t *testing.T) {
	cols := []Column{
		{Name: "id"},
		{Name: "address", Children: []Column{
			{Name: "street"},
			{Name: "geo", Children: []Column{{Name: "lat"}}},
		}},
	}
	assert.Equal(t,
		[]string{"id", "address", "address.street", "address.geo", "address.geo.lat"},
		FlattenColumnNames(cols))
}
