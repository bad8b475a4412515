package dbt

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mis-esta/OpenMetadata/internal/entity"
)

func newTestSource(t *testing.T, withRunResults bool) *Source {
	t.Helper()

	cfg := Config{
		ServiceName:  "jaffle",
		ServiceType:  "BigQuery",
		CatalogFile:  "testdata/catalog.json",
		ManifestFile: "testdata/manifest.json",
		Database:     "warehouse",
	}
	if withRunResults {
		cfg.RunResultsFile = "testdata/run_results.json"
	}

	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func drain(t *testing.T, s *Source) []entity.Record {
	t.Helper()

	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	defer s.Close(ctx)

	var records []entity.Record
	for {
		rec, err := s.Next(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		records = append(records, rec)
	}
	return records
}

func recordsOfKind(records []entity.Record, kind entity.Kind) []entity.Record {
	var out []entity.Record
	for _, r := range records {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out
}

func TestSourceValidation(t *testing.T) {
	t.Run("missing service_name", func(t *testing.T) {
		_, err := New(Config{CatalogFile: "c", ManifestFile: "m"})
		assert.ErrorContains(t, err, "service_name")
	})

	t.Run("missing catalog_file", func(t *testing.T) {
		_, err := New(Config{ServiceName: "svc", ManifestFile: "m"})
		assert.ErrorContains(t, err, "catalog_file")
	})
}

func TestSourceEmitsDatabaseFirst(t *testing.T) {
	s := newTestSource(t, false)
	records := drain(t, s)

	require.NotEmpty(t, records)
	assert.Equal(t, entity.KindDatabase, records[0].Kind)
	assert.Equal(t, "warehouse", records[0].Database.Name)
	assert.Equal(t, "jaffle", records[0].Database.Service)
	assert.Equal(t, "BigQuery", records[0].Database.ServiceType)
}

func TestSourceTables(t *testing.T) {
	s := newTestSource(t, false)
	records := drain(t, s)

	tables := recordsOfKind(records, entity.KindTable)
	require.Len(t, tables, 3)

	byName := make(map[string]*entity.Table)
	for _, r := range tables {
		byName[r.Table.Name] = r.Table
	}

	t.Run("columns merge catalog types with manifest descriptions", func(t *testing.T) {
		customers := byName["customers"]
		require.NotNil(t, customers)
		assert.Equal(t, "jaffle.warehouse.analytics.customers", customers.FullyQualifiedName)
		assert.Equal(t, "Regular", customers.TableType)
		assert.Equal(t, "One row per customer with order rollups.", customers.Description)

		require.Len(t, customers.Columns, 2)
		assert.Equal(t, "customer_id", customers.Columns[0].Name)
		assert.Equal(t, "integer", customers.Columns[0].DataType)
		assert.Equal(t, "Primary key.", customers.Columns[0].Description)
		assert.Equal(t, "number_of_orders", customers.Columns[1].Name)
		assert.Equal(t, "bigint", customers.Columns[1].DataType)
	})

	t.Run("views are typed as views", func(t *testing.T) {
		stgOrders := byName["stg_orders"]
		require.NotNil(t, stgOrders)
		assert.Equal(t, "View", stgOrders.TableType)
		require.Len(t, stgOrders.Columns, 4)

		// Manifest description wins over the catalog comment.
		assert.Equal(t, "Order lifecycle status.", stgOrders.Columns[3].Description)
	})

	t.Run("model missing from catalog is a warning", func(t *testing.T) {
		unbuilt := byName["unbuilt"]
		require.NotNil(t, unbuilt)
		assert.Empty(t, unbuilt.Columns)
		assert.Contains(t, s.Status().Warnings, "jaffle.warehouse.analytics.unbuilt")
	})

	t.Run("seeds are skipped", func(t *testing.T) {
		assert.NotContains(t, byName, "raw_orders")
	})
}

func TestSourceLineage(t *testing.T) {
	s := newTestSource(t, false)
	records := drain(t, s)

	edges := recordsOfKind(records, entity.KindLineage)
	require.NotEmpty(t, edges)

	var toCustomers []string
	for _, r := range edges {
		if r.Lineage.To == "jaffle.warehouse.analytics.customers" {
			toCustomers = append(toCustomers, r.Lineage.From)
		}
	}
	// depends_on contributes stg_orders; the compiled SQL adds raw_customers.
	assert.Equal(t, []string{
		"jaffle.warehouse.analytics.stg_orders",
		"jaffle.warehouse.raw_customers",
	}, toCustomers)
}

func TestSourceLineageAfterTables(t *testing.T) {
	s := newTestSource(t, false)
	records := drain(t, s)

	lastTable := -1
	firstEdge := len(records)
	for i, r := range records {
		switch r.Kind {
		case entity.KindTable:
			lastTable = i
		case entity.KindLineage:
			if i < firstEdge {
				firstEdge = i
			}
		}
	}
	assert.Greater(t, firstEdge, lastTable)
}

func TestSourceRunResults(t *testing.T) {
	s := newTestSource(t, true)
	records := drain(t, s)

	results := recordsOfKind(records, entity.KindTestResult)
	require.Len(t, results, 1)

	tr := results[0].TestResult
	assert.Equal(t, "test.jaffle_shop.not_null_stg_orders_order_id", tr.Name)
	assert.Equal(t, "pass", tr.Status)
	assert.Equal(t, "jaffle.warehouse.analytics.stg_orders", tr.Table)
	assert.False(t, tr.ExecutedAt.IsZero())
}

func TestSourceStatusTracksScannedRecords(t *testing.T) {
	s := newTestSource(t, false)
	records := drain(t, s)

	assert.Len(t, s.Status().Success, len(records))
}
