package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mis-esta/OpenMetadata/internal/entity"
	"github.com/mis-esta/OpenMetadata/internal/stage"
)

func TestFileSink(t *testing.T) {
	dir := t.TempDir()
	repo := stage.NewLocal(dir)

	s, err := NewFile(FileConfig{Filename: "out.jsonl"}, repo)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Open(ctx))

	records := []entity.Record{
		{Kind: entity.KindDatabase, Database: &entity.Database{Name: "db", Service: "svc"}},
		{Kind: entity.KindTable, Table: &entity.Table{Name: "orders", FullyQualifiedName: "svc.db.orders"}},
	}
	for _, rec := range records {
		require.NoError(t, s.Write(ctx, rec))
	}
	require.NoError(t, s.Close(ctx))

	f, err := os.Open(filepath.Join(dir, "out.jsonl"))
	require.NoError(t, err)
	defer f.Close()

	var lines []entity.Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec entity.Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		lines = append(lines, rec)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, lines, 2)
	assert.Equal(t, entity.KindDatabase, lines[0].Kind)
	assert.Equal(t, "svc.db.orders", lines[1].Table.FullyQualifiedName)
}

func TestFileSinkDefaults(t *testing.T) {
	t.Run("default filename", func(t *testing.T) {
		s, err := NewFile(FileConfig{}, stage.NewLocal(t.TempDir()))
		require.NoError(t, err)
		assert.Equal(t, "ingest.jsonl", s.filename)
	})

	t.Run("repository required", func(t *testing.T) {
		_, err := NewFile(FileConfig{}, nil)
		assert.Error(t, err)
	})
}

func TestFileSinkEmptyRunStagesNothing(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFile(FileConfig{Filename: "out.jsonl"}, stage.NewLocal(dir))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	require.NoError(t, s.Close(ctx))

	_, err = os.Stat(filepath.Join(dir, "out.jsonl"))
	assert.True(t, os.IsNotExist(err))
}
