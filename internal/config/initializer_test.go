package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitializeWorkflow(t *testing.T) {
	t.Run("dbt source with file sink", func(t *testing.T) {
		c := &Workflow{
			Source: Component{
				Type: "dbt",
				Config: map[string]any{
					"service_name":  "svc",
					"catalog_file":  "catalog.json",
					"manifest_file": "manifest.json",
				},
			},
			Sink: &Component{Type: "file"},
		}

		wf, err := InitializeWorkflow(c, zap.NewNop())
		require.NoError(t, err)
		assert.NotEmpty(t, wf.ID)
	})

	t.Run("default sink is metadata-rest", func(t *testing.T) {
		c := &Workflow{
			Source: Component{
				Type: "dbt",
				Config: map[string]any{
					"service_name":  "svc",
					"catalog_file":  "catalog.json",
					"manifest_file": "manifest.json",
				},
			},
			MetadataServer: &Component{
				Type: "metadata-server",
				Config: map[string]any{
					"api_endpoint": "http://localhost:8585/api",
				},
			},
		}

		_, err := InitializeWorkflow(c, zap.NewNop())
		require.NoError(t, err)
	})

	t.Run("unknown source type", func(t *testing.T) {
		c := &Workflow{Source: Component{Type: "oracle"}}
		_, err := InitializeWorkflow(c, zap.NewNop())
		assert.ErrorContains(t, err, "unknown source type")
	})

	t.Run("invalid source config", func(t *testing.T) {
		c := &Workflow{Source: Component{Type: "dbt", Config: map[string]any{}}}
		_, err := InitializeWorkflow(c, zap.NewNop())
		assert.ErrorContains(t, err, "service_name")
	})

	t.Run("unknown sink type", func(t *testing.T) {
		c := &Workflow{
			Source: Component{
				Type: "dbt",
				Config: map[string]any{
					"service_name":  "svc",
					"catalog_file":  "catalog.json",
					"manifest_file": "manifest.json",
				},
			},
			Sink: &Component{Type: "graphite"},
		}
		_, err := InitializeWorkflow(c, zap.NewNop())
		assert.ErrorContains(t, err, "unknown sink type")
	})
}
