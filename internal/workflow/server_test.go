package workflow

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestServerListWorkflows(t *testing.T) {
	server := NewServer(zap.NewNop())
	server.Register(New(WithID("wf-1")))

	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/workflows")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Count     int            `json:"count"`
		Workflows []WorkflowInfo `json:"workflows"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Workflows, 1)
	assert.Equal(t, "wf-1", body.Workflows[0].ID)
	assert.Equal(t, StateCreated, body.Workflows[0].State)
}

func TestServerGetWorkflow(t *testing.T) {
	server := NewServer(zap.NewNop())
	server.Register(New(WithID("wf-1")))

	ts := httptest.NewServer(server.Routes())
	defer ts.Close()

	t.Run("known workflow", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/workflows/wf-1")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)

		var info WorkflowInfo
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
		assert.Equal(t, "wf-1", info.ID)
	})

	t.Run("unknown workflow", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/api/v1/workflows/missing")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("unregistered workflow", func(t *testing.T) {
		server.Unregister("wf-1")
		resp, err := http.Get(ts.URL + "/api/v1/workflows/wf-1")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
