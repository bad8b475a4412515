package ometa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mis-esta/OpenMetadata/internal/entity"
)

func TestNew(t *testing.T) {
	t.Run("endpoint required", func(t *testing.T) {
		_, err := New("")
		assert.ErrorContains(t, err, "api_endpoint")
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		c, err := New("http://localhost:8585/api/")
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8585/api", c.endpoint)
	})
}

func TestHealthCheck(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/health-check", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)
	assert.NoError(t, c.HealthCheck(context.Background()))
}

func TestCreateOrUpdateTable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/v1/tables", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var table entity.Table
		require.NoError(t, json.NewDecoder(r.Body).Decode(&table))
		table.ID = "6f3b8c1e"
		json.NewEncoder(w).Encode(table)
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)

	created, err := c.CreateOrUpdateTable(context.Background(), &entity.Table{
		Name:               "orders",
		FullyQualifiedName: "svc.db.orders",
	})
	require.NoError(t, err)
	assert.Equal(t, "6f3b8c1e", created.ID)
	assert.Equal(t, "orders", created.Name)
}

func TestAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "entity validation failed", http.StatusBadRequest)
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)

	_, err = c.CreateOrUpdateDatabase(context.Background(), &entity.Database{Name: "db", Service: "svc"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "entity validation failed")
}

func TestAuthHeader(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	t.Run("no-auth sends no header", func(t *testing.T) {
		c, err := New(ts.URL)
		require.NoError(t, err)
		require.NoError(t, c.HealthCheck(context.Background()))
		assert.Empty(t, gotAuth)
	})

	t.Run("static token sends bearer", func(t *testing.T) {
		c, err := New(ts.URL, WithAuthProvider(StaticToken{Value: "sekret"}))
		require.NoError(t, err)
		require.NoError(t, c.HealthCheck(context.Background()))
		assert.Equal(t, "Bearer sekret", gotAuth)
	})
}

func TestAddLineage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/lineage", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		edge := body["edge"].(map[string]any)
		from := edge["fromEntity"].(map[string]any)
		assert.Equal(t, "svc.db.stg_orders", from["name"])
		assert.Equal(t, "table", from["type"])
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)
	assert.NoError(t, c.AddLineage(context.Background(), &entity.LineageEdge{
		From: "svc.db.stg_orders",
		To:   "svc.db.customers",
	}))
}

func TestNewProvider(t *testing.T) {
	t.Run("default is no-auth", func(t *testing.T) {
		p, err := NewProvider("", "")
		require.NoError(t, err)
		token, err := p.Token(context.Background())
		require.NoError(t, err)
		assert.Empty(t, token)
	})

	t.Run("okta uses static token", func(t *testing.T) {
		p, err := NewProvider("okta", "tok")
		require.NoError(t, err)
		token, err := p.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok", token)
	})

	t.Run("okta without token fails", func(t *testing.T) {
		t.Setenv(tokenEnvVar, "")
		_, err := NewProvider("okta", "")
		assert.Error(t, err)
	})

	t.Run("token from environment", func(t *testing.T) {
		t.Setenv(tokenEnvVar, "env-tok")
		p, err := NewProvider("google", "")
		require.NoError(t, err)
		token, err := p.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "env-tok", token)
	})

	t.Run("unknown provider", func(t *testing.T) {
		_, err := NewProvider("saml", "")
		assert.ErrorContains(t, err, "unknown auth provider")
	})
}
