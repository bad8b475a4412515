package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Component is a typed block with an opaque config payload. The payload keys
// belong to the component implementation and pass through untouched.
type Component struct {
	Type   string         `json:"type" yaml:"type"`
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// Decode unmarshals the opaque config payload into a typed struct using its
// json tags.
func (c Component) Decode(out any) error {
	bs, err := json.Marshal(c.Config)
	if err != nil {
		return err
	}
	return json.Unmarshal(bs, out)
}

type MetadataServerConfig struct {
	APIEndpoint      string `json:"api_endpoint" yaml:"api_endpoint"`
	AuthProviderType string `json:"auth_provider_type,omitempty" yaml:"auth_provider_type,omitempty"`
	SecretKey        string `json:"secret_key,omitempty" yaml:"secret_key,omitempty"`
}

// Workflow is the root of an ingestion config file. The documented contract
// is JSON with source, optional sink and stage, and metadata_server blocks.
type Workflow struct {
	Source         Component  `json:"source" yaml:"source"`
	Sink           *Component `json:"sink,omitempty" yaml:"sink,omitempty"`
	Stage          *Component `json:"stage,omitempty" yaml:"stage,omitempty"`
	MetadataServer *Component `json:"metadata_server,omitempty" yaml:"metadata_server,omitempty"`
	ReportAddr     string     `json:"report_addr,omitempty" yaml:"report_addr,omitempty"`
}

// MetadataServerConfig decodes the metadata_server block, if present.
func (w *Workflow) MetadataServerConfig() (*MetadataServerConfig, error) {
	if w.MetadataServer == nil {
		return nil, nil
	}
	var msc MetadataServerConfig
	if err := w.MetadataServer.Decode(&msc); err != nil {
		return nil, err
	}
	return &msc, nil
}

func (w *Workflow) Validate() error {
	if w.Source.Type == "" {
		return fmt.Errorf("source.type is required")
	}
	// A missing sink defaults to the metadata REST sink, which needs the
	// server block.
	if w.Sink == nil || w.Sink.Type == "metadata-rest" {
		msc, err := w.MetadataServerConfig()
		if err != nil {
			return err
		}
		if msc == nil || msc.APIEndpoint == "" {
			return fmt.Errorf("metadata_server.config.api_endpoint is required for the metadata-rest sink")
		}
	}
	return nil
}

// NewWorkflowFromFile loads a workflow config. JSON is the documented format;
// .yml/.yaml files are accepted with the same shape.
func NewWorkflowFromFile(fpath string) (*Workflow, error) {
	bs, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}

	var w Workflow
	switch strings.ToLower(filepath.Ext(fpath)) {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(bs, &w)
	default:
		err = json.Unmarshal(bs, &w)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", fpath, err)
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}
