package config

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mis-esta/OpenMetadata/internal/ometa"
	"github.com/mis-esta/OpenMetadata/internal/sink"
	"github.com/mis-esta/OpenMetadata/internal/source/dbt"
	"github.com/mis-esta/OpenMetadata/internal/source/mongo"
	"github.com/mis-esta/OpenMetadata/internal/source/postgres"
	"github.com/mis-esta/OpenMetadata/internal/stage"
	"github.com/mis-esta/OpenMetadata/internal/workflow"
)

// InitializeWorkflow wires a runnable workflow from a loaded config.
func InitializeWorkflow(c *Workflow, logger *zap.Logger) (*workflow.Workflow, error) {
	src, err := initializeSource(c, logger)
	if err != nil {
		return nil, err
	}

	snk, err := initializeSink(c, logger)
	if err != nil {
		return nil, err
	}

	return workflow.New(
		workflow.WithID(uuid.NewString()),
		workflow.WithLogger(logger),
		workflow.WithSource(src),
		workflow.WithSink(snk),
	), nil
}

func initializeSource(c *Workflow, logger *zap.Logger) (workflow.Source, error) {
	switch c.Source.Type {
	case "dbt":
		var cfg dbt.Config
		if err := c.Source.Decode(&cfg); err != nil {
			return nil, err
		}
		return dbt.New(cfg, dbt.WithLogger(logger.Named("source.dbt")))
	case "postgres":
		var cfg postgres.Config
		if err := c.Source.Decode(&cfg); err != nil {
			return nil, err
		}
		return postgres.New(cfg, postgres.WithLogger(logger.Named("source.postgres")))
	case "mongodb":
		var cfg mongo.Config
		if err := c.Source.Decode(&cfg); err != nil {
			return nil, err
		}
		return mongo.New(cfg, mongo.WithLogger(logger.Named("source.mongodb")))
	default:
		return nil, fmt.Errorf("unknown source type: %s", c.Source.Type)
	}
}

func initializeSink(c *Workflow, logger *zap.Logger) (workflow.Sink, error) {
	sinkType := "metadata-rest"
	component := c.Sink
	if component != nil {
		sinkType = component.Type
	}

	switch sinkType {
	case "metadata-rest":
		client, err := NewMetadataClient(c, logger)
		if err != nil {
			return nil, err
		}
		return sink.NewRest(client, sink.RestWithLogger(logger.Named("sink.rest"))), nil

	case "elasticsearch":
		var cfg sink.ElasticsearchConfig
		if err := component.Decode(&cfg); err != nil {
			return nil, err
		}
		return sink.NewElasticsearch(cfg, sink.ElasticsearchWithLogger(logger.Named("sink.elasticsearch")))

	case "kafka":
		var cfg sink.KafkaConfig
		if err := component.Decode(&cfg); err != nil {
			return nil, err
		}
		return sink.NewKafka(cfg, sink.KafkaWithLogger(logger.Named("sink.kafka")))

	case "file":
		var cfg sink.FileConfig
		if component != nil {
			if err := component.Decode(&cfg); err != nil {
				return nil, err
			}
		}
		repo, err := initializeStage(c, logger)
		if err != nil {
			return nil, err
		}
		return sink.NewFile(cfg, repo, sink.FileWithLogger(logger.Named("sink.file")))

	default:
		return nil, fmt.Errorf("unknown sink type: %s", sinkType)
	}
}

type localStageConfig struct {
	Path string `json:"path"`
}

type s3StageConfig struct {
	Bucket         string `json:"bucket"`
	Region         string `json:"region"`
	Prefix         string `json:"prefix"`
	Endpoint       string `json:"endpoint"`
	ForcePathStyle bool   `json:"force_path_style"`
}

func initializeStage(c *Workflow, logger *zap.Logger) (stage.Repository, error) {
	if c.Stage == nil {
		return stage.NewLocal("./ingest-output",
			stage.LocalWithLogger(logger.Named("stage.local"))), nil
	}

	switch c.Stage.Type {
	case "local":
		var cfg localStageConfig
		if err := c.Stage.Decode(&cfg); err != nil {
			return nil, err
		}
		if cfg.Path == "" {
			cfg.Path = "./ingest-output"
		}
		return stage.NewLocal(cfg.Path,
			stage.LocalWithLogger(logger.Named("stage.local"))), nil
	case "s3":
		var cfg s3StageConfig
		if err := c.Stage.Decode(&cfg); err != nil {
			return nil, err
		}
		return stage.NewS3(
			stage.S3WithLogger(logger.Named("stage.s3")),
			stage.S3WithRegion(cfg.Region),
			stage.S3WithBucket(cfg.Bucket),
			stage.S3WithPrefix(cfg.Prefix),
			stage.S3WithEndpoint(cfg.Endpoint),
			stage.S3WithForcePathStyle(cfg.ForcePathStyle),
		)
	default:
		return nil, fmt.Errorf("unknown stage type: %s", c.Stage.Type)
	}
}

// NewMetadataClient builds the metadata server client from the
// metadata_server block.
func NewMetadataClient(c *Workflow, logger *zap.Logger) (*ometa.Client, error) {
	msc, err := c.MetadataServerConfig()
	if err != nil {
		return nil, err
	}
	if msc == nil {
		return nil, fmt.Errorf("metadata_server block is required")
	}

	provider, err := ometa.NewProvider(msc.AuthProviderType, msc.SecretKey)
	if err != nil {
		return nil, err
	}

	return ometa.New(
		msc.APIEndpoint,
		ometa.WithAuthProvider(provider),
		ometa.WithLogger(logger.Named("ometa")),
	)
}
