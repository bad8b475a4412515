package docker

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/mis-esta/OpenMetadata/internal/ometa"
)

const (
	// DefaultServerURL is where the compose stack serves the catalog API.
	DefaultServerURL = "http://localhost:8585/api"

	defaultComposeFile = "docker-compose.yml"
	healthInterval     = 5 * time.Second
)

// Compose drives the local catalog stack through the docker compose CLI,
// which is the boundary the stack is distributed behind.
type Compose struct {
	file        string
	serverURL   string
	healthWait  time.Duration
	logger      *zap.Logger
	commandRunE func(ctx context.Context, args ...string) error
}

type Option func(*Compose)

func WithFile(file string) Option {
	return func(c *Compose) {
		if file != "" {
			c.file = file
		}
	}
}

func WithServerURL(url string) Option {
	return func(c *Compose) {
		c.serverURL = url
	}
}

func WithHealthWait(d time.Duration) Option {
	return func(c *Compose) {
		c.healthWait = d
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Compose) {
		c.logger = logger
	}
}

func New(opts ...Option) *Compose {
	c := &Compose{
		file:       defaultComposeFile,
		serverURL:  DefaultServerURL,
		healthWait: 5 * time.Minute,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.commandRunE == nil {
		c.commandRunE = c.runCompose
	}
	return c
}

func (c *Compose) runCompose(ctx context.Context, args ...string) error {
	full := append([]string{"compose", "-f", c.file}, args...)
	c.logger.Info("running docker", zap.Strings("args", full))

	cmd := exec.CommandContext(ctx, "docker", full...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker %v: %w", args, err)
	}
	return nil
}

// Start brings the stack up and blocks until the metadata server answers its
// health endpoint. The web UI is on port 8585 and the orchestration UI on
// 8080 once this returns.
func (c *Compose) Start(ctx context.Context) error {
	if err := c.commandRunE(ctx, "up", "-d"); err != nil {
		return err
	}
	return c.waitHealthy(ctx)
}

// Stop stops the containers, keeping volumes.
func (c *Compose) Stop(ctx context.Context) error {
	return c.commandRunE(ctx, "stop")
}

// Clean tears down containers and volumes.
func (c *Compose) Clean(ctx context.Context) error {
	return c.commandRunE(ctx, "down", "--volumes")
}

func (c *Compose) waitHealthy(ctx context.Context) error {
	client, err := ometa.New(c.serverURL, ometa.WithLogger(c.logger.Named("health")))
	if err != nil {
		return err
	}

	deadline := time.Now().Add(c.healthWait)
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()

	c.logger.Info("waiting for metadata server", zap.String("url", c.serverURL))
	for {
		if err := client.HealthCheck(ctx); err == nil {
			c.logger.Info("metadata server is up", zap.String("url", c.serverURL))
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("metadata server did not become healthy within %s", c.healthWait)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
