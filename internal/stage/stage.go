package stage

import (
	"context"
	"io"
)

// Repository is a destination for staged ingestion output.
type Repository interface {
	Write(ctx context.Context, key string, reader io.Reader) error
}
