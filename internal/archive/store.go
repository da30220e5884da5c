// Package archive persists received webhooks to a document or SQL store.
package archive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"signal-relay/internal/config"
	"signal-relay/internal/model"
)

//go:generate go run go.uber.org/mock/mockgen@v0.5.2 -source=store.go -destination=mock_store.go -package=archive

// ErrUnknownDriver is returned for an archive driver name with no backend.
var ErrUnknownDriver = errors.New("unknown archive driver")

// Store appends received webhooks. Implementations must be safe for
// concurrent use.
type Store interface {
	Save(ctx context.Context, rec model.Record) error
	Close(ctx context.Context) error
}

// New opens the backend selected by cfg.Archive.Driver. An empty driver
// yields a store that discards records.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.Archive.Driver {
	case config.ArchiveNone:
		return Nop{}, nil
	case config.ArchiveMongo:
		return NewMongoStore(ctx, cfg.Archive, logger)
	case config.ArchiveSQLite:
		return NewSQLiteStore(cfg.Archive.Path, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Archive.Driver)
	}
}

// Nop discards every record.
type Nop struct{}

func (Nop) Save(context.Context, model.Record) error { return nil }
func (Nop) Close(context.Context) error              { return nil }
