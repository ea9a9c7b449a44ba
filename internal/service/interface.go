package service

import (
	"context"

	"github.com/godilite/activation-insights/internal/repository/models"
)

// SnapshotRepository loads the upstream table snapshot.
type SnapshotRepository interface {
	FetchSnapshot(ctx context.Context) (*models.Snapshot, error)
}
