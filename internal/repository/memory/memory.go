// Package memory provides in-memory repository implementations used by
// tests and local development. Semantics match the Postgres repositories:
// name-ordered reads, optimistic versioning, atomic state+history writes.
package memory

import (
	"github.com/pesio-ai/be-cr-requests/internal/repository"
)

var (
	_ repository.ProcessRepository      = (*ProcessRepository)(nil)
	_ repository.SectorRepository       = (*SectorRepository)(nil)
	_ repository.RequestRepository      = (*RequestRepository)(nil)
	_ repository.HistoryRepository      = (*RequestRepository)(nil)
	_ repository.NotificationRepository = (*NotificationRepository)(nil)
)
