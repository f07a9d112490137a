package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/pesio-ai/be-cr-requests/internal/errors"
	"github.com/pesio-ai/be-cr-requests/internal/repository"
)

// SectorRepository is an in-memory sector store.
type SectorRepository struct {
	mu      sync.RWMutex
	sectors map[string]*repository.Sector
}

// NewSectorRepository creates an empty in-memory sector repository.
func NewSectorRepository() *SectorRepository {
	return &SectorRepository{sectors: make(map[string]*repository.Sector)}
}

func (r *SectorRepository) Create(_ context.Context, sector *repository.Sector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.sectors {
		if existing.Name == sector.Name {
			return errors.Conflict("sector name already exists: " + sector.Name)
		}
	}
	if sector.ID == "" {
		sector.ID = uuid.New().String()
	}
	r.sectors[sector.ID] = cloneSector(sector)
	return nil
}

func (r *SectorRepository) GetByID(_ context.Context, id string) (*repository.Sector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sector, ok := r.sectors[id]
	if !ok {
		return nil, errors.NotFound("sector", id)
	}
	return cloneSector(sector), nil
}

func (r *SectorRepository) List(_ context.Context) ([]*repository.Sector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sectors := make([]*repository.Sector, 0, len(r.sectors))
	for _, sector := range r.sectors {
		sectors = append(sectors, cloneSector(sector))
	}
	sort.Slice(sectors, func(i, j int) bool { return sectors[i].Name < sectors[j].Name })
	return sectors, nil
}

// ProcessRepository is an in-memory process store. It resolves sector
// associations against a SectorRepository.
type ProcessRepository struct {
	mu        sync.RWMutex
	processes map[string]*repository.Process
	assoc     map[string][]string // process id -> sector ids
	sectors   *SectorRepository
}

// NewProcessRepository creates an empty in-memory process repository backed
// by the given sector store.
func NewProcessRepository(sectors *SectorRepository) *ProcessRepository {
	return &ProcessRepository{
		processes: make(map[string]*repository.Process),
		assoc:     make(map[string][]string),
		sectors:   sectors,
	}
}

func (r *ProcessRepository) Create(_ context.Context, process *repository.Process, sectorIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.processes {
		if existing.Name == process.Name {
			return errors.Conflict("process name already exists: " + process.Name)
		}
	}
	if process.ID == "" {
		process.ID = uuid.New().String()
	}
	stored := &repository.Process{
		ID:            process.ID,
		Name:          process.Name,
		NextProcessID: process.NextProcessID,
		CreatedAt:     process.CreatedAt,
		UpdatedAt:     process.UpdatedAt,
	}
	r.processes[process.ID] = stored
	r.assoc[process.ID] = append([]string(nil), sectorIDs...)
	return nil
}

// SetNextProcess rewires a process's successor pointer. Administrative
// helper for building chains after all processes exist.
func (r *ProcessRepository) SetNextProcess(id string, nextID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	process, ok := r.processes[id]
	if !ok {
		return errors.NotFound("process", id)
	}
	process.NextProcessID = nextID
	return nil
}

func (r *ProcessRepository) GetByID(ctx context.Context, id string) (*repository.Process, error) {
	r.mu.RLock()
	process, ok := r.processes[id]
	if !ok {
		r.mu.RUnlock()
		return nil, errors.NotFound("process", id)
	}
	out := &repository.Process{
		ID:            process.ID,
		Name:          process.Name,
		NextProcessID: process.NextProcessID,
		CreatedAt:     process.CreatedAt,
		UpdatedAt:     process.UpdatedAt,
	}
	sectorIDs := append([]string(nil), r.assoc[id]...)
	r.mu.RUnlock()

	sectors, err := r.loadSectors(ctx, sectorIDs)
	if err != nil {
		return nil, err
	}
	out.Sectors = sectors
	return out, nil
}

func (r *ProcessRepository) List(ctx context.Context) ([]*repository.Process, error) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.processes))
	for id := range r.processes {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	processes := make([]*repository.Process, 0, len(ids))
	for _, id := range ids {
		process, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		processes = append(processes, process)
	}
	sort.Slice(processes, func(i, j int) bool { return processes[i].Name < processes[j].Name })
	return processes, nil
}

func (r *ProcessRepository) loadSectors(ctx context.Context, sectorIDs []string) ([]*repository.Sector, error) {
	sectors := make([]*repository.Sector, 0, len(sectorIDs))
	for _, sectorID := range sectorIDs {
		sector, err := r.sectors.GetByID(ctx, sectorID)
		if err != nil {
			return nil, err
		}
		sectors = append(sectors, sector)
	}
	sort.Slice(sectors, func(i, j int) bool { return sectors[i].Name < sectors[j].Name })
	return sectors, nil
}

func cloneSector(sector *repository.Sector) *repository.Sector {
	out := *sector
	return &out
}
