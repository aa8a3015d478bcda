package inmem

import (
	"context"
	"fmt"
	"time"

	"github.com/dekarrin/express/internal/util"
	"github.com/dekarrin/express/server/dao"
	"github.com/google/uuid"
)

func NewRunsRepository() *InMemoryRunsRepository {
	return &InMemoryRunsRepository{
		runs:             make(map[uuid.UUID]dao.Run),
		byProgramIDIndex: make(map[uuid.UUID][]uuid.UUID),
	}
}

type InMemoryRunsRepository struct {
	runs             map[uuid.UUID]dao.Run
	byProgramIDIndex map[uuid.UUID][]uuid.UUID
}

func (imrr *InMemoryRunsRepository) Close() error {
	return nil
}

func (imrr *InMemoryRunsRepository) Create(ctx context.Context, r dao.Run) (dao.Run, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Run{}, fmt.Errorf("could not generate ID: %w", err)
	}

	r.ID = newUUID
	r.Created = time.Now()

	imrr.runs[r.ID] = r

	byProgram := imrr.byProgramIDIndex[r.ProgramID]
	byProgram = append(byProgram, r.ID)
	imrr.byProgramIDIndex[r.ProgramID] = byProgram

	return r, nil
}

func (imrr *InMemoryRunsRepository) GetByID(ctx context.Context, id uuid.UUID) (dao.Run, error) {
	r, ok := imrr.runs[id]
	if !ok {
		return dao.Run{}, dao.ErrNotFound
	}

	return r, nil
}

// GetAllByProgram returns every recorded Run for the given program, ordered
// by Tick so a caller can walk a program's tick history in order.
func (imrr *InMemoryRunsRepository) GetAllByProgram(ctx context.Context, programID uuid.UUID) ([]dao.Run, error) {
	byProgram := imrr.byProgramIDIndex[programID]
	if len(byProgram) < 1 {
		return nil, dao.ErrNotFound
	}

	all := make([]dao.Run, len(byProgram))
	for i := range byProgram {
		all[i] = imrr.runs[byProgram[i]]
	}

	all = util.SortBy(all, func(l, r dao.Run) bool {
		return l.Tick < r.Tick
	})

	return all, nil
}

func (imrr *InMemoryRunsRepository) Delete(ctx context.Context, id uuid.UUID) (dao.Run, error) {
	r, ok := imrr.runs[id]
	if !ok {
		return dao.Run{}, dao.ErrNotFound
	}

	byProgram := imrr.byProgramIDIndex[r.ProgramID]
	updated := util.SliceRemove(r.ID, byProgram)
	imrr.byProgramIDIndex[r.ProgramID] = updated
	if len(updated) < 1 {
		delete(imrr.byProgramIDIndex, r.ProgramID)
	}
	delete(imrr.runs, r.ID)

	return r, nil
}
