package tunas

import (
	"context"
	"errors"

	"github.com/dekarrin/express/formula/graph"
	"github.com/dekarrin/express/formula/registry"
	"github.com/dekarrin/express/formula/stdlib"
	"github.com/dekarrin/express/server/dao"
	"github.com/dekarrin/express/server/serr"
	"github.com/google/uuid"
)

// GetAllPrograms returns every program currently in persistence.
func (svc Service) GetAllPrograms(ctx context.Context) ([]dao.Program, error) {
	progs, err := svc.DB.Programs().GetAll(ctx)
	if err != nil {
		return nil, serr.WrapDB("", err)
	}
	return progs, nil
}

// GetAllProgramsByUser returns every program owned by the user with the
// given ID.
func (svc Service) GetAllProgramsByUser(ctx context.Context, userID string) ([]dao.Program, error) {
	uuidID, err := uuid.Parse(userID)
	if err != nil {
		return nil, serr.New("user ID is not valid", serr.ErrBadArgument)
	}

	progs, err := svc.DB.Programs().GetAllByUser(ctx, uuidID)
	if err != nil {
		return nil, serr.WrapDB("could not get programs", err)
	}
	return progs, nil
}

// GetProgram returns the program with the given ID.
func (svc Service) GetProgram(ctx context.Context, id string) (dao.Program, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.Program{}, serr.New("ID is not valid", serr.ErrBadArgument)
	}

	prog, err := svc.DB.Programs().GetByID(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Program{}, serr.ErrNotFound
		}
		return dao.Program{}, serr.WrapDB("could not get program", err)
	}
	return prog, nil
}

// CreateProgram registers a new named formula set owned by userID. The
// definitions are validated by building an Interpreter from them before
// persisting; a formula set that does not build (unresolved ref, cycle, or
// empty root set) is rejected.
func (svc Service) CreateProgram(ctx context.Context, userID, name string, definitions map[string]string) (dao.Program, error) {
	if name == "" {
		return dao.Program{}, serr.New("name cannot be blank", serr.ErrBadArgument)
	}
	if len(definitions) == 0 {
		return dao.Program{}, serr.New("program must have at least one formula", serr.ErrBadArgument)
	}

	uuidUserID, err := uuid.Parse(userID)
	if err != nil {
		return dao.Program{}, serr.New("user ID is not valid", serr.ErrBadArgument)
	}

	if _, err := buildInterpreter(definitions); err != nil {
		return dao.Program{}, serr.New("formula set is invalid: "+err.Error(), serr.ErrInvalidFormulaSet)
	}

	newProg := dao.Program{
		UserID:      uuidUserID,
		Name:        name,
		Definitions: definitions,
	}

	prog, err := svc.DB.Programs().Create(ctx, newProg)
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.Program{}, serr.ErrAlreadyExists
		}
		return dao.Program{}, serr.WrapDB("could not create program", err)
	}
	return prog, nil
}

// UpdateProgram replaces the name and/or definitions of the program with the
// given ID. Like CreateProgram, the new definitions are validated by
// building an Interpreter from them before persisting.
func (svc Service) UpdateProgram(ctx context.Context, id, name string, definitions map[string]string) (dao.Program, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.Program{}, serr.New("ID is not valid", serr.ErrBadArgument)
	}
	if name == "" {
		return dao.Program{}, serr.New("name cannot be blank", serr.ErrBadArgument)
	}
	if len(definitions) == 0 {
		return dao.Program{}, serr.New("program must have at least one formula", serr.ErrBadArgument)
	}

	if _, err := buildInterpreter(definitions); err != nil {
		return dao.Program{}, serr.New("formula set is invalid: "+err.Error(), serr.ErrInvalidFormulaSet)
	}

	existing, err := svc.DB.Programs().GetByID(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Program{}, serr.New("program not found", serr.ErrNotFound)
		}
		return dao.Program{}, serr.WrapDB("", err)
	}

	existing.Name = name
	existing.Definitions = definitions

	updated, err := svc.DB.Programs().Update(ctx, uuidID, existing)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Program{}, serr.New("program not found", serr.ErrNotFound)
		}
		return dao.Program{}, serr.WrapDB("could not update program", err)
	}
	return updated, nil
}

// DeleteProgram deletes the program with the given ID and returns it as it
// existed just before deletion.
func (svc Service) DeleteProgram(ctx context.Context, id string) (dao.Program, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.Program{}, serr.New("ID is not valid", serr.ErrBadArgument)
	}

	prog, err := svc.DB.Programs().Delete(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Program{}, serr.ErrNotFound
		}
		return dao.Program{}, serr.WrapDB("could not delete program", err)
	}
	return prog, nil
}

// buildInterpreter constructs a fresh registry and Interpreter from
// definitions, the same construction a tick run performs, so that program
// creation/update rejects an invalid formula set immediately rather than at
// first tick.
func buildInterpreter(definitions map[string]string) (*graph.Interpreter, error) {
	ctx := registry.New()
	stdlib.Register(ctx)

	defs := make([]graph.Definition, 0, len(definitions))
	for name, source := range definitions {
		defs = append(defs, graph.Definition{Name: name, Source: source})
	}

	return graph.New(defs, ctx)
}
