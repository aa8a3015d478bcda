package tunas

import (
	"context"
	"errors"
	"fmt"

	"github.com/dekarrin/express/formula/value"
	"github.com/dekarrin/express/server/dao"
	"github.com/dekarrin/express/server/serr"
	"github.com/google/uuid"
)

// RunTick builds an Interpreter from the program's current definitions,
// feeds it one tick's worth of named samples, runs a single ComputePass, and
// persists the sink results as a new Run. It returns the recorded Run.
//
// Building a fresh Interpreter per tick means stateful callables (acc, sma,
// ema) reset on every call; a program that needs state across ticks must be
// driven through repeated calls against the same in-process Interpreter
// (see cmd/formrepl), not through this persistence-backed endpoint. This
// endpoint exists to let a client pull a quick, stateless evaluation of a
// stored program and see it recorded.
func (svc Service) RunTick(ctx context.Context, programID string, samples map[string]value.TimeStep) (dao.Run, error) {
	uuidID, err := uuid.Parse(programID)
	if err != nil {
		return dao.Run{}, serr.New("program ID is not valid", serr.ErrBadArgument)
	}

	prog, err := svc.DB.Programs().GetByID(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Run{}, serr.New("program not found", serr.ErrNotFound)
		}
		return dao.Run{}, serr.WrapDB("", err)
	}

	interp, err := buildInterpreter(prog.Definitions)
	if err != nil {
		return dao.Run{}, serr.New("stored program is invalid: "+err.Error())
	}

	for name, sample := range samples {
		interp.SetInput(name, value.NewTimeStep(sample.Price, sample.Time))
	}

	sinks := interp.ComputePass()

	results := make(map[string]string, len(sinks))
	for name, v := range sinks {
		results[name] = v.String()
	}

	priorRuns, err := svc.DB.Runs().GetAllByProgram(ctx, uuidID)
	if err != nil {
		return dao.Run{}, serr.WrapDB("could not get prior runs", err)
	}

	run, err := svc.DB.Runs().Create(ctx, dao.Run{
		ProgramID: uuidID,
		Tick:      len(priorRuns) + 1,
		Results:   results,
	})
	if err != nil {
		return dao.Run{}, serr.WrapDB("could not record run", err)
	}
	return run, nil
}

// GetRun returns the run with the given ID.
func (svc Service) GetRun(ctx context.Context, id string) (dao.Run, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.Run{}, serr.New("ID is not valid", serr.ErrBadArgument)
	}

	run, err := svc.DB.Runs().GetByID(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Run{}, serr.ErrNotFound
		}
		return dao.Run{}, serr.WrapDB("could not get run", err)
	}
	return run, nil
}

// GetRunsByProgram returns every recorded run for the program with the
// given ID, in tick order.
func (svc Service) GetRunsByProgram(ctx context.Context, programID string) ([]dao.Run, error) {
	uuidID, err := uuid.Parse(programID)
	if err != nil {
		return nil, serr.New("program ID is not valid", serr.ErrBadArgument)
	}

	runs, err := svc.DB.Runs().GetAllByProgram(ctx, uuidID)
	if err != nil {
		return nil, serr.WrapDB("could not get runs", err)
	}
	return runs, nil
}

// DeleteRun deletes the run with the given ID and returns it as it existed
// just before deletion.
func (svc Service) DeleteRun(ctx context.Context, id string) (dao.Run, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.Run{}, serr.New("ID is not valid", serr.ErrBadArgument)
	}

	run, err := svc.DB.Runs().Delete(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Run{}, serr.ErrNotFound
		}
		return dao.Run{}, serr.WrapDB(fmt.Sprintf("could not delete run %q", id), err)
	}
	return run, nil
}
