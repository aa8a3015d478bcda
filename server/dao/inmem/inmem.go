// Package inmem provides a dao.Store backed entirely by in-process maps, for
// tests and for running a tick server with no persistence requirement.
package inmem

import (
	"fmt"

	"github.com/dekarrin/express/server/dao"
)

type store struct {
	users    *InMemoryUsersRepository
	seshes   *InMemorySessionsRepository
	programs *InMemoryProgramsRepository
	runs     *InMemoryRunsRepository
}

func NewDatastore() dao.Store {
	return &store{
		users:    NewUsersRepository(),
		seshes:   NewSessionsRepository(),
		programs: NewProgramsRepository(),
		runs:     NewRunsRepository(),
	}
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) Sessions() dao.SessionRepository {
	return s.seshes
}

func (s *store) Programs() dao.ProgramRepository {
	return s.programs
}

func (s *store) Runs() dao.RunRepository {
	return s.runs
}

func (s *store) Close() error {
	var err error
	var nextErr error

	nextErr = s.users.Close()
	if nextErr != err {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, nextErr)
		} else {
			err = nextErr
		}
	}
	nextErr = s.seshes.Close()
	if nextErr != err {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, nextErr)
		} else {
			err = nextErr
		}
	}
	nextErr = s.programs.Close()
	if nextErr != err {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, nextErr)
		} else {
			err = nextErr
		}
	}
	nextErr = s.runs.Close()
	if nextErr != err {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, nextErr)
		} else {
			err = nextErr
		}
	}

	return err
}
