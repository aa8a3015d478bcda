package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dekarrin/express/server/dao"
	"github.com/dekarrin/express/server/middle"
	"github.com/dekarrin/express/server/result"
	"github.com/dekarrin/express/server/serr"
)

func programToModel(p dao.Program) ProgramModel {
	return ProgramModel{
		URI:         PathPrefix + "/programs/" + p.ID.String(),
		ID:          p.ID.String(),
		UserID:      p.UserID.String(),
		Name:        p.Name,
		Definitions: p.Definitions,
		Created:     p.Created.Format(time.RFC3339),
		Modified:    p.Modified.Format(time.RFC3339),
	}
}

// HTTPGetAllPrograms returns a HandlerFunc that retrieves all programs owned
// by the logged-in user; an admin user gets every program on the server.
//
// The handler has requirements for the request context it receives, and if
// the requirements are not met it may return an HTTP-500. The context must
// contain the logged-in user of the client making the request.
func (api API) HTTPGetAllPrograms() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetAllPrograms)
}

func (api API) epGetAllPrograms(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(dao.User)

	var progs []dao.Program
	var err error
	if user.Role == dao.Admin {
		progs, err = api.Backend.GetAllPrograms(req.Context())
	} else {
		progs, err = api.Backend.GetAllProgramsByUser(req.Context(), user.ID.String())
	}
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]ProgramModel, len(progs))
	for i := range progs {
		resp[i] = programToModel(progs[i])
	}

	return result.OK(resp, "user '%s' got all programs", user.Username)
}

// HTTPCreateProgram returns a HandlerFunc that registers a new program owned
// by the logged-in user.
func (api API) HTTPCreateProgram() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epCreateProgram)
}

func (api API) epCreateProgram(req *http.Request) result.Result {
	user := req.Context().Value(middle.AuthUser).(dao.User)

	var createReq ProgramCreateRequest
	if err := parseJSON(req, &createReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	prog, err := api.Backend.CreateProgram(req.Context(), user.ID.String(), createReq.Name, createReq.Definitions)
	if err != nil {
		if errors.Is(err, serr.ErrBadArgument) || errors.Is(err, serr.ErrInvalidFormulaSet) {
			return result.BadRequest(err.Error(), err.Error())
		} else if errors.Is(err, serr.ErrAlreadyExists) {
			return result.Conflict("A program with that name already exists", "program '%s' already exists", createReq.Name)
		}
		return result.InternalServerError(err.Error())
	}

	return result.Created(programToModel(prog), "user '%s' created program '%s' (%s)", user.Username, prog.Name, prog.ID)
}

// HTTPGetProgram returns a HandlerFunc that gets an existing program. All
// users may retrieve their own programs, but only an admin user can retrieve
// programs belonging to other users.
func (api API) HTTPGetProgram() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetProgram)
}

func (api API) epGetProgram(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	prog, err := api.Backend.GetProgram(req.Context(), id.String())
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	if prog.UserID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) get program '%s': forbidden", user.Username, user.Role, prog.Name)
	}

	return result.OK(programToModel(prog), "user '%s' got program '%s'", user.Username, prog.Name)
}

// HTTPUpdateProgram returns a HandlerFunc that replaces the name and
// definitions of an existing program. All users may update their own
// programs, but only an admin user may update another user's program.
func (api API) HTTPUpdateProgram() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epUpdateProgram)
}

func (api API) epUpdateProgram(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	existing, err := api.Backend.GetProgram(req.Context(), id.String())
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	if existing.UserID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) update program '%s': forbidden", user.Username, user.Role, existing.Name)
	}

	var updateReq ProgramCreateRequest
	if err := parseJSON(req, &updateReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	updated, err := api.Backend.UpdateProgram(req.Context(), id.String(), updateReq.Name, updateReq.Definitions)
	if err != nil {
		if errors.Is(err, serr.ErrBadArgument) || errors.Is(err, serr.ErrInvalidFormulaSet) {
			return result.BadRequest(err.Error(), err.Error())
		} else if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	return result.Created(programToModel(updated), "user '%s' updated program '%s' (%s)", user.Username, updated.Name, updated.ID)
}

// HTTPDeleteProgram returns a HandlerFunc that deletes a program. All users
// may delete their own programs, but only an admin user may delete another
// user's program.
func (api API) HTTPDeleteProgram() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epDeleteProgram)
}

func (api API) epDeleteProgram(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	existing, err := api.Backend.GetProgram(req.Context(), id.String())
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	if existing.UserID != user.ID && user.Role != dao.Admin {
		return result.Forbidden("user '%s' (role %s) delete program '%s': forbidden", user.Username, user.Role, existing.Name)
	}

	deleted, err := api.Backend.DeleteProgram(req.Context(), id.String())
	if err != nil && !errors.Is(err, serr.ErrNotFound) {
		return result.InternalServerError("could not delete program: " + err.Error())
	}

	return result.NoContent("user '%s' deleted program '%s'", user.Username, deleted.Name)
}
