package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/dekarrin/express/formula/value"
	"github.com/dekarrin/express/server/dao"
	"github.com/dekarrin/express/server/middle"
	"github.com/dekarrin/express/server/result"
	"github.com/dekarrin/express/server/serr"
)

func runToModel(r dao.Run) RunModel {
	return RunModel{
		URI:       PathPrefix + "/runs/" + r.ID.String(),
		ID:        r.ID.String(),
		ProgramID: r.ProgramID.String(),
		Tick:      r.Tick,
		Results:   r.Results,
		Created:   r.Created.Format(time.RFC3339),
	}
}

// programOwnedByOrVisibleTo reports whether user may act on a program with
// the given owner ID: either they own it, or they are an admin.
func programOwnedByOrVisibleTo(ownerID string, user dao.User) bool {
	return ownerID == user.ID.String() || user.Role == dao.Admin
}

// HTTPCreateRun returns a HandlerFunc backing POST /programs/{id}/tick: it
// ingests one JSON tick of named samples, runs a single ComputePass against
// the program's stored definitions, and returns the sink results as a new
// Run.
func (api API) HTTPCreateRun() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epCreateRun)
}

func (api API) epCreateRun(req *http.Request) result.Result {
	progID := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	prog, err := api.Backend.GetProgram(req.Context(), progID.String())
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	if !programOwnedByOrVisibleTo(prog.UserID.String(), user) {
		return result.Forbidden("user '%s' (role %s) tick program '%s': forbidden", user.Username, user.Role, prog.Name)
	}

	var tickReq TickRequest
	if err := parseJSON(req, &tickReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	samples := make(map[string]value.TimeStep, len(tickReq.Samples))
	for name, s := range tickReq.Samples {
		samples[name] = value.TimeStep{Price: s.Price, Time: s.Time}
	}

	run, err := api.Backend.RunTick(req.Context(), progID.String(), samples)
	if err != nil {
		if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		} else if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	return result.Created(runToModel(run), "user '%s' ticked program '%s' (tick %d)", user.Username, prog.Name, run.Tick)
}

// HTTPGetAllRuns returns a HandlerFunc backing GET /programs/{id}/runs: the
// recorded tick history of a program, in tick order.
func (api API) HTTPGetAllRuns() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetAllRuns)
}

func (api API) epGetAllRuns(req *http.Request) result.Result {
	progID := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	prog, err := api.Backend.GetProgram(req.Context(), progID.String())
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	if !programOwnedByOrVisibleTo(prog.UserID.String(), user) {
		return result.Forbidden("user '%s' (role %s) list runs of program '%s': forbidden", user.Username, user.Role, prog.Name)
	}

	runs, err := api.Backend.GetRunsByProgram(req.Context(), progID.String())
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]RunModel, len(runs))
	for i := range runs {
		resp[i] = runToModel(runs[i])
	}

	return result.OK(resp, "user '%s' got runs for program '%s'", user.Username, prog.Name)
}

// HTTPGetRun returns a HandlerFunc backing GET /runs/{id}.
func (api API) HTTPGetRun() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetRun)
}

func (api API) epGetRun(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	run, err := api.Backend.GetRun(req.Context(), id.String())
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	prog, err := api.Backend.GetProgram(req.Context(), run.ProgramID.String())
	if err != nil {
		if !errors.Is(err, serr.ErrNotFound) {
			return result.InternalServerError(err.Error())
		}
	}

	if !programOwnedByOrVisibleTo(prog.UserID.String(), user) {
		return result.Forbidden("user '%s' (role %s) get run '%s': forbidden", user.Username, user.Role, id)
	}

	return result.OK(runToModel(run), "user '%s' got run %s", user.Username, run.ID)
}

// HTTPDeleteRun returns a HandlerFunc backing DELETE /runs/{id}.
func (api API) HTTPDeleteRun() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epDeleteRun)
}

func (api API) epDeleteRun(req *http.Request) result.Result {
	id := requireIDParam(req)
	user := req.Context().Value(middle.AuthUser).(dao.User)

	run, err := api.Backend.GetRun(req.Context(), id.String())
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	prog, err := api.Backend.GetProgram(req.Context(), run.ProgramID.String())
	if err != nil && !errors.Is(err, serr.ErrNotFound) {
		return result.InternalServerError(err.Error())
	}

	if !programOwnedByOrVisibleTo(prog.UserID.String(), user) {
		return result.Forbidden("user '%s' (role %s) delete run '%s': forbidden", user.Username, user.Role, id)
	}

	if _, err := api.Backend.DeleteRun(req.Context(), id.String()); err != nil && !errors.Is(err, serr.ErrNotFound) {
		return result.InternalServerError("could not delete run: " + err.Error())
	}

	return result.NoContent("user '%s' deleted run %s", user.Username, id)
}
