package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dekarrin/express/server/dao"
	"github.com/dekarrin/express/server/serr"
	"github.com/dekarrin/rezi"
	"github.com/google/uuid"
)

func NewRunsDBConn(file string) (*RunsDB, error) {
	repo := &RunsDB{}

	var err error
	repo.db, err = sql.Open("sqlite", file)
	if err != nil {
		return nil, wrapDBError(err)
	}

	return repo, repo.init(false)
}

type RunsDB struct {
	db *sql.DB
}

func (repo *RunsDB) init(fk bool) error {
	stmt := `CREATE TABLE IF NOT EXISTS runs (
		id TEXT NOT NULL PRIMARY KEY,
		program_id TEXT NOT NULL`

	if fk {
		stmt += ` REFERENCES programs(id) ON DELETE CASCADE ON UPDATE CASCADE`
	}

	stmt += `,
		tick INTEGER NOT NULL,
		results TEXT NOT NULL,
		created INTEGER NOT NULL
	);`
	_, err := repo.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

// convertToDB_Results converts a Run's sink results to storage DB format,
// REZI-encoding the map to bytes and then to the same base64-over-TEXT
// format convertToDB_GameStatePtr uses for its encoded blob.
func convertToDB_Results(results map[string]string) string {
	resultsData := rezi.EncBinary(results)
	return convertToDB_ByteSlice(resultsData)
}

// convertFromDB_Results converts a storage DB format string back to a sink
// results map. If there is a problem with the decoding, the returned error
// will be of type serr.Error, and will wrap dao.ErrDecodingFailure.
func convertFromDB_Results(s string, target *map[string]string) error {
	if s == "" {
		*target = map[string]string{}
		return nil
	}

	var resultsData []byte
	if err := convertFromDB_ByteSlice(s, &resultsData); err != nil {
		return serr.New("decode stored to bytes", err)
	}

	var results map[string]string
	n, err := rezi.DecBinary(resultsData, &results)
	if err != nil {
		return serr.New("REZI decode: %w", err, dao.ErrDecodingFailure)
	}
	if n != len(resultsData) {
		return serr.New(fmt.Sprintf("REZI decoded byte count mismatch; only consumed %d/%d bytes", n, len(resultsData)), dao.ErrDecodingFailure)
	}

	*target = results
	return nil
}

func (repo *RunsDB) Create(ctx context.Context, r dao.Run) (dao.Run, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Run{}, fmt.Errorf("could not generate ID: %w", err)
	}

	resultsEncoded := convertToDB_Results(r.Results)

	stmt, err := repo.db.Prepare(`INSERT INTO runs (id, program_id, tick, results, created) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return dao.Run{}, wrapDBError(err)
	}

	now := time.Now()
	_, err = stmt.ExecContext(ctx,
		convertToDB_UUID(newUUID),
		convertToDB_UUID(r.ProgramID),
		r.Tick,
		resultsEncoded,
		convertToDB_Time(now),
	)
	if err != nil {
		return dao.Run{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *RunsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Run, error) {
	r := dao.Run{ID: id}
	var programID, resultsEncoded string
	var created int64

	row := repo.db.QueryRowContext(ctx, `SELECT program_id, tick, results, created FROM runs WHERE id = ?;`,
		convertToDB_UUID(id),
	)
	if err := row.Scan(&programID, &r.Tick, &resultsEncoded, &created); err != nil {
		return r, wrapDBError(err)
	}

	if err := convertFromDB_UUID(programID, &r.ProgramID); err != nil {
		return r, fmt.Errorf("stored program ID %q is invalid: %w", programID, err)
	}
	if err := convertFromDB_Results(resultsEncoded, &r.Results); err != nil {
		return r, err
	}
	if err := convertFromDB_Time(created, &r.Created); err != nil {
		return r, fmt.Errorf("stored created time %d is invalid: %w", created, err)
	}

	return r, nil
}

// GetAllByProgram returns every recorded Run for the given program, ordered
// by tick so a caller can walk a program's tick history in order.
func (repo *RunsDB) GetAllByProgram(ctx context.Context, programID uuid.UUID) ([]dao.Run, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, tick, results, created FROM runs WHERE program_id=? ORDER BY tick ASC;`,
		convertToDB_UUID(programID),
	)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Run

	for rows.Next() {
		r := dao.Run{ProgramID: programID}
		var id, resultsEncoded string
		var created int64

		if err := rows.Scan(&id, &r.Tick, &resultsEncoded, &created); err != nil {
			return nil, wrapDBError(err)
		}

		if err := convertFromDB_UUID(id, &r.ID); err != nil {
			return all, fmt.Errorf("stored UUID %q is invalid: %w", id, err)
		}
		if err := convertFromDB_Results(resultsEncoded, &r.Results); err != nil {
			return all, err
		}
		if err := convertFromDB_Time(created, &r.Created); err != nil {
			return all, fmt.Errorf("stored created time %d is invalid: %w", created, err)
		}

		all = append(all, r)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *RunsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Run, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, convertToDB_UUID(id))
	if err != nil {
		return curVal, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return curVal, wrapDBError(err)
	}
	if rowsAff < 1 {
		return curVal, dao.ErrNotFound
	}

	return curVal, nil
}

func (repo *RunsDB) Close() error {
	return repo.db.Close()
}
