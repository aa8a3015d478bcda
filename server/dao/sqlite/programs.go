package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dekarrin/express/server/dao"
	"github.com/dekarrin/express/server/serr"
	"github.com/google/uuid"
)

func NewProgramsDBConn(file string) (*ProgramsDB, error) {
	repo := &ProgramsDB{}

	var err error
	repo.db, err = sql.Open("sqlite", file)
	if err != nil {
		return nil, wrapDBError(err)
	}

	return repo, repo.init(false)
}

type ProgramsDB struct {
	db *sql.DB
}

func (repo *ProgramsDB) init(fk bool) error {
	stmt := `CREATE TABLE IF NOT EXISTS programs (
		id TEXT NOT NULL PRIMARY KEY,
		user_id TEXT NOT NULL`

	if fk {
		stmt += ` REFERENCES users(id) ON DELETE CASCADE ON UPDATE CASCADE`
	}

	stmt += `,
		name TEXT NOT NULL,
		definitions TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL
	);`
	_, err := repo.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

// convertToDB_Definitions marshals a formula name -> source map to the JSON
// text stored in the definitions column; a map of source strings has no
// natural binary representation worth reaching for a dedicated codec over,
// unlike the byte-blob fields elsewhere in this package.
func convertToDB_Definitions(defs map[string]string) (string, error) {
	b, err := json.Marshal(defs)
	if err != nil {
		return "", fmt.Errorf("encode definitions: %w", err)
	}
	return string(b), nil
}

func convertFromDB_Definitions(s string, target *map[string]string) error {
	if s == "" {
		*target = map[string]string{}
		return nil
	}
	var defs map[string]string
	if err := json.Unmarshal([]byte(s), &defs); err != nil {
		return serr.New("decode stored definitions", err, dao.ErrDecodingFailure)
	}
	*target = defs
	return nil
}

func (repo *ProgramsDB) Create(ctx context.Context, p dao.Program) (dao.Program, error) {
	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Program{}, fmt.Errorf("could not generate ID: %w", err)
	}

	defsJSON, err := convertToDB_Definitions(p.Definitions)
	if err != nil {
		return dao.Program{}, err
	}

	stmt, err := repo.db.Prepare(`INSERT INTO programs (id, user_id, name, definitions, created, modified) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return dao.Program{}, wrapDBError(err)
	}

	now := time.Now()
	_, err = stmt.ExecContext(ctx,
		convertToDB_UUID(newUUID),
		convertToDB_UUID(p.UserID),
		p.Name,
		defsJSON,
		convertToDB_Time(now),
		convertToDB_Time(now),
	)
	if err != nil {
		return dao.Program{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *ProgramsDB) GetAll(ctx context.Context) ([]dao.Program, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, user_id, name, definitions, created, modified FROM programs;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Program

	for rows.Next() {
		var p dao.Program
		var id, userID, defsJSON string
		var created, modified int64

		if err := rows.Scan(&id, &userID, &p.Name, &defsJSON, &created, &modified); err != nil {
			return nil, wrapDBError(err)
		}

		if err := convertFromDB_UUID(id, &p.ID); err != nil {
			return all, fmt.Errorf("stored UUID %q is invalid: %w", id, err)
		}
		if err := convertFromDB_UUID(userID, &p.UserID); err != nil {
			return all, fmt.Errorf("stored user ID %q is invalid: %w", userID, err)
		}
		if err := convertFromDB_Definitions(defsJSON, &p.Definitions); err != nil {
			return all, err
		}
		if err := convertFromDB_Time(created, &p.Created); err != nil {
			return all, fmt.Errorf("stored created time %d is invalid: %w", created, err)
		}
		if err := convertFromDB_Time(modified, &p.Modified); err != nil {
			return all, fmt.Errorf("stored modified time %d is invalid: %w", modified, err)
		}

		all = append(all, p)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *ProgramsDB) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]dao.Program, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, name, definitions, created, modified FROM programs WHERE user_id=?;`,
		convertToDB_UUID(userID),
	)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Program

	for rows.Next() {
		p := dao.Program{UserID: userID}
		var id, defsJSON string
		var created, modified int64

		if err := rows.Scan(&id, &p.Name, &defsJSON, &created, &modified); err != nil {
			return nil, wrapDBError(err)
		}

		if err := convertFromDB_UUID(id, &p.ID); err != nil {
			return all, fmt.Errorf("stored UUID %q is invalid: %w", id, err)
		}
		if err := convertFromDB_Definitions(defsJSON, &p.Definitions); err != nil {
			return all, err
		}
		if err := convertFromDB_Time(created, &p.Created); err != nil {
			return all, fmt.Errorf("stored created time %d is invalid: %w", created, err)
		}
		if err := convertFromDB_Time(modified, &p.Modified); err != nil {
			return all, fmt.Errorf("stored modified time %d is invalid: %w", modified, err)
		}

		all = append(all, p)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *ProgramsDB) Update(ctx context.Context, id uuid.UUID, p dao.Program) (dao.Program, error) {
	defsJSON, err := convertToDB_Definitions(p.Definitions)
	if err != nil {
		return dao.Program{}, err
	}

	res, err := repo.db.ExecContext(ctx, `UPDATE programs SET id=?, user_id=?, name=?, definitions=?, created=?, modified=? WHERE id=?;`,
		convertToDB_UUID(p.ID),
		convertToDB_UUID(p.UserID),
		p.Name,
		defsJSON,
		convertToDB_Time(p.Created),
		convertToDB_Time(time.Now()),
		convertToDB_UUID(id),
	)
	if err != nil {
		return dao.Program{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.Program{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.Program{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, p.ID)
}

func (repo *ProgramsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Program, error) {
	p := dao.Program{ID: id}
	var userID, defsJSON string
	var created, modified int64

	row := repo.db.QueryRowContext(ctx, `SELECT user_id, name, definitions, created, modified FROM programs WHERE id = ?;`,
		convertToDB_UUID(id),
	)
	if err := row.Scan(&userID, &p.Name, &defsJSON, &created, &modified); err != nil {
		return p, wrapDBError(err)
	}

	if err := convertFromDB_UUID(userID, &p.UserID); err != nil {
		return p, fmt.Errorf("stored user ID %q is invalid: %w", userID, err)
	}
	if err := convertFromDB_Definitions(defsJSON, &p.Definitions); err != nil {
		return p, err
	}
	if err := convertFromDB_Time(created, &p.Created); err != nil {
		return p, fmt.Errorf("stored created time %d is invalid: %w", created, err)
	}
	if err := convertFromDB_Time(modified, &p.Modified); err != nil {
		return p, fmt.Errorf("stored modified time %d is invalid: %w", modified, err)
	}

	return p, nil
}

func (repo *ProgramsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Program, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	res, err := repo.db.ExecContext(ctx, `DELETE FROM programs WHERE id = ?`, convertToDB_UUID(id))
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

func (repo *ProgramsDB) Close() error {
	return repo.db.Close()
}
