// Package dao provides data access objects for the tick server: registered
// Programs (named formula sets), their tick Run history, and the Users
// and Sessions that own them.
package dao

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrConstraintViolation = errors.New("a uniqueness constraint was violated")
	ErrNotFound            = errors.New("the requested resource was not found")
	ErrDecodingFailure     = errors.New("field could not be decoded from DB storage format to model format")
)

// Store holds all the repositories a tick server needs.
type Store interface {
	Users() UserRepository
	Sessions() SessionRepository
	Programs() ProgramRepository
	Runs() RunRepository
	Close() error
}

// ProgramRepository persists named formula sets owned by a User.
type ProgramRepository interface {
	Create(ctx context.Context, p Program) (Program, error)
	GetByID(ctx context.Context, id uuid.UUID) (Program, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]Program, error)
	GetAll(ctx context.Context) ([]Program, error)
	Update(ctx context.Context, id uuid.UUID, p Program) (Program, error)
	Delete(ctx context.Context, id uuid.UUID) (Program, error)
	Close() error
}

// Program is a named set of formula definitions a user has registered with
// the server, the unit formula/graph.Interpreter is built from.
type Program struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Definitions map[string]string // formula name -> source text
	Created     time.Time
	Modified    time.Time
}

// RunRepository persists the most recent tick outputs of a Program, for
// clients that pull results rather than stream them.
type RunRepository interface {
	Create(ctx context.Context, r Run) (Run, error)
	GetByID(ctx context.Context, id uuid.UUID) (Run, error)
	GetAllByProgram(ctx context.Context, programID uuid.UUID) ([]Run, error)
	Delete(ctx context.Context, id uuid.UUID) (Run, error)
	Close() error
}

// Run is a snapshot of one ComputePass: the sink values it produced,
// rendered to their String() form for storage (the DAO layer doesn't
// depend on formula/value, matching the teacher's pattern of keeping
// storage models decoupled from domain value types).
type Run struct {
	ID        uuid.UUID
	ProgramID uuid.UUID
	Tick      int
	Results   map[string]string
	Created   time.Time
}

type SessionRepository interface {
	Create(ctx context.Context, sesh Session) (Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (Session, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]Session, error)
	GetAll(ctx context.Context) ([]Session, error)
	Update(ctx context.Context, id uuid.UUID, sesh Session) (Session, error)
	Delete(ctx context.Context, id uuid.UUID) (Session, error)
	Close() error
}

type Session struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	Created time.Time
}

type UserRepository interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetAll(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id uuid.UUID, user User) (User, error)
	Delete(ctx context.Context, id uuid.UUID) (User, error)
	Close() error
}

type Role int

const (
	Guest Role = iota
	Unverified
	Normal

	Admin Role = 100
)

func (r Role) String() string {
	switch r {
	case Guest:
		return "guest"
	case Unverified:
		return "unverified"
	case Normal:
		return "normal"
	case Admin:
		return "admin"
	default:
		return fmt.Sprintf("Role(%d)", r)
	}
}

func ParseRole(s string) (Role, error) {
	check := strings.ToLower(s)
	switch check {
	case "guest":
		return Guest, nil
	case "unverified":
		return Unverified, nil
	case "normal":
		return Normal, nil
	case "admin":
		return Admin, nil
	default:
		return Guest, fmt.Errorf("must be one of 'guest', 'unverified', 'normal', or 'admin'")
	}
}

type User struct {
	ID             uuid.UUID
	Username       string
	Password       string
	Email          *mail.Address
	Role           Role
	Created        time.Time
	Modified       time.Time
	LastLogoutTime time.Time
	LastLoginTime  time.Time
}
