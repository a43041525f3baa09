package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/deppfellow/userstore/internal/model"
	"github.com/deppfellow/userstore/internal/validation"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is what the repositories need from the database. Both *pgxpool.Pool
// and pgx.Tx satisfy it, so a repository can run inside or outside a
// transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrCreation matches every CreationError via errors.Is.
var ErrCreation = errors.New("creation failed")

// CreationError is returned when an insert reports success but hands back
// no row. The store's own errors (unique violations and the like) are never
// turned into a CreationError.
type CreationError struct {
	Op string
}

func (e *CreationError) Error() string {
	return "failed to " + e.Op
}

func (e *CreationError) Is(target error) bool {
	return target == ErrCreation
}

const usersTable = "users"

var userColumns = []string{"id", "name", "age", "email"}

// psql builds Postgres statements with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// returningUser is appended to every statement that hands rows back.
const returningUser = "RETURNING id, name, age, email"

// UserRepository maps user operations onto single-table queries.
//
// Every method is exactly one round trip. Store errors are returned as they
// come from pgx; a missing row is a nil result, never an error.
type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts one user and returns the stored row with its generated ID.
func (r *UserRepository) Create(ctx context.Context, user model.NewUser) (*model.User, error) {
	query, args, err := insertUsersQuery([]model.NewUser{user})
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	created, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, &CreationError{Op: "create user"}
	}
	return &created[0], nil
}

// CreateMany inserts all users in a single statement and returns them in
// input order.
//
// An empty input is not an error: it returns an empty slice without
// touching the database.
func (r *UserRepository) CreateMany(ctx context.Context, users []model.NewUser) ([]model.User, error) {
	if len(users) == 0 {
		return []model.User{}, nil
	}

	query, args, err := insertUsersQuery(users)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	created, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, &CreationError{Op: "create users"}
	}
	return inInputOrder(users, created), nil
}

// inInputOrder lines RETURNING rows up with the input. Emails are unique,
// so they identify each inserted row.
func inInputOrder(input []model.NewUser, created []model.User) []model.User {
	if len(input) != len(created) {
		return created
	}

	byEmail := make(map[string]model.User, len(created))
	for _, u := range created {
		byEmail[u.Email] = u
	}

	ordered := make([]model.User, 0, len(input))
	for _, in := range input {
		u, ok := byEmail[in.Email]
		if !ok {
			return created
		}
		ordered = append(ordered, u)
	}
	return ordered
}

// FindAll returns every user ordered by ID.
func (r *UserRepository) FindAll(ctx context.Context) ([]model.User, error) {
	query, args, err := psql.Select(userColumns...).From(usersTable).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// FindByID returns the user with the given ID, or nil if there is none.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.findOne(ctx, sq.Eq{"id": id})
}

// FindByEmail returns the user with the given email, or nil if there is none.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, sq.Eq{"email": email})
}

func (r *UserRepository) findOne(ctx context.Context, where sq.Eq) (*model.User, error) {
	query, args, err := psql.Select(userColumns...).From(usersTable).Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectOptional(rows)
}

// Update applies the set fields of patch to the user with the given ID and
// returns the updated row, or nil if no user has that ID.
//
// An empty patch writes nothing and returns the current row.
func (r *UserRepository) Update(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error) {
	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	query, args, err := updateUserQuery(id, patch)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectOptional(rows)
}

// Delete removes the user with the given ID. Deleting a missing user is a
// no-op.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := psql.Delete(usersTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("building delete: %w", err)
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

// Exists reports whether a user with the given ID is present without
// fetching the row.
func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query, args, err := existsUserQuery(id)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := r.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ValidateEmail is a purely syntactic check; it never consults the store.
func (r *UserRepository) ValidateEmail(email string) bool {
	return validation.IsValidEmail(email)
}

func collectOptional(rows pgx.Rows) (*model.User, error) {
	user, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.User])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func insertUsersQuery(users []model.NewUser) (string, []any, error) {
	builder := psql.Insert(usersTable).Columns("name", "age", "email")
	for _, u := range users {
		builder = builder.Values(u.Name, u.Age, u.Email)
	}

	query, args, err := builder.Suffix(returningUser).ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("building insert: %w", err)
	}
	return query, args, nil
}

func updateUserQuery(id int64, patch model.UserPatch) (string, []any, error) {
	query, args, err := psql.Update(usersTable).
		SetMap(patch.Columns()).
		Where(sq.Eq{"id": id}).
		Suffix(returningUser).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("building update: %w", err)
	}
	return query, args, nil
}

func existsUserQuery(id int64) (string, []any, error) {
	query, args, err := psql.Select("1").
		From(usersTable).
		Where(sq.Eq{"id": id}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("building exists: %w", err)
	}
	return query, args, nil
}
