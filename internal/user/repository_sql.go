package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	if d == SQLite {
		return "sqlite"
	}
	return "postgres"
}

const (
	postgresSchema = `
		CREATE TABLE IF NOT EXISTS users (
			seq        BIGSERIAL,
			user_uid   UUID PRIMARY KEY,
			first_name TEXT NOT NULL,
			last_name  TEXT NOT NULL,
			gender     TEXT NOT NULL CHECK (gender IN ('MALE', 'FEMALE')),
			age        INTEGER NOT NULL CHECK (age BETWEEN 0 AND 112),
			email      TEXT NOT NULL
		)
	`
	sqliteSchema = `
		CREATE TABLE IF NOT EXISTS users (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			user_uid   TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			last_name  TEXT NOT NULL,
			gender     TEXT NOT NULL CHECK (gender IN ('MALE', 'FEMALE')),
			age        INTEGER NOT NULL CHECK (age BETWEEN 0 AND 112),
			email      TEXT NOT NULL
		)
	`

	selectAllUsersQuery = `
		SELECT user_uid, first_name, last_name, gender, age, email
		FROM users
		ORDER BY seq
	`
	selectUserByIDQuery = `
		SELECT user_uid, first_name, last_name, gender, age, email
		FROM users
		WHERE user_uid = $1
	`
	insertUserQuery = `
		INSERT INTO users (user_uid, first_name, last_name, gender, age, email)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	updateUserQuery = `
		UPDATE users
		SET first_name = $1,
			last_name = $2,
			gender = $3,
			age = $4,
			email = $5
		WHERE user_uid = $6
	`
	deleteUserQuery = `DELETE FROM users WHERE user_uid = $1`
)

// uniqueViolation is the SQLSTATE PostgreSQL reports for duplicate keys.
const uniqueViolation = "23505"

var placeholder = regexp.MustCompile(`\$\d+`)

// SQLRepository stores users in a relational database reachable through
// database/sql. Queries are written with PostgreSQL placeholders and rebound
// for SQLite.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

type rowScanner interface {
	Scan(dest ...any) error
}

var _ Repository = (*SQLRepository)(nil)

func NewSQLRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

func NewPostgresRepository(db *sql.DB) *SQLRepository {
	return NewSQLRepository(db, Postgres)
}

func NewSQLiteRepository(db *sql.DB) *SQLRepository {
	return NewSQLRepository(db, SQLite)
}

// Migrate creates the users table when it does not exist yet.
func (r *SQLRepository) Migrate(ctx context.Context) error {
	schema := postgresSchema
	if r.dialect == SQLite {
		schema = sqliteSchema
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate %s users table: %w", r.dialect, err)
	}
	return nil
}

func (r *SQLRepository) SelectAll(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx, r.rebind(selectAllUsersQuery))
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	return users, nil
}

func (r *SQLRepository) SelectByID(ctx context.Context, id uuid.UUID) (User, bool, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(selectUserByIDQuery), id.String())
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, fmt.Errorf("select user %s: %w", id, err)
	}
	return user, true, nil
}

func (r *SQLRepository) Insert(ctx context.Context, id uuid.UUID, user User) (int, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(insertUserQuery),
		id.String(), user.FirstName, user.LastName, string(user.Gender), user.Age, user.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("insert user %s: %w", id, err)
	}
	return affected(res)
}

func (r *SQLRepository) Update(ctx context.Context, user User) (int, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(updateUserQuery),
		user.FirstName, user.LastName, string(user.Gender), user.Age, user.Email, user.UID.String())
	if err != nil {
		return 0, fmt.Errorf("update user %s: %w", user.UID, err)
	}
	return affected(res)
}

func (r *SQLRepository) DeleteByID(ctx context.Context, id uuid.UUID) (int, error) {
	res, err := r.db.ExecContext(ctx, r.rebind(deleteUserQuery), id.String())
	if err != nil {
		return 0, fmt.Errorf("delete user %s: %w", id, err)
	}
	return affected(res)
}

func (r *SQLRepository) rebind(query string) string {
	if r.dialect != SQLite {
		return query
	}
	return placeholder.ReplaceAllString(query, "?")
}

func scanUser(scanner rowScanner) (User, error) {
	var user User
	err := scanner.Scan(&user.UID, &user.FirstName, &user.LastName, &user.Gender, &user.Age, &user.Email)
	return user, err
}

func affected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// isUniqueViolation recognises duplicate key errors from every driver the
// service can be configured with.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
