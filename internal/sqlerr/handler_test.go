package sqlerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/userstore/internal/errs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func duplicateEmail() *pgconn.PgError {
	return &pgconn.PgError{
		Severity:       "ERROR",
		Code:           "23505",
		Message:        `duplicate key value violates unique constraint "users_email_key"`,
		TableName:      "users",
		ConstraintName: "users_email_key",
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(duplicateEmail()))
	assert.True(t, IsUniqueViolation(fmt.Errorf("creating user: %w", duplicateEmail())))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23502"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestConvertPgError(t *testing.T) {
	src := duplicateEmail()
	converted := ConvertPgError(src)

	assert.Equal(t, UniqueViolation, converted.Code)
	assert.Equal(t, SeverityError, converted.Severity)
	assert.Equal(t, UniqueViolation, ErrCode(fmt.Errorf("wrapped: %w", converted)))

	var pgErr *pgconn.PgError
	require.True(t, errors.As(converted, &pgErr))
	assert.Same(t, src, pgErr)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "duplicate email",
			err:     duplicateEmail(),
			status:  http.StatusBadRequest,
			code:    "USER_ALREADY_EXISTS",
			message: "A User with this Email already exists",
		},
		{
			name:    "missing column value",
			err:     &pgconn.PgError{Code: "23502", TableName: "users", ColumnName: "name"},
			status:  http.StatusBadRequest,
			code:    "USER_REQUIRED",
			message: "The Name is required",
		},
		{
			name:    "identity column write",
			err:     &pgconn.PgError{Code: "428C9", TableName: "users", ColumnName: "id"},
			status:  http.StatusBadRequest,
			code:    "USER_READ_ONLY",
			message: "The Id cannot be changed",
		},
		{
			name:    "age out of range",
			err:     &pgconn.PgError{Code: "22003", TableName: "users"},
			status:  http.StatusBadRequest,
			code:    "USER_INVALID",
			message: "One or more values are out of range or malformed",
		},
		{
			name:    "connection lost",
			err:     &pgconn.PgError{Code: "08006"},
			status:  http.StatusServiceUnavailable,
			code:    "SERVICE_UNAVAILABLE",
			message: "The database is unavailable",
		},
		{
			name:    "no rows",
			err:     pgx.ErrNoRows,
			status:  http.StatusNotFound,
			code:    "NOT_FOUND",
			message: "Resource not found",
		},
		{
			name:    "unknown",
			err:     errors.New("connection reset"),
			status:  http.StatusInternalServerError,
			code:    "INTERNAL_SERVER_ERROR",
			message: "Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var httpErr *errs.HTTPError
			require.True(t, errors.As(HandleError(tt.err), &httpErr))
			assert.Equal(t, tt.status, httpErr.Status)
			assert.Equal(t, tt.code, httpErr.Code)
			assert.Equal(t, tt.message, httpErr.Message)
		})
	}
}

func TestHandleError_PassesHTTPErrorThrough(t *testing.T) {
	original := errs.NewNotFoundError("User not found", true, nil)
	assert.Same(t, original, HandleError(original))
}

func TestExtractColumnForUniqueViolation(t *testing.T) {
	assert.Equal(t, "email", extractColumnForUniqueViolation("users_email_key"))
	assert.Equal(t, "email", extractColumnForUniqueViolation("unique_users_email"))
	assert.Equal(t, "", extractColumnForUniqueViolation("pk"))
}
