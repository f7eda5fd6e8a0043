package services

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrUserNotFound indicates that no account matches the lookup.
	ErrUserNotFound = errors.New("account: user not found")
	// ErrUsernameTaken indicates a username uniqueness conflict.
	ErrUsernameTaken = errors.New("account: username already taken")
	// ErrEmailTaken indicates an email uniqueness conflict.
	ErrEmailTaken = errors.New("account: email already taken")
	// ErrEmailNotVerified is returned on signup without a matching verified record.
	ErrEmailNotVerified = errors.New("account: email not verified")
	// ErrInvalidCredentials marks a password mismatch at signin.
	ErrInvalidCredentials = errors.New("account: invalid credentials")

	// ErrVerificationNotFound indicates no verification record exists for the email.
	ErrVerificationNotFound = errors.New("verification: record not found")
	// ErrCodeMismatch marks a wrong confirmation code; a retry may succeed.
	ErrCodeMismatch = errors.New("verification: code mismatch")
	// ErrAttemptsExhausted is terminal for a record until a fresh code request.
	ErrAttemptsExhausted = errors.New("verification: attempts exhausted")

	// ErrPostNotFound indicates that no post matches the supplied id.
	ErrPostNotFound = errors.New("posts: post not found")
	// ErrTitleTooLong rejects post titles over the column limit.
	ErrTitleTooLong = errors.New("posts: title too long")
	// ErrSelfFollow rejects a user following themselves.
	ErrSelfFollow = errors.New("follows: cannot follow yourself")
	// ErrNoResults signals an empty page for endpoints that report it as 404.
	ErrNoResults = errors.New("query: no results")
	// ErrSamePassword rejects a password change that reuses the current password.
	ErrSamePassword = errors.New("account: new password matches current password")
	// ErrPasswordMismatch marks a wrong current password during a change.
	ErrPasswordMismatch = errors.New("account: old password is wrong")
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") ||
		strings.Contains(lower, "duplicate") ||
		strings.Contains(lower, "constraint")
}
