package repositories

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyVerified = errors.New("already verified")
	ErrExpired         = errors.New("verification expired")
)

// StorageClass is the coarse category of a failed store operation.
type StorageClass string

const (
	StorageConstraint StorageClass = "constraint"
	StorageConnection StorageClass = "connection"
	StorageConflict   StorageClass = "conflict"
	StorageOther      StorageClass = "other"
)

// Classify sorts a store error by kind. A nil error yields "".
func Classify(err error) StorageClass {
	if err == nil {
		return ""
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, gorm.ErrForeignKeyViolated) {
		return StorageConstraint
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "23":
			return StorageConstraint
		case "08", "57":
			return StorageConnection
		case "40":
			return StorageConflict
		}
		return StorageOther
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return StorageConnection
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, context.DeadlineExceeded) {
		return StorageConnection
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return StorageConnection
	}
	return StorageOther
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
