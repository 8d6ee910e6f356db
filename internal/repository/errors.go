package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrVisitNotFound     = errors.New("visit not found")
	ErrVisitConflict     = errors.New("visit already exists for pool at this time")
	ErrInvalidTransition = errors.New("visit status transition not allowed")
)

// database/sql не экспортирует ошибку закрытого пула.
const errDBClosedText = "sql: database is closed"

// IsUnavailable сообщает, что ошибка вызвана отказом инфраструктуры (соединение, отмена
// контекста, закрытый пул, отключение со стороны сервера), а не проблема конкретных
// данных. Такие ошибки прерывают запуск целиком.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isServerUnavailable(pgErr.Code)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return strings.Contains(err.Error(), errDBClosedText)
}

// isServerUnavailable: класс 08 (connection exception) и 57P0x (admin_shutdown,
// crash_shutdown, cannot_connect_now, database_dropped).
func isServerUnavailable(code string) bool {
	return strings.HasPrefix(code, "08") || strings.HasPrefix(code, "57P0")
}
