package common

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// GetOne выполняет запрос на одну строку; отсутствие строки превращается в notFound.
func GetOne[T any](ctx context.Context, q sqlx.QueryerContext, notFound error, query string, args ...any) (*T, error) {
	var entity T
	if err := sqlx.GetContext(ctx, q, &entity, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, err
	}
	return &entity, nil
}

// GetByID читает строку таблицы по первичному ключу.
func GetByID[T any](ctx context.Context, q sqlx.QueryerContext, table string, id any, notFound error) (*T, error) {
	return GetByField[T](ctx, q, table, "id", id, notFound)
}

// GetByField читает строку таблицы по значению колонки. table и field
// подставляются в текст запроса и должны быть константами вызывающего кода.
func GetByField[T any](ctx context.Context, q sqlx.QueryerContext, table, field string, value any, notFound error) (*T, error) {
	entity, err := GetOne[T](ctx, q, notFound, fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", table, field), value)
	if err != nil && !errors.Is(err, notFound) {
		return nil, fmt.Errorf("%s by %s: %w", table, field, err)
	}
	return entity, err
}

// WithTransaction выполняет fn в транзакции READ COMMITTED. Блокировки строк
// берутся явно через FOR UPDATE. Ошибка или паника в fn откатывает транзакцию.
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) && err != nil {
			err = fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}
