package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslate(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		assert.ErrorIs(t, translate(gorm.ErrRecordNotFound), ErrNotFound)
	})

	t.Run("UniqueViolation", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "slug_map_pkey"}
		err := translate(fmt.Errorf("insert: %w", pgErr))
		assert.ErrorIs(t, err, ErrDuplicate)
		assert.ErrorIs(t, err, pgErr)
	})

	t.Run("GormDuplicatedKey", func(t *testing.T) {
		assert.ErrorIs(t, translate(gorm.ErrDuplicatedKey), ErrDuplicate)
	})

	t.Run("OtherErrorsPassThrough", func(t *testing.T) {
		boom := errors.New("connection reset")
		assert.Same(t, boom, translate(boom))
		fk := &pgconn.PgError{Code: "23503"}
		assert.False(t, errors.Is(translate(fk), ErrDuplicate))
	})

	t.Run("Nil", func(t *testing.T) {
		assert.NoError(t, translate(nil))
	})
}
