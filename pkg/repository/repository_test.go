package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/assay/pkg/repository"
)

var (
	errNotFound  = errors.New("not found")
	errDuplicate = errors.New("duplicate")
)

func TestMapError(t *testing.T) {
	other := errors.New("some other error")
	fkViolation := &pgconn.PgError{Code: "23503"}

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, errNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), errNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, errDuplicate},
		{"check violation", &pgconn.PgError{Code: "23514", ConstraintName: "material_not_blank"}, repository.ErrConstraint},
		{"other pg error", fkViolation, fkViolation},
		{"passthrough", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.MapError(tt.err, errNotFound, errDuplicate)
			if tt.want == nil {
				if got != nil {
					t.Errorf("MapError = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("MapError = %v, want %v", got, tt.want)
			}
		})
	}

	got := repository.MapError(&pgconn.PgError{Code: "23514", ConstraintName: "material_not_blank"}, errNotFound, errDuplicate)
	if !strings.Contains(got.Error(), "material_not_blank") {
		t.Errorf("constraint name missing from %q", got)
	}
}
