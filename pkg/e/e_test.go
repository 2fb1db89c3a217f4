package e

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestWrapError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want error
	}{
		{"deadline", context.DeadlineExceeded, ErrDeadline},
		{"canceled", context.Canceled, ErrCanceled},
		{"no_rows", pgx.ErrNoRows, ErrNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, ErrUniqueViolation},
		{"check", &pgconn.PgError{Code: "23514"}, ErrInvalidInput},
		{"other_pg", &pgconn.PgError{Code: "XX000"}, ErrInternal},
		{"plain", errors.New("boom"), ErrInternal},
	}

	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			got := WrapError(context.Background(), "op", c.err)
			if !errors.Is(got, c.want) {
				t.Fatalf("expected %v, got %v", c.want, got)
			}
		})
	}

	if WrapError(context.Background(), "op", nil) != nil {
		t.Fatalf("expected nil for nil error")
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	v := NewValidationError()
	if v.Err() != nil {
		t.Fatalf("empty validation error must be nil")
	}

	v.Add("location.lat", "required")
	v.Add("severity", "enum")

	err := v.Err()
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	want := "validation failed: location.lat (required), severity (enum)"
	if err.Error() != want {
		t.Fatalf("expected %q got %q", want, err.Error())
	}

	var ve *ValidationError
	if !errors.As(Wrap("service.Submit", err), &ve) || len(ve.Fields) != 2 {
		t.Fatalf("expected wrapped ValidationError with 2 fields, got %v", err)
	}
}
