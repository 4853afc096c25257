package repository

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

func parseUUID(s string) (pgtype.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("parse uuid %q: %w", s, err)
	}
	return pgtype.UUID{Bytes: id, Valid: true}, nil
}

// optionalUUID returns nil for an empty string, so the owner filter can
// be skipped in SQL via `$n::uuid IS NULL`.
func optionalUUID(s string) (*pgtype.UUID, error) {
	if s == "" {
		return nil, nil
	}
	id, err := parseUUID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func uuidString(u pgtype.UUID) string {
	return uuid.UUID(u.Bytes).String()
}
