//go:build tools

package tools

// Pinned CLI tools. goose applies the embedded migrations by hand:
//
//	go run github.com/pressly/goose/v3/cmd/goose -dir internal/adapters/postgres/migrations postgres "$DATABASE_URL" status
import (
	_ "github.com/pressly/goose/v3/cmd/goose"
)
