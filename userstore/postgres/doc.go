// Package postgres implements the engine's UserProvider on PostgreSQL
// through a pgx connection pool, and ships the goose migrations for the
// users table it reads.
package postgres
