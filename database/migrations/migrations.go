// Package migrations registers the schema migrations. Import it for side
// effects wherever the migration runner is used.
package migrations
