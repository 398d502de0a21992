// Package storage provides the relational store for Vetrina.
//
// The store runs on either an embedded SQLite database (the default,
// matching the inventory-manager deployment) or a managed PostgreSQL
// database (the storefront deployment). Both are reached through
// database/sql with per-dialect goose migrations; queries are written
// with $N placeholders, which both drivers accept.
//
// The Store is an explicitly constructed handle with a defined
// lifecycle: opened in main, closed at shutdown, and passed by
// reference to every component. There is no package-level connection.
package storage
