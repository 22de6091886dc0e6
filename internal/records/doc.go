// Package records provides the record data sources behind views, detail
// pages and dashboard widgets: an in-memory store seeded from fixture files
// and a Postgres store over a jsonb table.
package records
