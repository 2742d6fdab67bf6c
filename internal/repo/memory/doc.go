// Package memory implements the repo contracts in process memory. Use-case
// and controller tests run against it instead of S3 and Postgres.
package memory
