// Package testdb provides SurrealDB test databases for the ascend API.
//
// # Isolation
//
// Each TestDB connects to its own namespace, applies the repository schema
// and removes the namespace on Close:
//
//	tdb := testdb.New(t)
//	defer tdb.Close()
//
// # Configuration
//
// TEST_DB_HOST enables the integration tests. TEST_DB_PORT, TEST_DB_USER and
// TEST_DB_PASSWORD default to 8000, root and root.
package testdb
