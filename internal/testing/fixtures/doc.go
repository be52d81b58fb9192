// Package fixtures provides test data factories for the ascend API.
//
// # Factory Pattern
//
// Create a factory with a database connection:
//
//	f := fixtures.New(tdb.DB)
//
// # Customization
//
// Use option functions for customization:
//
//	prog := f.CreateProgression(t, fixtures.WithPoints(600))
//	ch := f.CreateChallenge(t, prog.UserID, fixtures.WithWindow(start, end))
//
// # Cleanup
//
// Test data is cleaned up when the test database is closed.
package fixtures
