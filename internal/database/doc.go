// Package database provides SurrealDB connectivity for the ascend API.
//
// The Database interface abstracts the connection so repositories can be
// tested against fakes:
//
//	db := database.NewSurrealDB(database.Config{
//	    Host:      "localhost",
//	    Port:      "8000",
//	    Namespace: "ascend",
//	    Database:  "main",
//	    User:      "root",
//	    Password:  "root",
//	})
//	if err := db.Connect(ctx); err != nil {
//	    return err
//	}
//	defer db.Close()
//
// # Transactions
//
// Transactions are batch based. AtomicBatch accumulates statements and sends
// them as one BEGIN/COMMIT block; nothing is visible until the batch runs and
// a failing statement (including a THROW) cancels all of them.
//
// # Error Types
//
//   - ErrNotFound: record does not exist
//   - ErrDuplicate: unique index violation
//   - ErrConflict: optimistic version check failed
//   - ErrConnection: database connection failed
//   - ErrQuery: any other statement failure
package database
