// Package database provides the data access layer for the application.
//
// # Architecture
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── users/           # Credential store (one row per user)
//	└── audit/           # Authentication audit events
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./heartcheck.db")
//
//	usersRepo := users.NewRepository(db.DB)
//	auditRepo := audit.NewRepository(db.DB)
//
// Repository methods take a context.Context and run on a session bound to
// it (db.WithContext), so the pooled connection is returned when the call
// finishes, whether or not it succeeded.
package database
