// Package database handles the tracking database connection.
//
// It provides a wrapper around GORM to configure MySQL (or SQLite, for local
// use) connections based on the application's configuration. The tracking
// database stores the pipeline run ledger and nothing else; the warehouse
// package owns the report, metadata, and history tables.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("Tracking database unavailable", err)
//	}
package database
