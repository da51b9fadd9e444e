package models

import "github.com/google/uuid"

// ensureID assigns a fresh identifier when the caller did not provide one.
// Postgres defaults exist too, but sqlite test databases have no uuid generator.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
