package models

import (
	"database/sql"
	"time"
)

type Tenant struct {
	ID        string
	Name      string
	Domain    sql.NullString
	Slug      sql.NullString
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
