package model

import "time"

// Base carries the surrogate key and audit timestamps shared by persisted rows.
//
// ID is assigned by the database on insert; CreatedAt and UpdatedAt are set
// on insert and UpdatedAt is refreshed by every update.
type Base struct {
	ID        int64     `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
