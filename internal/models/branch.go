package models

import "time"

// Branch is a physical location belonging to one company. Archived
// branches are never planned.
type Branch struct {
	ID         string    `db:"id" json:"id"`
	CompanyID  string    `db:"company_id" json:"company_id"`
	Name       string    `db:"name" json:"name"`
	City       string    `db:"city" json:"city"`
	Address    string    `db:"address" json:"address"`
	IsArchived bool      `db:"is_archived" json:"is_archived"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// BranchFilter captures filtering criteria for listing branches.
type BranchFilter struct {
	CompanyID       string
	City            string
	Search          string
	IncludeArchived bool
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}
