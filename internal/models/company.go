package models

import "time"

// Company is a customer organisation holding service contracts.
type Company struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	City       string    `db:"city" json:"city"`
	IsArchived bool      `db:"is_archived" json:"is_archived"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CompanyFilter captures filtering criteria for listing companies.
type CompanyFilter struct {
	Search          string
	IncludeArchived bool
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}
