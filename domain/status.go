package domain

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

// Status is one state an item can occupy. Names are unique within a company.
type Status struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Name      string   `json:"name" gorm:"unique_index:uni_status_company_name;not null"`
	CompanyID types.ID `json:"companyId" gorm:"unique_index:uni_status_company_name;not null"`

	Color     string `json:"color"`
	Icon      string `json:"icon"`
	SortOrder int    `json:"order"`

	CreateTime time.Time `json:"createTime"`
}

type StatusCreation struct {
	Name      string   `json:"name" validate:"required,lte=100"`
	CompanyID types.ID `json:"companyId" validate:"required"`
	Color     string   `json:"color" validate:"lte=30"`
	Icon      string   `json:"icon" validate:"lte=100"`
	SortOrder int      `json:"order"`
}

type StatusQuery struct {
	CompanyID types.ID `json:"companyId" validate:"required"`
	Name      string   `json:"name"`
}

// StatusName returns the name of s, or "" for a nil status.
func StatusName(s *Status) string {
	if s == nil {
		return ""
	}
	return s.Name
}
