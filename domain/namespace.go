package domain

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

type Company struct {
	ID   types.ID `json:"id" gorm:"primary_key"`
	Name string   `json:"name" gorm:"unique_index:uni_company_name;not null"`

	CreateTime time.Time `json:"createTime"`
}

type Project struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Name      string   `json:"name" gorm:"unique_index:uni_project_company_name;not null"`
	CompanyID types.ID `json:"companyId" gorm:"unique_index:uni_project_company_name;not null"`

	CreateTime time.Time `json:"createTime"`
	Creator    types.ID  `json:"creator"`
}

// ProjectMember grants one role of a project to a member.
type ProjectMember struct {
	ProjectID types.ID `json:"projectId" gorm:"primary_key;auto_increment:false"`
	MemberID  types.ID `json:"memberId" gorm:"primary_key;auto_increment:false"`
	RoleID    types.ID `json:"roleId" gorm:"primary_key;auto_increment:false"`

	CreateTime time.Time `json:"createTime"`
}

type CompanyCreation struct {
	Name string `json:"name" validate:"required,lte=100"`
}

type ProjectCreation struct {
	Name      string   `json:"name" validate:"required,lte=60"`
	CompanyID types.ID `json:"companyId" validate:"required"`
}

type ProjectMemberCreation struct {
	ProjectID types.ID `json:"projectId" validate:"required"`
	MemberID  types.ID `json:"memberId" validate:"required"`
	RoleID    types.ID `json:"roleId" validate:"required"`
}
