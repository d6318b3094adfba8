package kanban

import (
	"time"

	"github.com/fundwit/go-commons/types"
)

type Board struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	Name      string   `json:"name" gorm:"unique_index:uni_board_project_name;not null"`
	ProjectID types.ID `json:"projectId" gorm:"unique_index:uni_board_project_name;not null"`

	CreateTime time.Time `json:"createTime"`
}

type BoardColumn struct {
	ID        types.ID `json:"id" gorm:"primary_key"`
	BoardID   types.ID `json:"boardId" gorm:"index:idx_board_column_board;not null"`
	Name      string   `json:"name" gorm:"not null"`
	Default   bool     `json:"default" gorm:"column:is_default"`
	SortOrder int      `json:"order"`
}

type BoardColumnStatus struct {
	ColumnID types.ID `json:"columnId" gorm:"primary_key;auto_increment:false"`
	StatusID types.ID `json:"statusId" gorm:"primary_key;auto_increment:false"`
}

type BoardDetail struct {
	Board

	Columns []Column `json:"columns"`
}

type BoardCreation struct {
	Name      string   `json:"name" validate:"required,lte=100"`
	ProjectID types.ID `json:"projectId" validate:"required"`
	Columns   []Column `json:"columns" validate:"required,min=1,dive"`
}

// Models lists the tables owned by this package.
func Models() []interface{} {
	return []interface{}{&Board{}, &BoardColumn{}, &BoardColumnStatus{}}
}
