package kanban

import (
	"statusflow/bizerror"
	"statusflow/domain"

	"github.com/fundwit/go-commons/types"
)

// Column groups the items whose status is one of StatusIDs. The default column also collects
// items matching no other column.
type Column struct {
	Name      string     `json:"name" yaml:"name" validate:"required,lte=50"`
	StatusIDs []types.ID `json:"statusIds" yaml:"statusIds"`
	Default   bool       `json:"default" yaml:"default"`
}

type StatusCarrier interface {
	CurrentStatus() *domain.Status
}

// ValidateColumns checks a board layout: unique names, exactly one default column and no status
// claimed by two columns.
func ValidateColumns(columns []Column) error {
	names := map[string]bool{}
	claimed := map[types.ID]bool{}
	defaults := 0
	for _, c := range columns {
		if names[c.Name] {
			return bizerror.ErrDuplicateColumnName
		}
		names[c.Name] = true
		if c.Default {
			defaults++
		}
		for _, id := range c.StatusIDs {
			if claimed[id] {
				return bizerror.ErrStatusOverlap
			}
			claimed[id] = true
		}
	}
	switch {
	case defaults == 0:
		return bizerror.ErrMissingDefaultColumn
	case defaults > 1:
		return bizerror.ErrMultipleDefaultColumns
	}
	return nil
}

// GroupByColumn partitions items into columns keeping their input order. Every column name is a
// key of the result. Items without status or matching no column land in the default column;
// without default column they are grouped under "".
func GroupByColumn[T StatusCarrier](items []T, columns []Column) map[string][]T {
	result := make(map[string][]T, len(columns))
	columnOf := map[types.ID]string{}
	defaultColumn := ""
	for i := len(columns) - 1; i >= 0; i-- {
		c := columns[i]
		result[c.Name] = []T{}
		for _, id := range c.StatusIDs {
			columnOf[id] = c.Name
		}
	}
	for _, c := range columns {
		if c.Default {
			defaultColumn = c.Name
			break
		}
	}

	for _, it := range items {
		name := defaultColumn
		if s := it.CurrentStatus(); s != nil {
			if matched, found := columnOf[s.ID]; found {
				name = matched
			}
		}
		result[name] = append(result[name], it)
	}
	return result
}
