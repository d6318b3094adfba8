package kanban

import (
	"context"
	"time"

	"statusflow/bizerror"
	"statusflow/domain"
	"statusflow/domain/namespace"
	"statusflow/idgen"
	"statusflow/persistence"
	"statusflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	"github.com/sony/sonyflake"
)

type BoardManager struct {
	ds       *persistence.DataSourceManager
	idWorker *sonyflake.Sonyflake
}

func NewBoardManager(ds *persistence.DataSourceManager) *BoardManager {
	return &BoardManager{ds: ds, idWorker: idgen.NewWorker()}
}

// CreateBoard validates the column layout and saves a board of the project. Column statuses must
// belong to the project's company.
func (m *BoardManager) CreateBoard(ctx context.Context, c *BoardCreation, sec *session.Session) (*BoardDetail, error) {
	if err := domain.Validate(c); err != nil {
		return nil, err
	}
	if err := ValidateColumns(c.Columns); err != nil {
		return nil, err
	}
	detail := BoardDetail{Board: Board{ID: idgen.NextID(m.idWorker), Name: c.Name, ProjectID: c.ProjectID,
		CreateTime: time.Now().Round(time.Millisecond)}}
	err := m.ds.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		project, err := namespace.CheckProjectManagePerm(tx, c.ProjectID, sec)
		if err != nil {
			return err
		}
		var count int
		if err := tx.Model(&Board{}).Where("project_id = ? AND name = ?", c.ProjectID, c.Name).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return bizerror.ErrBoardExisted
		}
		if err := tx.Create(&detail.Board).Error; err != nil {
			return err
		}
		detail.Columns, err = m.saveColumns(tx, detail.ID, project.CompanyID, c.Columns)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpdateBoardColumns replaces the column layout of a board.
func (m *BoardManager) UpdateBoardColumns(ctx context.Context, id types.ID, columns []Column, sec *session.Session) (*BoardDetail, error) {
	for i := range columns {
		if err := domain.Validate(&columns[i]); err != nil {
			return nil, err
		}
	}
	if err := ValidateColumns(columns); err != nil {
		return nil, err
	}
	detail := BoardDetail{}
	err := m.ds.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&detail.Board).Error; err != nil {
			return err
		}
		project, err := namespace.CheckProjectManagePerm(tx, detail.ProjectID, sec)
		if err != nil {
			return err
		}
		if err := deleteColumns(tx, id); err != nil {
			return err
		}
		detail.Columns, err = m.saveColumns(tx, id, project.CompanyID, columns)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (m *BoardManager) saveColumns(tx *gorm.DB, boardID, companyID types.ID, columns []Column) ([]Column, error) {
	statusIDs := []types.ID{}
	for _, c := range columns {
		statusIDs = append(statusIDs, c.StatusIDs...)
	}
	if len(statusIDs) > 0 {
		var statuses []domain.Status
		if err := tx.Where("id IN (?)", statusIDs).Find(&statuses).Error; err != nil {
			return nil, err
		}
		if len(statuses) != len(statusIDs) {
			return nil, bizerror.ErrUnknownStatus
		}
		for _, s := range statuses {
			if s.CompanyID != companyID {
				return nil, bizerror.ErrCrossCompanyReference
			}
		}
	}

	saved := make([]Column, 0, len(columns))
	for i, c := range columns {
		record := BoardColumn{ID: idgen.NextID(m.idWorker), BoardID: boardID, Name: c.Name, Default: c.Default, SortOrder: i}
		if err := tx.Create(&record).Error; err != nil {
			return nil, err
		}
		for _, statusID := range c.StatusIDs {
			if err := tx.Create(&BoardColumnStatus{ColumnID: record.ID, StatusID: statusID}).Error; err != nil {
				return nil, err
			}
		}
		saved = append(saved, Column{Name: c.Name, Default: c.Default, StatusIDs: append([]types.ID{}, c.StatusIDs...)})
	}
	return saved, nil
}

func (m *BoardManager) LoadBoard(ctx context.Context, id types.ID, sec *session.Session) (*BoardDetail, error) {
	detail := BoardDetail{}
	db := m.ds.GormDB(ctx)
	if err := db.Where("id = ?", id).First(&detail.Board).Error; err != nil {
		return nil, err
	}
	if _, err := namespace.CheckProjectViewPerm(db, detail.ProjectID, sec); err != nil {
		return nil, err
	}

	var columns []BoardColumn
	if err := db.Where("board_id = ?", id).Order("sort_order ASC").Find(&columns).Error; err != nil {
		return nil, err
	}
	detail.Columns = []Column{}
	if len(columns) == 0 {
		return &detail, nil
	}
	columnIDs := make([]types.ID, 0, len(columns))
	for _, c := range columns {
		columnIDs = append(columnIDs, c.ID)
	}
	var mappings []BoardColumnStatus
	if err := db.Where("column_id IN (?)", columnIDs).Order("status_id ASC").Find(&mappings).Error; err != nil {
		return nil, err
	}
	statusesOf := map[types.ID][]types.ID{}
	for _, mapping := range mappings {
		statusesOf[mapping.ColumnID] = append(statusesOf[mapping.ColumnID], mapping.StatusID)
	}
	for _, c := range columns {
		ids := statusesOf[c.ID]
		if ids == nil {
			ids = []types.ID{}
		}
		detail.Columns = append(detail.Columns, Column{Name: c.Name, Default: c.Default, StatusIDs: ids})
	}
	return &detail, nil
}

func (m *BoardManager) QueryBoards(ctx context.Context, projectID types.ID, sec *session.Session) ([]Board, error) {
	db := m.ds.GormDB(ctx)
	if _, err := namespace.CheckProjectViewPerm(db, projectID, sec); err != nil {
		return nil, err
	}
	boards := []Board{}
	if err := db.Where("project_id = ?", projectID).Order("id ASC").Find(&boards).Error; err != nil {
		return nil, err
	}
	return boards, nil
}

func (m *BoardManager) DeleteBoard(ctx context.Context, id types.ID, sec *session.Session) error {
	return m.ds.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		board := Board{}
		if err := tx.Where("id = ?", id).First(&board).Error; err != nil {
			return err
		}
		if _, err := namespace.CheckProjectManagePerm(tx, board.ProjectID, sec); err != nil {
			return err
		}
		if err := deleteColumns(tx, id); err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&Board{}).Error
	})
}

func deleteColumns(tx *gorm.DB, boardID types.ID) error {
	var columnIDs []types.ID
	if err := tx.Model(&BoardColumn{}).Where("board_id = ?", boardID).Pluck("id", &columnIDs).Error; err != nil {
		return err
	}
	if len(columnIDs) > 0 {
		if err := tx.Where("column_id IN (?)", columnIDs).Delete(&BoardColumnStatus{}).Error; err != nil {
			return err
		}
	}
	return tx.Where("board_id = ?", boardID).Delete(&BoardColumn{}).Error
}

// CheckStatusReference refuses deleting statuses mapped to a board column.
func CheckStatusReference(ctx context.Context, tx *gorm.DB, status domain.Status) error {
	var count int
	if err := tx.Model(&BoardColumnStatus{}).Where("status_id = ?", status.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return bizerror.ErrStatusIsReferenced
	}
	return nil
}
