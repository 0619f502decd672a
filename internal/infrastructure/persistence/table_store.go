package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	appreconcile "github.com/stockrecon/backend/internal/application/reconciliation"
	"github.com/stockrecon/backend/internal/domain/shared"
	"github.com/stockrecon/backend/internal/domain/tabular"
	"github.com/stockrecon/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

const rowBatchSize = 500

// GormTableStore implements TableStore on a SQL database. Each table keeps
// its header and its rows as JSON cell lists, so any column layout fits.
type GormTableStore struct {
	db *gorm.DB
}

var _ appreconcile.TableStore = (*GormTableStore)(nil)

// NewGormTableStore creates a new GormTableStore
func NewGormTableStore(db *gorm.DB) *GormTableStore {
	return &GormTableStore{db: db}
}

// AutoMigrate creates or updates the schema
func (s *GormTableStore) AutoMigrate() error {
	return s.db.AutoMigrate(&models.MasterTableModel{}, &models.MasterRowModel{})
}

// ReadTable loads a table with its rows in stored order
func (s *GormTableStore) ReadTable(ctx context.Context, name string) (*tabular.Table, error) {
	db := s.db.WithContext(ctx)

	var model models.MasterTableModel
	if err := db.Where("name = ?", name).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("table '%s' not found", name))
		}
		return nil, shared.WrapDomainError(shared.CodeCollaboratorFailure, fmt.Sprintf("failed to read table '%s'", name), err)
	}

	var rows []models.MasterRowModel
	if err := db.Where("table_id = ?", model.ID).Order("position").Find(&rows).Error; err != nil {
		return nil, shared.WrapDomainError(shared.CodeCollaboratorFailure, fmt.Sprintf("failed to read rows of table '%s'", name), err)
	}

	grid := make([][]string, 0, len(rows)+1)
	grid = append(grid, model.Columns)
	for _, r := range rows {
		grid = append(grid, r.Cells)
	}
	return tabular.FromGrid(name, grid)
}

// WriteTable replaces the header and every row of a table in one transaction
func (s *GormTableStore) WriteTable(ctx context.Context, name string, table *tabular.Table) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.MasterTableModel
		err := tx.Where("name = ?", name).First(&model).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			now := time.Now()
			model = models.MasterTableModel{
				ID:        uuid.New(),
				Name:      name,
				Columns:   table.Columns,
				Revision:  1,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&model).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			model.Columns = table.Columns
			model.Revision++
			model.UpdatedAt = time.Now()
			if err := tx.Save(&model).Error; err != nil {
				return err
			}
			if err := tx.Where("table_id = ?", model.ID).Delete(&models.MasterRowModel{}).Error; err != nil {
				return err
			}
		}

		if table.Len() == 0 {
			return nil
		}
		rows := make([]models.MasterRowModel, len(table.Rows))
		for i, r := range table.Rows {
			rows[i] = models.MasterRowModel{TableID: model.ID, Position: i, Cells: []string(r)}
		}
		return tx.CreateInBatches(rows, rowBatchSize).Error
	})
	if err != nil {
		return shared.WrapDomainError(shared.CodeCollaboratorFailure, fmt.Sprintf("failed to write table '%s'", name), err)
	}
	return nil
}
