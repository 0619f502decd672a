package models

import (
	"time"

	"github.com/google/uuid"
)

// MasterTableModel is one stored master data table
type MasterTableModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	Columns   []string  `gorm:"serializer:json;not null"`
	Revision  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (MasterTableModel) TableName() string {
	return "master_tables"
}

// MasterRowModel is one row of a stored table. Cells line up with the
// owning table's Columns.
type MasterRowModel struct {
	ID       uint      `gorm:"primaryKey;autoIncrement"`
	TableID  uuid.UUID `gorm:"type:uuid;not null;index:idx_master_rows_position,priority:1"`
	Position int       `gorm:"not null;index:idx_master_rows_position,priority:2"`
	Cells    []string  `gorm:"serializer:json;not null"`
}

// TableName returns the table name for GORM
func (MasterRowModel) TableName() string {
	return "master_table_rows"
}
