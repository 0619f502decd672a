// Package models contains GORM persistence models for the database table store.
// A master data table is stored as a header row (MasterTableModel) plus one
// MasterRowModel per data row, so any column layout fits without migrations.
package models
