package models

import "time"

// DocumentSequenceModel is the counter of one document prefix in one period
type DocumentSequenceModel struct {
	Prefix    string    `gorm:"type:varchar(10);primary_key"`
	Period    string    `gorm:"type:char(6);primary_key"`
	LastValue int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DocumentSequenceModel) TableName() string {
	return "document_sequences"
}
