package db

import "time"

type DrinkModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	Title     string    `gorm:"uniqueIndex;not null"`
	Recipe    []byte    `gorm:"type:jsonb;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (DrinkModel) TableName() string {
	return "drinks"
}
