package models

import "time"

type Survey struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:100" json:"category"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	// bcrypt hash of the edit token handed out at creation time, never serialized
	EditTokenHash string    `gorm:"type:text" json:"-"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Questions []SurveyQuestion `gorm:"foreignKey:SurveyID" json:"-"`
	Responses []SurveyResponse `gorm:"foreignKey:SurveyID" json:"-"`
}

func (Survey) TableName() string {
	return "surveys"
}
