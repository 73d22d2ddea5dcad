package models

import "time"

// SurveyQuestion is one typed field of a survey. OptionsJSON holds the raw
// option list for choice-style types; free-text types leave it as "[]".
type SurveyQuestion struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	SurveyID     uint      `gorm:"not null;index" json:"survey_id"`
	Survey       Survey    `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"-"`
	QuestionType string    `gorm:"size:50;not null" json:"question_type"`
	QuestionText string    `gorm:"type:text;not null" json:"question_text"`
	Description  string    `gorm:"type:text" json:"description"`
	FontSize     *int      `json:"font_size"`
	OptionsJSON  string    `gorm:"type:text" json:"-"`
	IsRequired   bool      `gorm:"default:false" json:"is_required"`
	DisplayOrder int       `gorm:"default:0" json:"display_order"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SurveyQuestion) TableName() string {
	return "survey_questions"
}
