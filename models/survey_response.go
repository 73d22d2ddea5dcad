package models

import "time"

// SurveyResponse stores one submission as a JSON object keyed by question id.
// MemberID is nullable: anonymous submissions keep the row after a member is
// deleted (FK SET NULL).
type SurveyResponse struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	SurveyID    uint       `gorm:"not null;index" json:"survey_id"`
	Survey      Survey     `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"-"`
	MemberID    *uint      `json:"member_id"`
	Member      *Member    `gorm:"foreignKey:MemberID;constraint:OnDelete:SET NULL" json:"-"`
	ExternalID  string     `gorm:"size:255" json:"external_id"`
	AnswersJSON string     `gorm:"type:text;not null" json:"-"`
	IsCompleted bool       `gorm:"default:true" json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
	Source      string     `gorm:"size:20;default:'form'" json:"source"`
	IPAddress   string     `gorm:"size:64" json:"ip_address"`
	UserAgent   string     `gorm:"size:512" json:"user_agent"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SurveyResponse) TableName() string {
	return "survey_responses"
}
