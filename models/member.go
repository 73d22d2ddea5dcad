package models

import "time"

// Member is an identity collected from an OAuth provider or a survey form.
// ExternalID is "<provider>_<id>" for OAuth members and whatever contact the
// visitor typed for form members.
type Member struct {
	ID                uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	ExternalID        string     `gorm:"size:255;uniqueIndex" json:"external_id"`
	DisplayName       string     `gorm:"size:255" json:"display_name"`
	AvatarURL         string     `gorm:"size:512" json:"avatar_url"`
	Gender            string     `gorm:"size:20" json:"gender"`
	Birthday          string     `gorm:"size:20" json:"birthday"`
	Email             string     `gorm:"size:255" json:"email"`
	Phone             string     `gorm:"size:50" json:"phone"`
	Source            string     `gorm:"size:20;default:'form'" json:"source"` // form | google | line | facebook
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	LastInteractionAt *time.Time `json:"last_interaction_at"`

	Responses []SurveyResponse `gorm:"foreignKey:MemberID" json:"-"`
}

func (Member) TableName() string {
	return "members"
}
