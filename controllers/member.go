package controllers

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/taoyuan-youth/civic-server/config"
	"github.com/taoyuan-youth/civic-server/models"
	"github.com/taoyuan-youth/civic-server/utils"
)

// MemberProfile is the subset of identity fields an OAuth provider or a survey
// form can contribute. Empty fields do not overwrite existing values.
type MemberProfile struct {
	DisplayName string
	AvatarURL   string
	Gender      string
	Birthday    string
	Email       string
	Phone       string
	Source      string
}

// UpsertMember creates or refreshes the member identified by externalID and
// returns its id. A blank external id yields nil: anonymous interactions are
// stored without a member row.
func UpsertMember(externalID string, p MemberProfile) (*uint, error) {
	externalID = utils.Clean(externalID)
	if externalID == "" {
		return nil, nil
	}
	if p.Source == "" {
		p.Source = "form"
	}
	now := time.Now()

	var member models.Member
	err := config.DB.Where("external_id = ?", externalID).First(&member).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil {
		updates := map[string]interface{}{
			"source":              p.Source,
			"last_interaction_at": now,
		}
		if v := utils.Clean(p.DisplayName); v != "" {
			updates["display_name"] = v
		}
		if v := utils.Clean(p.AvatarURL); v != "" {
			updates["avatar_url"] = v
		}
		if v := utils.Clean(p.Gender); v != "" {
			updates["gender"] = v
		}
		if v := utils.Clean(p.Birthday); v != "" {
			updates["birthday"] = v
		}
		if v := utils.Clean(p.Email); v != "" {
			updates["email"] = v
		}
		if v := utils.Clean(p.Phone); v != "" {
			updates["phone"] = v
		}
		if e := config.DB.Model(&member).Updates(updates).Error; e != nil {
			return nil, e
		}
		return &member.ID, nil
	}

	member = models.Member{
		ExternalID:        externalID,
		DisplayName:       utils.Clean(p.DisplayName),
		AvatarURL:         utils.Clean(p.AvatarURL),
		Gender:            utils.Clean(p.Gender),
		Birthday:          utils.Clean(p.Birthday),
		Email:             utils.Clean(p.Email),
		Phone:             utils.Clean(p.Phone),
		Source:            p.Source,
		LastInteractionAt: &now,
	}
	if e := config.DB.Create(&member).Error; e != nil {
		return nil, e
	}
	return &member.ID, nil
}
