package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/taoyuan-youth/civic-server/config"
	"github.com/taoyuan-youth/civic-server/middleware"
	"github.com/taoyuan-youth/civic-server/models"
	"github.com/taoyuan-youth/civic-server/utils"
)

type questionPayload struct {
	QuestionType string          `json:"question_type"`
	QuestionText string          `json:"question_text"`
	Description  string          `json:"description"`
	FontSize     *int            `json:"font_size"`
	Options      json.RawMessage `json:"options"`
	OptionsJSON  json.RawMessage `json:"options_json"` // legacy key, same payload
	IsRequired   bool            `json:"is_required"`
	Order        *int            `json:"order"`
}

type registerSurveyReq struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Questions   []questionPayload `json:"questions"`
}

// RegisterSurvey persists a survey described as JSON and hands back the edit
// token that authorizes later management calls. The token is shown exactly
// once; only its hash is stored.
func RegisterSurvey(c *gin.Context) {
	var req registerSurveyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "payload must be a JSON object"})
		return
	}

	name := utils.Clean(req.Name)
	if name == "" {
		name = "Survey"
	}

	editToken, err := utils.GenerateEditToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot issue edit token"})
		return
	}
	tokenHash, err := utils.HashEditToken(editToken)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot issue edit token"})
		return
	}

	survey := models.Survey{
		Name:          name,
		Description:   utils.Clean(req.Description),
		Category:      utils.Clean(req.Category),
		IsActive:      true,
		EditTokenHash: tokenHash,
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&survey).Error; err != nil {
			return err
		}
		for idx, q := range req.Questions {
			question := models.SurveyQuestion{
				SurveyID:     survey.ID,
				QuestionType: utils.NormalizeQuestionType(q.QuestionType),
				QuestionText: utils.Clean(q.QuestionText),
				Description:  utils.Clean(q.Description),
				FontSize:     q.FontSize,
				OptionsJSON:  normalizeOptions(q),
				IsRequired:   q.IsRequired,
				DisplayOrder: idx + 1,
			}
			if question.QuestionText == "" {
				question.QuestionText = fmt.Sprintf("Question %d", idx+1)
			}
			if q.Order != nil {
				question.DisplayOrder = *q.Order
			}
			if err := tx.Create(&question).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot create survey"})
		return
	}

	log.WithFields(log.Fields{"survey": survey.ID, "questions": len(req.Questions)}).Info("survey created")
	c.JSON(http.StatusCreated, gin.H{
		"survey_id":      survey.ID,
		"question_count": len(req.Questions),
		"edit_token":     editToken,
	})
}

// normalizeOptions keeps only JSON arrays; anything else becomes "[]".
// "options" wins over the legacy "options_json" key.
func normalizeOptions(q questionPayload) string {
	raw := q.Options
	if len(raw) == 0 {
		raw = q.OptionsJSON
	}
	var list []interface{}
	if len(raw) == 0 || json.Unmarshal(raw, &list) != nil {
		return "[]"
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// ListSurveys returns active surveys, newest first.
func ListSurveys(c *gin.Context) {
	var surveys []models.Survey
	if err := config.DB.Where("is_active = ?", true).Order("id DESC").Find(&surveys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list surveys"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"surveys": surveys})
}

type questionView struct {
	ID           uint          `json:"id"`
	QuestionType string        `json:"question_type"`
	QuestionText string        `json:"question_text"`
	Description  string        `json:"description"`
	FontSize     *int          `json:"font_size"`
	Options      []interface{} `json:"options"`
	IsRequired   bool          `json:"is_required"`
	DisplayOrder int           `json:"display_order"`
}

type surveyView struct {
	ID          uint           `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Questions   []questionView `json:"questions"`
}

var errSurveyNotFound = errors.New("survey not found")

// loadSurveyMeta assembles the survey plus its ordered questions with decoded
// options, shared by the API and the public form.
func loadSurveyMeta(surveyID int) (*surveyView, error) {
	var survey models.Survey
	if err := config.DB.First(&survey, surveyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errSurveyNotFound
		}
		return nil, err
	}

	var questions []models.SurveyQuestion
	err := config.DB.
		Where("survey_id = ?", surveyID).
		Order("display_order ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}

	view := &surveyView{
		ID:          survey.ID,
		Name:        survey.Name,
		Description: survey.Description,
		Questions:   make([]questionView, 0, len(questions)),
	}
	for _, q := range questions {
		var options []interface{}
		if json.Unmarshal([]byte(q.OptionsJSON), &options) != nil {
			options = []interface{}{}
		}
		view.Questions = append(view.Questions, questionView{
			ID:           q.ID,
			QuestionType: q.QuestionType,
			QuestionText: q.QuestionText,
			Description:  q.Description,
			FontSize:     q.FontSize,
			Options:      options,
			IsRequired:   q.IsRequired,
			DisplayOrder: q.DisplayOrder,
		})
	}
	return view, nil
}

// GetSurvey returns the survey meta used to render a form.
func GetSurvey(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid survey id"})
		return
	}
	meta, err := loadSurveyMeta(id)
	if errors.Is(err, errSurveyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load survey"})
		return
	}
	c.JSON(http.StatusOK, meta)
}

type updateSurveyReq struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateSurvey patches survey fields. Edit-token guarded.
func UpdateSurvey(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	var req updateSurveyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid payload"})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = utils.Clean(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = utils.Clean(*req.Description)
	}
	if req.Category != nil {
		updates["category"] = utils.Clean(*req.Category)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	if err := config.DB.Model(&models.Survey{}).Where("id = ?", survey.ID).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

// DeactivateSurvey soft-removes a survey by flipping is_active.
func DeactivateSurvey(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)
	if err := config.DB.Model(&models.Survey{}).Where("id = ?", survey.ID).Update("is_active", false).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "deactivate failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deactivated"})
}

// ListResponses returns a survey's responses with decoded answers. Edit-token
// guarded.
func ListResponses(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	var responses []models.SurveyResponse
	err := config.DB.
		Where("survey_id = ?", survey.ID).
		Order("id ASC").
		Find(&responses).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list responses"})
		return
	}

	out := make([]gin.H, 0, len(responses))
	for _, r := range responses {
		var answers map[string]interface{}
		if json.Unmarshal([]byte(r.AnswersJSON), &answers) != nil {
			answers = map[string]interface{}{}
		}
		out = append(out, gin.H{
			"id":           r.ID,
			"member_id":    r.MemberID,
			"external_id":  r.ExternalID,
			"answers":      answers,
			"is_completed": r.IsCompleted,
			"completed_at": r.CompletedAt,
			"source":       r.Source,
			"created_at":   r.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"survey_id": survey.ID, "responses": out})
}
