package controllers

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/taoyuan-youth/civic-server/config"
	"github.com/taoyuan-youth/civic-server/metrics"
	"github.com/taoyuan-youth/civic-server/middleware"
	"github.com/taoyuan-youth/civic-server/models"
	"github.com/taoyuan-youth/civic-server/utils"
)

//go:embed survey_form.html.tmpl
var surveyFormTmpl string

var surveyForm = template.Must(template.New("survey_form").Parse(surveyFormTmpl))

// formOption is one choice rendered as a radio/checkbox chip or select entry.
type formOption struct {
	Value string
	Label string
}

// formQuestion is the render model for one question; Kind picks the widget
// and InputType the <input> type for plain fields.
type formQuestion struct {
	ID          uint
	Kind        string // input | textarea | radio | checkbox | select
	InputType   string
	Prompt      string
	Description string
	Required    bool
	Options     []formOption
}

type formView struct {
	SurveyID    uint
	Name        string
	Description string
	Questions   []formQuestion
}

var inputTypeByQuestionType = map[string]string{
	"TEXT":      "text",
	"NAME":      "text",
	"ADDRESS":   "text",
	"PHONE":     "tel",
	"EMAIL":     "email",
	"BIRTHDAY":  "date",
	"ID_NUMBER": "text",
	"LINK":      "url",
}

func buildFormView(meta *surveyView) formView {
	view := formView{
		SurveyID:    meta.ID,
		Name:        meta.Name,
		Description: meta.Description,
	}
	for i, q := range meta.Questions {
		fq := formQuestion{
			ID:          q.ID,
			Prompt:      q.QuestionText,
			Description: q.Description,
			Required:    q.IsRequired,
		}
		if fq.Prompt == "" {
			fq.Prompt = fmt.Sprintf("Question %d", i+1)
		}

		switch q.QuestionType {
		case "TEXTAREA":
			fq.Kind = "textarea"
		case "SINGLE_CHOICE", "GENDER":
			fq.Kind = "radio"
			fq.Options = buildFormOptions(q.Options)
		case "MULTI_CHOICE":
			fq.Kind = "checkbox"
			fq.Options = buildFormOptions(q.Options)
		case "SELECT":
			fq.Kind = "select"
			fq.Options = buildFormOptions(q.Options)
		default:
			fq.Kind = "input"
			fq.InputType = "text"
			if t, ok := inputTypeByQuestionType[q.QuestionType]; ok {
				fq.InputType = t
			}
		}
		view.Questions = append(view.Questions, fq)
	}
	return view
}

// buildFormOptions accepts both option shapes the authoring payload allows:
// bare strings and {label, value} objects.
func buildFormOptions(raw []interface{}) []formOption {
	options := make([]formOption, 0, len(raw))
	for i, item := range raw {
		switch v := item.(type) {
		case string:
			options = append(options, formOption{Value: v, Label: v})
		case map[string]interface{}:
			label, _ := v["label"].(string)
			value, _ := v["value"].(string)
			if value == "" {
				value = label
			}
			if value == "" {
				value = fmt.Sprintf("option_%d", i+1)
			}
			if label == "" {
				label = value
			}
			options = append(options, formOption{Value: value, Label: label})
		}
	}
	return options
}

// SurveyFormPage renders the public HTML form for ?sid=<id>.
func SurveyFormPage(c *gin.Context) {
	sid, err := strconv.Atoi(c.Query("sid"))
	if err != nil || sid <= 0 {
		c.String(http.StatusBadRequest, "missing sid")
		return
	}

	meta, err := loadSurveyMeta(sid)
	if errors.Is(err, errSurveyNotFound) {
		c.String(http.StatusNotFound, "survey not found")
		return
	}
	if err != nil {
		c.String(http.StatusInternalServerError, "cannot load survey")
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := surveyForm.Execute(c.Writer, buildFormView(meta)); err != nil {
		log.WithError(err).Error("survey form render failed")
	}
}

// SurveyLoad returns the survey meta JSON consumed by embedded frontends.
func SurveyLoad(c *gin.Context) {
	sid, err := strconv.Atoi(c.Query("sid"))
	if err != nil || sid <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing sid"})
		return
	}
	meta, err := loadSurveyMeta(sid)
	if errors.Is(err, errSurveyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load survey"})
		return
	}
	c.JSON(http.StatusOK, meta)
}

type submitPayload struct {
	SID         json.Number            `json:"sid"`
	SurveyID    json.Number            `json:"survey_id"`
	Data        map[string]interface{} `json:"data"`
	Answers     map[string]interface{} `json:"answers"`
	Participant map[string]string      `json:"participant"`
}

// SurveySubmit stores a submission posted as JSON or a classic form body.
func SurveySubmit(c *gin.Context) {
	var sid int
	var answers map[string]interface{}
	participant := map[string]string{}

	if strings.Contains(c.ContentType(), "json") {
		var payload submitPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid payload"})
			return
		}
		raw := payload.SID
		if raw == "" {
			raw = payload.SurveyID
		}
		n, err := raw.Int64()
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid sid"})
			return
		}
		sid = int(n)
		answers = payload.Data
		if answers == nil {
			answers = payload.Answers
		}
		participant = payload.Participant
	} else {
		if err := c.Request.ParseForm(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid form"})
			return
		}
		form := c.Request.PostForm
		n, err := strconv.Atoi(form.Get("sid"))
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid sid"})
			return
		}
		sid = n
		answers = map[string]interface{}{}
		for key, values := range form {
			if !strings.HasPrefix(key, "q_") {
				continue
			}
			if len(values) > 1 {
				answers[key] = values
			} else {
				answers[key] = values[0]
			}
		}
		participant = map[string]string{
			"external_id":  utils.Clean(form.Get("participant_id")),
			"display_name": utils.Clean(form.Get("participant_name")),
		}
	}

	if err := saveSurveySubmission(c, sid, answers, participant); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// saveSurveySubmission validates the survey, normalizes the q_<id> answer
// keys, upserts the participant as a member and stores the response row.
func saveSurveySubmission(c *gin.Context, surveyID int, answers map[string]interface{}, participant map[string]string) error {
	var count int64
	if err := config.DB.Model(&models.Survey{}).Where("id = ?", surveyID).Count(&count).Error; err != nil {
		return errors.New("cannot verify survey")
	}
	if count == 0 {
		return errors.New("survey not found")
	}
	if answers == nil {
		return errors.New("answers must be a mapping")
	}

	// q_<id> keys are stripped to the question id; lists survive as lists,
	// everything else is stringified.
	normalized := map[string]interface{}{}
	for key, value := range answers {
		if !strings.HasPrefix(key, "q_") {
			continue
		}
		suffix := strings.SplitN(key, "_", 2)[1]
		switch v := value.(type) {
		case []interface{}:
			normalized[suffix] = v
		case []string:
			normalized[suffix] = v
		case nil:
			normalized[suffix] = ""
		default:
			normalized[suffix] = fmt.Sprint(v)
		}
	}

	externalID := participant["external_id"]
	if externalID == "" {
		externalID = participant["id"]
	}
	if externalID == "" {
		externalID = participant["identifier"]
	}
	displayName := participant["display_name"]
	if displayName == "" {
		displayName = participant["name"]
	}

	// A logged-in member backs the response when the form itself carried no
	// contact; their provider identity is kept as-is.
	var memberID *uint
	if externalID == "" {
		if m, ok := c.Get(middleware.CtxMember); ok {
			sessionMember := m.(models.Member)
			memberID = &sessionMember.ID
			externalID = sessionMember.ExternalID
		}
	}
	if memberID == nil {
		var err error
		memberID, err = UpsertMember(externalID, MemberProfile{
			DisplayName: displayName,
			Email:       participant["email"],
			Phone:       participant["phone"],
			Source:      "form",
		})
		if err != nil {
			return errors.New("cannot store participant")
		}
	}

	answersJSON, err := json.Marshal(normalized)
	if err != nil {
		return errors.New("cannot encode answers")
	}

	now := time.Now()
	response := models.SurveyResponse{
		SurveyID:    uint(surveyID),
		MemberID:    memberID,
		ExternalID:  utils.Clean(externalID),
		AnswersJSON: string(answersJSON),
		IsCompleted: true,
		CompletedAt: &now,
		Source:      "form",
		IPAddress:   c.ClientIP(),
		UserAgent:   c.GetHeader("User-Agent"),
	}
	if err := config.DB.Create(&response).Error; err != nil {
		return errors.New("cannot store response")
	}

	metrics.SurveySubmissions.Inc()
	return nil
}
