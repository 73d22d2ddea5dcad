package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/taoyuan-youth/civic-server/config"
	"github.com/taoyuan-youth/civic-server/models"
	"github.com/taoyuan-youth/civic-server/utils"
)

const (
	HeaderEditToken = "X-Survey-Edit-Token"
	CtxSurvey       = "surveyObj"
)

// RequireSurveyEditor loads the survey addressed by :id and admits the request
// only with the edit token issued at creation time. The loaded survey is
// stashed in the context for the handler.
func RequireSurveyEditor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid survey id"})
			return
		}

		var survey models.Survey
		if e := config.DB.First(&survey, id).Error; e != nil {
			if errors.Is(e, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "survey not found"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "cannot load survey"})
			return
		}

		token := c.GetHeader(HeaderEditToken)
		if token == "" || !utils.VerifyEditToken(survey.EditTokenHash, token) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing or invalid edit token"})
			return
		}

		c.Set(CtxSurvey, survey)
		c.Next()
	}
}
