package controllers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/taoyuan-youth/civic-server/config"
	"github.com/taoyuan-youth/civic-server/middleware"
	"github.com/taoyuan-youth/civic-server/models"
)

// ExportResponses downloads a survey's responses as CSV or XLSX
// (?format=csv|xlsx, default csv). Edit-token guarded.
func ExportResponses(c *gin.Context) {
	survey := c.MustGet(middleware.CtxSurvey).(models.Survey)

	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv")))
	if format != "csv" && format != "xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xlsx"})
		return
	}

	var questions []models.SurveyQuestion
	err := config.DB.
		Where("survey_id = ?", survey.ID).
		Order("display_order ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load questions"})
		return
	}

	var responses []models.SurveyResponse
	err = config.DB.
		Where("survey_id = ?", survey.ID).
		Order("id ASC").
		Find(&responses).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load responses"})
		return
	}

	header := []string{"response_id", "submitted_at", "external_id"}
	for i, q := range questions {
		title := q.QuestionText
		if title == "" {
			title = fmt.Sprintf("Question %d", i+1)
		}
		header = append(header, title)
	}

	rows := make([][]string, 0, len(responses))
	for _, r := range responses {
		var answers map[string]interface{}
		if json.Unmarshal([]byte(r.AnswersJSON), &answers) != nil {
			answers = map[string]interface{}{}
		}
		row := []string{
			strconv.FormatUint(uint64(r.ID), 10),
			r.CreatedAt.Format(time.RFC3339),
			r.ExternalID,
		}
		for _, q := range questions {
			row = append(row, answerCell(answers[strconv.FormatUint(uint64(q.ID), 10)]))
		}
		rows = append(rows, row)
	}

	filename := fmt.Sprintf("survey_%d_responses", survey.ID)
	if format == "xlsx" {
		writeXLSX(c, filename, header, rows)
		return
	}
	writeCSV(c, filename, header, rows)
}

// answerCell flattens one stored answer for a spreadsheet cell. Multi-choice
// lists are joined with "; ".
func answerCell(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case []interface{}:
		parts := make([]string, 0, len(value))
		for _, item := range value {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprint(value)
	}
}

func writeCSV(c *gin.Context, filename string, header []string, rows [][]string) {
	var buf bytes.Buffer
	// UTF-8 BOM so Excel opens Chinese answers correctly.
	buf.WriteString("\xEF\xBB\xBF")

	w := csv.NewWriter(&buf)
	_ = w.Write(header)
	for _, row := range rows {
		_ = w.Write(row)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot encode csv"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func writeXLSX(c *gin.Context, filename string, header []string, rows [][]string) {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.WithError(err).Warn("closing xlsx writer failed")
		}
	}()

	sheet := "Responses"
	f.SetSheetName(f.GetSheetName(0), sheet)

	writeRow := func(rowIdx int, cells []string) error {
		for colIdx, cell := range cells {
			name, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, name, cell); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeRow(1, header); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot build workbook"})
		return
	}
	for i, row := range rows {
		if err := writeRow(i+2, row); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot build workbook"})
			return
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot encode workbook"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
