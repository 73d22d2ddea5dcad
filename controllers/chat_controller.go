package controllers

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"

	"github.com/taoyuan-youth/civic-server/config"
	"github.com/taoyuan-youth/civic-server/gemini"
	"github.com/taoyuan-youth/civic-server/metrics"
	"github.com/taoyuan-youth/civic-server/models"
)

// RAG is the streaming backend for /api/chat. nil keeps the endpoint in
// degraded mode (explanatory canned reply), matching a missing API key.
var RAG gemini.Streamer

// HistoryLimit caps the transcript window forwarded with each query.
var HistoryLimit = 12

const (
	degradedReplyFmt = "無法連接 Gemini 服務。請檢查伺服器設定。\n\n待發送訊息：%s\n請確認 GEMINI_API_KEY 已設定後再試。"
	streamErrorReply = "產生回覆時發生問題，請稍後再試或聯繫我們的服務人員。"
	emptyReply       = "抱歉，我目前無法回覆。請重新描述您的問題或聯繫我們的服務人員。"
)

type chatReq struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// frame is one SSE data payload. Content is a string for text/error frames
// and a source list for the sources frame.
type frame struct {
	Type      string      `json:"type"`
	Content   interface{} `json:"content"`
	SessionID string      `json:"session_id"`
}

// Chat relays one question through the hosted RAG pipeline as an SSE stream:
// a session frame, text deltas, optional sources, then an end frame. Both
// transcript turns are persisted.
func Chat(c *gin.Context) {
	var req chatReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payload must be JSON."})
		return
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	sessionID, err := ensureChatSession(req.SessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot open chat session"})
		return
	}

	history, err := fetchChatHistory(sessionID, HistoryLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load chat history"})
		return
	}

	// Persist the user's message before streaming.
	if err := saveChatMessage(sessionID, "user", message); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot store message"})
		return
	}

	metrics.ChatRequests.Inc()
	chatLog := log.WithField("session", sessionID)
	chatLog.Info("streaming chat response")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	writeFrame(c, frame{Type: "session", Content: "", SessionID: sessionID})

	if RAG == nil {
		reply := fmt.Sprintf(degradedReplyFmt, message)
		if err := saveChatMessage(sessionID, "assistant", reply); err != nil {
			chatLog.WithError(err).Error("failed to store degraded reply")
		}
		writeFrame(c, frame{Type: "text", Content: reply, SessionID: sessionID})
		writeFrame(c, frame{Type: "end", Content: "", SessionID: sessionID})
		return
	}

	var accumulated strings.Builder
	var sources []gemini.Source

	err = RAG.StreamAnswer(c.Request.Context(), message, history, func(ev gemini.Event) error {
		switch ev.Type {
		case "text":
			if ev.Text != "" {
				accumulated.WriteString(ev.Text)
				writeFrame(c, frame{Type: "text", Content: ev.Text, SessionID: sessionID})
			}
		case "sources":
			sources = ev.Sources
		}
		return nil
	})
	if err != nil {
		metrics.ChatStreamFailures.Inc()
		chatLog.WithError(err).Error("chat streaming failed")
		writeFrame(c, frame{Type: "error", Content: streamErrorReply, SessionID: sessionID})
		return
	}

	fullText := strings.TrimSpace(accumulated.String())
	if fullText != "" {
		if err := saveChatMessage(sessionID, "assistant", fullText); err != nil {
			chatLog.WithError(err).Error("failed to store assistant reply")
		}
	} else {
		if err := saveChatMessage(sessionID, "assistant", emptyReply); err != nil {
			chatLog.WithError(err).Error("failed to store fallback reply")
		}
		writeFrame(c, frame{Type: "text", Content: emptyReply, SessionID: sessionID})
	}

	if len(sources) > 0 {
		writeFrame(c, frame{Type: "sources", Content: sources, SessionID: sessionID})
	}
	writeFrame(c, frame{Type: "end", Content: "", SessionID: sessionID})
}

func writeFrame(c *gin.Context, f frame) {
	c.Render(-1, sse.Event{Data: f})
	c.Writer.Flush()
}

// ensureChatSession returns the requested session id after touching it.
// Anything that is not a uuid hex string is replaced with a fresh id so the
// fixed-width primary key always holds.
func ensureChatSession(requested string) (string, error) {
	id := strings.TrimSpace(requested)
	if !isSessionID(id) {
		u := uuid.New()
		id = hex.EncodeToString(u[:])
	}

	session := models.ChatSession{ID: id}
	err := config.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"updated_at": time.Now()}),
	}).Create(&session).Error
	if err != nil {
		return "", err
	}
	return id, nil
}

func isSessionID(id string) bool {
	if len(id) != 32 {
		return false
	}
	for _, r := range id {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}

// fetchChatHistory loads the newest limit messages in chronological order.
func fetchChatHistory(sessionID string, limit int) ([]gemini.Turn, error) {
	if limit <= 0 {
		limit = 1
	}

	var rows []models.ChatMessage
	err := config.DB.
		Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	history := make([]gemini.Turn, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		history = append(history, gemini.Turn{Role: rows[i].Role, Content: rows[i].Content})
	}
	return history, nil
}

func saveChatMessage(sessionID, role, content string) error {
	msg := models.ChatMessage{SessionID: sessionID, Role: role, Content: content}
	if err := config.DB.Create(&msg).Error; err != nil {
		return err
	}
	return config.DB.Model(&models.ChatSession{}).
		Where("id = ?", sessionID).
		Update("updated_at", time.Now()).Error
}
