package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyuan-youth/civic-server/config"
	"github.com/taoyuan-youth/civic-server/gemini"
	"github.com/taoyuan-youth/civic-server/models"
)

// stubStreamer replays scripted events and records what it was asked.
type stubStreamer struct {
	events  []gemini.Event
	err     error
	query   string
	history []gemini.Turn
}

func (s *stubStreamer) StreamAnswer(ctx context.Context, query string, history []gemini.Turn, emit func(gemini.Event) error) error {
	s.query = query
	s.history = history
	for _, ev := range s.events {
		if err := emit(ev); err != nil {
			return err
		}
	}
	return s.err
}

func chatRouter() *gin.Engine {
	r := gin.New()
	r.POST("/api/chat", Chat)
	return r
}

func postChat(t *testing.T, r *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// parseFrames decodes every SSE data payload in the response body.
func parseFrames(t *testing.T, body string) []frame {
	t.Helper()
	var frames []frame
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var f frame
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &f))
		frames = append(frames, f)
	}
	return frames
}

func frameTypes(frames []frame) []string {
	types := make([]string, 0, len(frames))
	for _, f := range frames {
		types = append(types, f.Type)
	}
	return types
}

func TestChatStreamsAnswer(t *testing.T) {
	setupTestDB(t)

	stub := &stubStreamer{events: []gemini.Event{
		{Type: "text", Text: "桃園市青年局提供"},
		{Type: "text", Text: "創業貸款諮詢。"},
		{Type: "sources", Sources: []gemini.Source{{Text: "青創資源手冊"}}},
		{Type: "end"},
	}}
	RAG = stub
	t.Cleanup(func() { RAG = nil })

	w := postChat(t, chatRouter(), gin.H{"message": "創業貸款怎麼申請？"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/event-stream")

	frames := parseFrames(t, w.Body.String())
	assert.Equal(t, []string{"session", "text", "text", "sources", "end"}, frameTypes(frames))

	sessionID := frames[0].SessionID
	assert.Len(t, sessionID, 32)

	assert.Equal(t, "桃園市青年局提供", frames[1].Content)
	assert.Equal(t, "創業貸款諮詢。", frames[2].Content)

	assert.Equal(t, "創業貸款怎麼申請？", stub.query)

	// Both turns persisted, assistant reply reassembled from the deltas.
	var messages []models.ChatMessage
	require.NoError(t, config.DB.Where("session_id = ?", sessionID).Order("id ASC").Find(&messages).Error)
	require.Len(t, messages, 2)
	assert.Equal(t, "user", messages[0].Role)
	assert.Equal(t, "assistant", messages[1].Role)
	assert.Equal(t, "桃園市青年局提供創業貸款諮詢。", messages[1].Content)
}

func TestChatForwardsHistoryWindow(t *testing.T) {
	setupTestDB(t)

	stub := &stubStreamer{events: []gemini.Event{{Type: "text", Text: "ok"}, {Type: "end"}}}
	RAG = stub
	t.Cleanup(func() { RAG = nil })

	r := chatRouter()
	first := postChat(t, r, gin.H{"message": "第一個問題"})
	require.Equal(t, http.StatusOK, first.Code)
	sessionID := parseFrames(t, first.Body.String())[0].SessionID

	second := postChat(t, r, gin.H{"message": "第二個問題", "session_id": sessionID})
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, sessionID, parseFrames(t, second.Body.String())[0].SessionID)

	// The second call sees the first exchange but never its own message.
	require.Len(t, stub.history, 2)
	assert.Equal(t, gemini.Turn{Role: "user", Content: "第一個問題"}, stub.history[0])
	assert.Equal(t, gemini.Turn{Role: "assistant", Content: "ok"}, stub.history[1])
}

func TestChatRejectsBadPayload(t *testing.T) {
	setupTestDB(t)
	RAG = nil

	w := postChat(t, chatRouter(), gin.H{"message": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	chatRouter().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatDegradedWithoutBackend(t *testing.T) {
	setupTestDB(t)
	RAG = nil

	w := postChat(t, chatRouter(), gin.H{"message": "有補助嗎？"})
	require.Equal(t, http.StatusOK, w.Code)

	frames := parseFrames(t, w.Body.String())
	assert.Equal(t, []string{"session", "text", "end"}, frameTypes(frames))

	reply, ok := frames[1].Content.(string)
	require.True(t, ok)
	assert.Contains(t, reply, "有補助嗎？")
	assert.Contains(t, reply, "GEMINI_API_KEY")
}

func TestChatStreamFailureEmitsErrorFrame(t *testing.T) {
	setupTestDB(t)

	stub := &stubStreamer{
		events: []gemini.Event{{Type: "text", Text: "部分回覆"}},
		err:    errors.New("upstream closed"),
	}
	RAG = stub
	t.Cleanup(func() { RAG = nil })

	w := postChat(t, chatRouter(), gin.H{"message": "問題"})
	require.Equal(t, http.StatusOK, w.Code)

	frames := parseFrames(t, w.Body.String())
	require.NotEmpty(t, frames)
	last := frames[len(frames)-1]
	assert.Equal(t, "error", last.Type)

	// The partial reply is not persisted on failure.
	sessionID := frames[0].SessionID
	var count int64
	require.NoError(t, config.DB.Model(&models.ChatMessage{}).
		Where("session_id = ? AND role = ?", sessionID, "assistant").Count(&count).Error)
	assert.Zero(t, count)
}

func TestChatEmptyStreamFallsBack(t *testing.T) {
	setupTestDB(t)

	stub := &stubStreamer{events: []gemini.Event{{Type: "end"}}}
	RAG = stub
	t.Cleanup(func() { RAG = nil })

	w := postChat(t, chatRouter(), gin.H{"message": "問題"})
	require.Equal(t, http.StatusOK, w.Code)

	frames := parseFrames(t, w.Body.String())
	assert.Equal(t, []string{"session", "text", "end"}, frameTypes(frames))
	reply, _ := frames[1].Content.(string)
	assert.Contains(t, reply, "抱歉")
}

func TestEnsureChatSessionMintsAndReuses(t *testing.T) {
	setupTestDB(t)

	id, err := ensureChatSession("")
	require.NoError(t, err)
	assert.Len(t, id, 32)

	again, err := ensureChatSession(id)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	var count int64
	require.NoError(t, config.DB.Model(&models.ChatSession{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureChatSessionRemintsInvalidIDs(t *testing.T) {
	setupTestDB(t)

	for _, requested := range []string{
		"short",
		strings.Repeat("a", 33),
		strings.Repeat("x", 40),
		"ZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ",
		"'; DROP TABLE chat_sessions; --",
	} {
		id, err := ensureChatSession(requested)
		require.NoError(t, err, "requested %q", requested)
		assert.NotEqual(t, requested, id)
		assert.Len(t, id, 32)
	}
}

func TestIsSessionID(t *testing.T) {
	assert.True(t, isSessionID("0123456789abcdef0123456789abcdef"))
	assert.False(t, isSessionID(""))
	assert.False(t, isSessionID("0123456789abcdef0123456789abcde"))
	assert.False(t, isSessionID("0123456789ABCDEF0123456789ABCDEF"))
	assert.False(t, isSessionID(strings.Repeat("g", 32)))
}
