package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestBuildContents(t *testing.T) {
	history := []Turn{
		{Role: "user", Content: "營運計畫書怎麼寫？"},
		{Role: "assistant", Content: "您可以參考以下重點。"},
		{Role: "assistant", Content: "   "},
		{Role: "system", Content: "dropped"},
	}

	contents := buildContents("有範本嗎？", history)
	require.Len(t, contents, 3)

	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, "營運計畫書怎麼寫？", contents[0].Parts[0].Text)

	assert.Equal(t, genai.RoleModel, contents[1].Role)
	assert.Equal(t, "您可以參考以下重點。", contents[1].Parts[0].Text)

	assert.Equal(t, genai.RoleUser, contents[2].Role)
	assert.Equal(t, "有範本嗎？", contents[2].Parts[0].Text)
}

func TestBuildContentsEmptyHistory(t *testing.T) {
	contents := buildContents("hello", nil)
	require.Len(t, contents, 1)
	assert.Equal(t, "hello", contents[0].Parts[0].Text)
}

func TestExtractSources(t *testing.T) {
	chunks := []*genai.GroundingChunk{
		{RetrievedContext: &genai.GroundingChunkRetrievedContext{Text: "青創貸款最高100萬元"}},
		{RetrievedContext: &genai.GroundingChunkRetrievedContext{Text: ""}},
		{},
		{RetrievedContext: &genai.GroundingChunkRetrievedContext{Text: "申請窗口為青年事務局"}},
	}

	sources := extractSources(chunks)
	require.Len(t, sources, 2)
	assert.Equal(t, "青創貸款最高100萬元", sources[0].Text)
	assert.Equal(t, "申請窗口為青年事務局", sources[1].Text)
}

func TestExtractSourcesEmpty(t *testing.T) {
	assert.Empty(t, extractSources(nil))
}
