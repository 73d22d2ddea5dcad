package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Turn is one prior message of the conversation window.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// Source is a grounding snippet the provider retrieved from the RAG store.
type Source struct {
	Text string `json:"text"`
}

// Event is one unit of streamed output: a text delta, the collected sources,
// or the end marker.
type Event struct {
	Type    string // "text" | "sources" | "end"
	Text    string
	Sources []Source
}

// Streamer is what the chat endpoint depends on; tests substitute a stub.
type Streamer interface {
	StreamAnswer(ctx context.Context, query string, history []Turn, emit func(Event) error) error
}

// StreamAnswer streams a grounded answer for query. History precedes the
// query, emit is called for every text delta, then once with the sources when
// the model grounded its answer, then once with the end marker.
func (s *Service) StreamAnswer(ctx context.Context, query string, history []Turn, emit func(Event) error) error {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(s.systemPrompt, genai.RoleUser),
		Tools: []*genai.Tool{{
			FileSearch: &genai.FileSearch{
				FileSearchStoreNames: []string{s.storeName},
			},
		}},
	}

	var grounding []*genai.GroundingChunk
	for chunk, err := range s.client.Models.GenerateContentStream(ctx, s.model, buildContents(query, history), cfg) {
		if err != nil {
			return fmt.Errorf("gemini: stream: %w", err)
		}
		if text := chunk.Text(); text != "" {
			if err := emit(Event{Type: "text", Text: text}); err != nil {
				return err
			}
		}
		// Grounding metadata usually arrives on the final chunk.
		if len(chunk.Candidates) > 0 {
			if md := chunk.Candidates[0].GroundingMetadata; md != nil && len(md.GroundingChunks) > 0 {
				grounding = md.GroundingChunks
			}
		}
	}

	if sources := extractSources(grounding); len(sources) > 0 {
		if err := emit(Event{Type: "sources", Sources: sources}); err != nil {
			return err
		}
	}
	return emit(Event{Type: "end"})
}

// Answer is the non-streaming variant, used by the knowledge-base admin check.
func (s *Service) Answer(ctx context.Context, query string, history []Turn) (string, []Source, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(s.systemPrompt, genai.RoleUser),
		Tools: []*genai.Tool{{
			FileSearch: &genai.FileSearch{
				FileSearchStoreNames: []string{s.storeName},
			},
		}},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, buildContents(query, history), cfg)
	if err != nil {
		return "", nil, fmt.Errorf("gemini: generate: %w", err)
	}

	var grounding []*genai.GroundingChunk
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		grounding = resp.Candidates[0].GroundingMetadata.GroundingChunks
	}
	return resp.Text(), extractSources(grounding), nil
}

// buildContents maps the transcript window onto genai contents. Assistant
// turns become the "model" role; blank or foreign-role turns are dropped.
func buildContents(query string, history []Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, t := range history {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		switch t.Role {
		case "user":
			contents = append(contents, genai.NewContentFromText(content, genai.RoleUser))
		case "assistant":
			contents = append(contents, genai.NewContentFromText(content, genai.RoleModel))
		}
	}
	return append(contents, genai.NewContentFromText(query, genai.RoleUser))
}

func extractSources(chunks []*genai.GroundingChunk) []Source {
	var sources []Source
	for _, gc := range chunks {
		if gc.RetrievedContext != nil && gc.RetrievedContext.Text != "" {
			sources = append(sources, Source{Text: gc.RetrievedContext.Text})
		}
	}
	return sources
}
