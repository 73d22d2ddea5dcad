// Package gemini wraps the hosted Gemini API: client setup, FileSearch store
// bootstrap and retrieval-augmented answer generation. No retrieval or ranking
// happens locally; the provider's managed file-search service does all of it.
package gemini

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// Service owns one genai client and the name of the FileSearch store every
// chat query is grounded against.
type Service struct {
	client       *genai.Client
	model        string
	storeName    string
	systemPrompt string
}

type Config struct {
	APIKey string
	Model  string
	// StoreName reuses an existing FileSearch store; when empty a new store is
	// created and seeded from DataDir.
	StoreName    string
	DisplayName  string
	DataDir      string
	SystemPrompt string
}

// New builds the client and ensures a usable RAG store. An empty API key is an
// error; callers keep the chat endpoint in degraded mode in that case.
func New(ctx context.Context, cfg Config) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key not configured")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	prompt := cfg.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt
	}

	s := &Service{
		client:       client,
		model:        cfg.Model,
		storeName:    cfg.StoreName,
		systemPrompt: prompt,
	}

	if s.storeName != "" {
		log.WithField("store", s.storeName).Info("using existing RAG store")
		return s, nil
	}

	if err := s.bootstrapStore(ctx, cfg.DisplayName, cfg.DataDir); err != nil {
		return nil, err
	}
	return s, nil
}

// StoreName returns the resource name of the active FileSearch store.
func (s *Service) StoreName() string {
	return s.storeName
}

func (s *Service) bootstrapStore(ctx context.Context, displayName, dataDir string) error {
	store, err := s.client.FileSearchStores.Create(ctx, &genai.CreateFileSearchStoreConfig{
		DisplayName: displayName,
	})
	if err != nil {
		return fmt.Errorf("gemini: create RAG store: %w", err)
	}
	if store.Name == "" {
		return fmt.Errorf("gemini: RAG store created without a name")
	}
	s.storeName = store.Name
	log.WithField("store", s.storeName).Info("created RAG store")

	entries, err := filepath.Glob(filepath.Join(dataDir, "*.md"))
	if err != nil || len(entries) == 0 {
		log.WithField("dir", dataDir).Warn("no knowledge-base documents found")
		return nil
	}
	log.WithFields(log.Fields{"dir": dataDir, "count": len(entries)}).Info("uploading knowledge-base documents")
	for _, path := range entries {
		if err := s.UploadDocument(ctx, path); err != nil {
			log.WithError(err).WithField("file", path).Error("failed to upload document")
		}
	}
	return nil
}

// UploadDocument pushes one local file into the RAG store and polls the
// long-running operation until indexing completes.
func (s *Service) UploadDocument(ctx context.Context, path string) error {
	if s.storeName == "" {
		return fmt.Errorf("gemini: RAG store not initialized")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("gemini: stat %s: %w", path, err)
	}

	op, err := s.client.FileSearchStores.UploadToFileSearchStoreFromPath(ctx, path, s.storeName,
		&genai.UploadToFileSearchStoreConfig{
			MIMEType: mimeTypeFor(path),
		})
	if err != nil {
		return fmt.Errorf("gemini: upload %s: %w", path, err)
	}

	for !op.Done {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
		op, err = s.client.Operations.GetUploadToFileSearchStoreOperation(ctx, op, nil)
		if err != nil {
			return fmt.Errorf("gemini: poll upload of %s: %w", path, err)
		}
	}

	log.WithFields(log.Fields{"file": path, "store": s.storeName}).Info("uploaded document to RAG store")
	return nil
}

// DeleteStore force-deletes the active store. Used by operators when rotating
// the knowledge base.
func (s *Service) DeleteStore(ctx context.Context) error {
	if s.storeName == "" {
		return nil
	}
	err := s.client.FileSearchStores.Delete(ctx, s.storeName, &genai.DeleteFileSearchStoreConfig{
		Force: genai.Ptr(true),
	})
	if err != nil {
		return fmt.Errorf("gemini: delete RAG store %s: %w", s.storeName, err)
	}
	log.WithField("store", s.storeName).Info("deleted RAG store")
	s.storeName = ""
	return nil
}

func mimeTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	case ".pdf":
		return "application/pdf"
	case ".html":
		return "text/html"
	case ".json":
		return "application/json"
	default:
		return "text/plain"
	}
}
