package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/taoyuan-youth/civic-server/models"
)

var DB *gorm.DB

// OAuthProvider holds the public half of one provider's credentials plus the
// secret used for the code exchange.
type OAuthProvider struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type AppConfig struct {
	Port           string
	FrontendOrigin string
	CookieSecure   bool

	Google   OAuthProvider
	Line     OAuthProvider
	Facebook OAuthProvider

	GeminiAPIKey     string
	GeminiModel      string
	RAGStoreName     string // persisted store resource name, reused when set
	RAGStoreDisplay  string
	RAGDataDir       string
	SystemPrompt     string
	ChatHistoryLimit int

	UploadDir   string
	SupabaseURL string
	SupabaseKey string
}

var App AppConfig

// Load reads .env / .env.local and materializes the app config. .env.local
// wins over .env, matching how the deployed service is configured.
func Load() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	App = AppConfig{
		Port:           envOr("PORT", "8300"),
		FrontendOrigin: envOr("FRONTEND_ORIGIN", "*"),
		CookieSecure:   os.Getenv("COOKIE_SECURE") == "1" || os.Getenv("VERCEL") != "",
		Google: OAuthProvider{
			ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
			RedirectURI:  envOr("GOOGLE_REDIRECT_URI", "http://localhost:8300/api/auth/google/callback"),
		},
		Line: OAuthProvider{
			ClientID:     os.Getenv("LINE_CHANNEL_ID"),
			ClientSecret: os.Getenv("LINE_CHANNEL_SECRET"),
			RedirectURI:  envOr("LINE_REDIRECT_URI", "http://localhost:8300/api/auth/line/callback"),
		},
		Facebook: OAuthProvider{
			ClientID:     os.Getenv("FACEBOOK_APP_ID"),
			ClientSecret: os.Getenv("FACEBOOK_APP_SECRET"),
			RedirectURI:  envOr("FACEBOOK_REDIRECT_URI", "http://localhost:8300/api/auth/facebook/callback"),
		},
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      envOr("GEMINI_MODEL", "gemini-2.5-flash"),
		RAGStoreName:     os.Getenv("RAG_STORE_NAME"),
		RAGStoreDisplay:  envOr("RAG_STORE_DISPLAY_NAME", "TaoyuanYouthBureauKB"),
		RAGDataDir:       envOr("RAG_DATA_DIR", "rag_data"),
		SystemPrompt:     os.Getenv("SYSTEM_PROMPT"),
		ChatHistoryLimit: envInt("CHAT_HISTORY_LIMIT", 12),
		UploadDir:        envOr("ASSET_LOCAL_DIR", "uploads"),
		SupabaseURL:      os.Getenv("SUPABASE_URL"),
		SupabaseKey:      os.Getenv("SUPABASE_KEY"),
	}
}

// ConnectDB opens the PostgreSQL connection and migrates the schema.
func ConnectDB() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Taipei",
			os.Getenv("DB_HOST"), os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"),
			os.Getenv("DB_NAME"), envOr("DB_PORT", "5432"))
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.WithError(err).Fatal("failed to connect database")
	}

	if err := Migrate(db); err != nil {
		log.WithError(err).Fatal("failed to migrate schema")
	}

	DB = db
	log.Info("connected to PostgreSQL and migrated schema")
}

// Migrate runs AutoMigrate for every model. Split out so tests can run it
// against an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Member{},
		&models.Survey{},
		&models.SurveyQuestion{},
		&models.SurveyResponse{},
		&models.ChatSession{},
		&models.ChatMessage{},
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
