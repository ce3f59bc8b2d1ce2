package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"jamesfarrell.me/youtube-rag/internal/llm"
	"jamesfarrell.me/youtube-rag/internal/transcript"
)

// EnvPrefix namespaces the environment variables read through viper,
// e.g. YTRAG_TOP_K.
const EnvPrefix = "YTRAG"

// Keys shared by viper defaults, env binding and CLI flags.
const (
	KeyAPIKey         = "api_key"
	KeyBaseURL        = "base_url"
	KeyEmbeddingModel = "embedding_model"
	KeyChatModel      = "chat_model"
	KeyTemperature    = "temperature"
	KeyLanguages      = "languages"
	KeyChunkSize      = "chunk_size"
	KeyChunkOverlap   = "chunk_overlap"
	KeyTopK           = "top_k"
	KeyRequestTimeout = "request_timeout"
	KeyDatabaseID     = "database_id"
	KeyDatabaseURL    = "database_url"
	KeyListenAddr     = "listen_addr"
	KeyServiceAPIKey  = "service_api_key"
	KeyDebug          = "debug"
	KeyLogFile        = "log_file"

	KeyAudioFallback     = "audio_fallback"
	KeyTranscribeAPIKey  = "transcribe_api_key"
	KeyTranscribeBaseURL = "transcribe_base_url"
	KeyTranscribeModel   = "transcribe_model"
)

var (
	errMissingAPIKey           = errors.New("no API key: set GOOGLE_API_KEY or GEMINI_API_KEY")
	errMissingTranscribeAPIKey = errors.New("audio fallback needs a speech-to-text key: set LEMONFOX_API_KEY")
)

type Config struct {
	APIKey         string
	BaseURL        string        `validate:"required,url"`
	EmbeddingModel string        `validate:"required"`
	ChatModel      string        `validate:"required"`
	Temperature    float64       `validate:"gte=0,lte=2"`
	Languages      []string      `validate:"min=1,dive,required"`
	ChunkSize      int           `validate:"gt=0"`
	ChunkOverlap   int           `validate:"gte=0,ltfield=ChunkSize"`
	TopK           int           `validate:"gt=0"`
	RequestTimeout time.Duration `validate:"gte=0"`
	DatabaseURL    string
	ListenAddr     string `validate:"required"`
	ServiceAPIKey  string
	Debug          bool
	LogFile        string

	// Audio fallback transcribes the downloaded audio when a video has no captions.
	AudioFallback     bool
	TranscribeAPIKey  string
	TranscribeBaseURL string `validate:"required,url"`
	TranscribeModel   string `validate:"required"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyBaseURL, llm.DefaultBaseURL)
	v.SetDefault(KeyEmbeddingModel, "models/embedding-001")
	v.SetDefault(KeyChatModel, "gemini-2.5-flash")
	v.SetDefault(KeyTemperature, 0.7)
	v.SetDefault(KeyLanguages, []string{"en"})
	v.SetDefault(KeyChunkSize, 500)
	v.SetDefault(KeyChunkOverlap, 150)
	v.SetDefault(KeyTopK, 2)
	v.SetDefault(KeyRequestTimeout, time.Duration(0))
	v.SetDefault(KeyDatabaseID, "DEFAULT")
	v.SetDefault(KeyListenAddr, ":8080")
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyAudioFallback, false)
	v.SetDefault(KeyTranscribeBaseURL, transcript.DefaultTranscribeBaseURL)
	v.SetDefault(KeyTranscribeModel, "whisper-1")
}

// Load reads .env, binds YTRAG_* environment variables on v and returns the
// validated configuration. Flags bound to v before Load take precedence.
func Load(v *viper.Viper) (*Config, error) {
	_ = godotenv.Load()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	cfg := &Config{
		APIKey:         firstNonEmpty(v.GetString(KeyAPIKey), os.Getenv("GOOGLE_API_KEY"), os.Getenv("GEMINI_API_KEY")),
		BaseURL:        v.GetString(KeyBaseURL),
		EmbeddingModel: v.GetString(KeyEmbeddingModel),
		ChatModel:      v.GetString(KeyChatModel),
		Temperature:    v.GetFloat64(KeyTemperature),
		Languages:      splitList(v.GetStringSlice(KeyLanguages)),
		ChunkSize:      v.GetInt(KeyChunkSize),
		ChunkOverlap:   v.GetInt(KeyChunkOverlap),
		TopK:           v.GetInt(KeyTopK),
		RequestTimeout: v.GetDuration(KeyRequestTimeout),
		DatabaseURL:    firstNonEmpty(v.GetString(KeyDatabaseURL), DatabaseURL(v.GetString(KeyDatabaseID))),
		ListenAddr:     v.GetString(KeyListenAddr),
		ServiceAPIKey:  firstNonEmpty(v.GetString(KeyServiceAPIKey), os.Getenv("SERVICE_API_KEY")),
		Debug:          v.GetBool(KeyDebug),
		LogFile:        v.GetString(KeyLogFile),

		AudioFallback:     v.GetBool(KeyAudioFallback),
		TranscribeAPIKey:  firstNonEmpty(v.GetString(KeyTranscribeAPIKey), os.Getenv("LEMONFOX_API_KEY")),
		TranscribeBaseURL: v.GetString(KeyTranscribeBaseURL),
		TranscribeModel:   v.GetString(KeyTranscribeModel),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	err := validator.New().Struct(c)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// RequireAPIKey fails when no provider credential was found. Commands that
// only fetch transcripts don't call it.
func (c *Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return errMissingAPIKey
	}
	return nil
}

// RequireTranscribeAPIKey fails when the audio fallback is enabled without
// a speech-to-text credential.
func (c *Config) RequireTranscribeAPIKey() error {
	if c.AudioFallback && c.TranscribeAPIKey == "" {
		return errMissingTranscribeAPIKey
	}
	return nil
}

// DatabaseURL looks up DATABASE_URL_<id>, falling back to DATABASE_URL.
// An empty id means DEFAULT. It returns "" when neither is set.
func DatabaseURL(id string) string {
	if id == "" {
		id = "DEFAULT"
	}
	key := fmt.Sprintf("DATABASE_URL_%s", strings.ToUpper(id))
	return firstNonEmpty(os.Getenv(key), os.Getenv("DATABASE_URL"))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "url":
		return fmt.Sprintf("%s must be a valid URL", fe.Field())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", fe.Field(), fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be %s %s", fe.Field(), map[string]string{"gt": ">", "gte": ">="}[fe.Tag()], fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be <= %s", fe.Field(), fe.Param())
	case "ltfield":
		return fmt.Sprintf("%s must be smaller than %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag())
}

// splitList accepts both repeated values and comma-separated ones.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
