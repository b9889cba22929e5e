package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig          `yaml:"server"`
	Log     LogConfig             `yaml:"log"`
	Storage StorageConfig         `yaml:"storage"`
	SMTP    SMTPConfig            `yaml:"smtp"`
	Leads   LeadsConfig           `yaml:"leads"`
	CSRF    CSRFConfig            `yaml:"csrf"`
	CRM     CRMConfig             `yaml:"crm"`
	Forms   map[string]FormConfig `yaml:"forms" validate:"dive"`
}

type ServerConfig struct {
	Port                 int      `yaml:"port" env:"FORMRELAY_PORT" validate:"min=1,max=65535"`
	AllowedRedirectHosts []string `yaml:"allowed_redirect_hosts"`
	MaxUploadMB          int      `yaml:"max_upload_mb" validate:"min=1"`
	RateLimit            int      `yaml:"rate_limit"` // negative disables
	RateLimitWindowSecs  int      `yaml:"rate_limit_window_seconds" validate:"min=1"`
}

type LogConfig struct {
	Level      string `yaml:"level" env:"FORMRELAY_LOG_LEVEL" validate:"oneof=debug info warn error"`
	Format     string `yaml:"format" validate:"oneof=text json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type StorageConfig struct {
	Driver string             `yaml:"driver" validate:"oneof=local minio"`
	Local  LocalStorageConfig `yaml:"local"`
	Minio  MinioConfig        `yaml:"minio"`
}

type LocalStorageConfig struct {
	Dir       string `yaml:"dir"`
	PublicURL string `yaml:"public_url"`
}

type MinioConfig struct {
	Endpoint     string `yaml:"endpoint"`
	AccessKey    string `yaml:"access_key" env:"FORMRELAY_MINIO_ACCESS_KEY"`
	SecretKey    string `yaml:"secret_key" env:"FORMRELAY_MINIO_SECRET_KEY"`
	Bucket       string `yaml:"bucket"`
	UseSSL       bool   `yaml:"use_ssl"`
	ExpireDays   int    `yaml:"expire_days"`
	PublicBucket bool   `yaml:"public_bucket"` // link objects directly instead of presigning
}

type SMTPConfig struct {
	Host     string `yaml:"host" env:"FORMRELAY_SMTP_HOST"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username" env:"FORMRELAY_SMTP_USERNAME"`
	Password string `yaml:"password" env:"FORMRELAY_SMTP_PASSWORD"`
	From     string `yaml:"from" validate:"omitempty,email"`
}

type LeadsConfig struct {
	Driver   string      `yaml:"driver" validate:"oneof=memory mongo none"`
	MaxLeads int         `yaml:"max_leads"`
	Mongo    MongoConfig `yaml:"mongo"`
}

type MongoConfig struct {
	URI        string `yaml:"uri" env:"FORMRELAY_MONGO_URI"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type CSRFConfig struct {
	Secret     string `yaml:"secret" env:"FORMRELAY_CSRF_SECRET"`
	TTLMinutes int    `yaml:"ttl_minutes" validate:"min=1"`
}

type CRMConfig struct {
	BaseURL        string              `yaml:"base_url" validate:"omitempty,url"`
	APIKey         string              `yaml:"api_key" env:"FORMRELAY_CRM_API_KEY"`
	LocationID     string              `yaml:"location_id" env:"FORMRELAY_CRM_LOCATION_ID"`
	TimeoutSeconds int                 `yaml:"timeout_seconds"`
	PipelineID     string              `yaml:"pipeline_id"`
	StageID        string              `yaml:"stage_id"`
	CustomFields   []CustomFieldConfig `yaml:"custom_fields" validate:"dive"`
}

type CustomFieldConfig struct {
	Name     string   `yaml:"name" validate:"required"`
	DataType string   `yaml:"data_type" validate:"required"`
	Options  []string `yaml:"options"`
}

// FormConfig is the operator-editable settings of one named form.
// Schema holds the JSON-encoded field list; an empty value selects the
// built-in default for that form.
type FormConfig struct {
	Title           string `yaml:"title"`
	Recipient       string `yaml:"recipient" validate:"omitempty,email"`
	WebhookURL      string `yaml:"webhook_url" validate:"omitempty,url"`
	LeadType        string `yaml:"lead_type"`
	SuccessRedirect string `yaml:"success_redirect"`
	EmailEnabled    *bool  `yaml:"email_enabled"`
	LeadLogEnabled  *bool  `yaml:"lead_log_enabled"`
	CRMSyncEnabled  bool   `yaml:"crm_sync_enabled"`
	Schema          string `yaml:"schema"`
}

// DefaultCustomFields is the CRM custom field set the intake forms write to.
var DefaultCustomFields = []CustomFieldConfig{
	{Name: "Child Date of Birth", DataType: "DATE"},
	{Name: "Preferred Start Date", DataType: "DATE"},
	{Name: "Inquiry Source", DataType: "TEXT"},
	{Name: "Program Interest", DataType: "MULTIPLE_OPTIONS", Options: []string{"Infant", "Toddler", "Preschool", "Pre-K", "School Age"}},
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	// Secrets may live next to the config file in a .env file
	dotenv := filepath.Join(filepath.Dir(path), ".env")
	if _, err := os.Stat(dotenv); err == nil {
		if err := godotenv.Load(dotenv); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", dotenv, err)
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 10
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 30
	}
	if c.Server.RateLimitWindowSecs == 0 {
		c.Server.RateLimitWindowSecs = 60
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "local"
	}
	if c.Storage.Local.Dir == "" {
		c.Storage.Local.Dir = "./uploads"
	}
	if c.Storage.Local.PublicURL == "" {
		c.Storage.Local.PublicURL = "/uploads"
	}
	if c.Storage.Minio.ExpireDays == 0 {
		c.Storage.Minio.ExpireDays = 7
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Leads.Driver == "" {
		c.Leads.Driver = "memory"
	}
	if c.Leads.MaxLeads == 0 {
		c.Leads.MaxLeads = 1000
	}
	if c.Leads.Mongo.Database == "" {
		c.Leads.Mongo.Database = "formrelay"
	}
	if c.Leads.Mongo.Collection == "" {
		c.Leads.Mongo.Collection = "leads"
	}
	if c.CSRF.TTLMinutes == 0 {
		c.CSRF.TTLMinutes = 60
	}
	if c.CSRF.Secret == "" {
		// Tokens will not survive a restart
		c.CSRF.Secret = uuid.NewString()
	}
	if c.CRM.BaseURL == "" {
		c.CRM.BaseURL = "https://services.leadconnectorhq.com"
	}
	if c.CRM.TimeoutSeconds == 0 {
		c.CRM.TimeoutSeconds = 30
	}
	if len(c.CRM.CustomFields) == 0 {
		c.CRM.CustomFields = DefaultCustomFields
	}
	if len(c.Forms) == 0 {
		c.Forms = map[string]FormConfig{
			"contact":     {Title: "Contact", LeadType: "contact"},
			"career":      {Title: "Career", LeadType: "career"},
			"acquisition": {Title: "Acquisition", LeadType: "acquisition"},
		}
	}
	for key, form := range c.Forms {
		if form.LeadType == "" {
			form.LeadType = key
		}
		if form.Title == "" {
			form.Title = key
		}
		c.Forms[key] = form
	}
}

// Enabled reports a toggle value, treating an unset toggle as on.
func Enabled(toggle *bool) bool {
	return toggle == nil || *toggle
}
