package config

import (
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		TTL    int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	Exam struct {
		TotalQuestions      int `yaml:"total_questions"`
		PictureQuestionsMin int `yaml:"picture_questions_min"`
		TimeLimitMinutes    int `yaml:"time_limit_minutes"`
		PassingScore        int `yaml:"passing_score"`
		RecentExamWindow    int `yaml:"recent_exam_window"` // completed exams excluded from sampling
	} `yaml:"exam"`

	Payment struct {
		APIURL               string `yaml:"api_url"`
		MTNAPIKey            string `yaml:"mtn_api_key"`
		AirtelAPIKey         string `yaml:"airtel_api_key"`
		SpennAPIKey          string `yaml:"spenn_api_key"`
		WebhookSecret        string `yaml:"webhook_secret"`
		PendingExpiryMinutes int    `yaml:"pending_expiry_minutes"`
		SweepIntervalMinutes int    `yaml:"sweep_interval_minutes"`
	} `yaml:"payment"`

	Admin struct {
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"admin"`
}

var AppConfig *Config

func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")
	serverEnv := os.Getenv("SERVER_ENV")
	portStr := os.Getenv("SERVER_PORT")
	jwtSecret := os.Getenv("JWT_SECRET")

	if dbURL == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	// DATABASE_URL set: configure from environment (test mode)
	log.Println("Loading configuration from environment variables")

	cfg.Database.DSN = dbURL
	cfg.Server.Env = serverEnv
	cfg.Server.Port, _ = strconv.Atoi(portStr)
	cfg.JWT.Secret = jwtSecret
	cfg.JWT.TTL = 60

	cfg.Payment.APIURL = os.Getenv("PAYMENT_API_URL")
	cfg.Payment.MTNAPIKey = os.Getenv("MTN_API_KEY")
	cfg.Payment.AirtelAPIKey = os.Getenv("AIRTEL_API_KEY")
	cfg.Payment.SpennAPIKey = os.Getenv("SPENN_API_KEY")
	cfg.Payment.WebhookSecret = os.Getenv("PAYMENT_WEBHOOK_SECRET")

	cfg.Admin.Email = os.Getenv("FIRST_ADMIN_EMAIL")
	cfg.Admin.Password = os.Getenv("FIRST_ADMIN_PASSWORD")

	applyDefaults(&cfg)
	AppConfig = &cfg
}

// applyDefaults fills zero-valued exam and payment settings with the
// platform defaults.
func applyDefaults(cfg *Config) {
	if cfg.Exam.TotalQuestions == 0 {
		cfg.Exam.TotalQuestions = 20
	}
	if cfg.Exam.PictureQuestionsMin == 0 {
		cfg.Exam.PictureQuestionsMin = 4
	}
	if cfg.Exam.TimeLimitMinutes == 0 {
		cfg.Exam.TimeLimitMinutes = 20
	}
	if cfg.Exam.PassingScore == 0 {
		cfg.Exam.PassingScore = 12
	}
	if cfg.Exam.RecentExamWindow == 0 {
		cfg.Exam.RecentExamWindow = 3
	}
	if cfg.Payment.APIURL == "" {
		cfg.Payment.APIURL = "https://pay.itecpay.rw/api/pay"
	}
	if cfg.Payment.PendingExpiryMinutes == 0 {
		cfg.Payment.PendingExpiryMinutes = 15
	}
	if cfg.Payment.SweepIntervalMinutes == 0 {
		cfg.Payment.SweepIntervalMinutes = 5
	}
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
