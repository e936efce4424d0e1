package config

import (
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var once sync.Once

func InitConfig() {
	once.Do(func() {
		// a missing .env is fine, real environment variables win
		_ = godotenv.Load()
		viper.AutomaticEnv()

		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("lang", "LANG")
		viper.BindEnv("db_path", "DB_PATH")
		viper.BindEnv("email_user", "EMAIL_USER")
		viper.BindEnv("email_pass", "EMAIL_PASS")
		viper.BindEnv("smtp_host", "SMTP_HOST")
		viper.BindEnv("smtp_port", "SMTP_PORT")
		viper.BindEnv("news_api_key", "NEWS_API_KEY")
		viper.BindEnv("alert_interval", "ALERT_INTERVAL")
		viper.BindEnv("quote_rps", "QUOTE_RPS")

		viper.SetDefault("metrics_port", 9090)
		viper.SetDefault("debug", false)
		viper.SetDefault("lang", "en")
		viper.SetDefault("db_path", "/app/data/bot.db")
		viper.SetDefault("smtp_host", "smtp.gmail.com")
		viper.SetDefault("smtp_port", 587)
		viper.SetDefault("alert_interval", time.Minute)
		viper.SetDefault("quote_rps", 5)
	})
}

func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

func GetFloat(key string) float64 {
	InitConfig()
	return viper.GetFloat64(key)
}

func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}

// EmailEnabled reports whether sender credentials are configured
func EmailEnabled() bool {
	return GetString("email_user") != "" && GetString("email_pass") != ""
}

// NewsEnabled reports whether a news API key is configured
func NewsEnabled() bool {
	return GetString("news_api_key") != ""
}
