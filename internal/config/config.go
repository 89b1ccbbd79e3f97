package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Tron     TronConfig     `mapstructure:"tron"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	PurchaseVerified    string `mapstructure:"purchase_verified"`
	ReferralSettled     string `mapstructure:"referral_settled"`
	WithdrawalCompleted string `mapstructure:"withdrawal_completed"`
}

// TronConfig configures the Trongrid ledger-lookup client.
type TronConfig struct {
	APIURL            string `mapstructure:"api_url"`
	APIKey            string `mapstructure:"api_key"`
	WalletAddress     string `mapstructure:"wallet_address"`
	RequestTimeoutSec int    `mapstructure:"request_timeout_sec"`
	MaxRetries        int    `mapstructure:"max_retries"`
	RetryDelayMs      int    `mapstructure:"retry_delay_ms"`
	MaxTxAgeHours     int    `mapstructure:"max_tx_age_hours"`
}

type BusinessConfig struct {
	SignupBonusTRX         int64 `mapstructure:"signup_bonus_trx"`
	ReferralRewardTRX      int64 `mapstructure:"referral_reward_trx"`
	MineWithdrawMinTRX     int64 `mapstructure:"mine_withdraw_min_trx"`
	ReferralWithdrawMinTRX int64 `mapstructure:"referral_withdraw_min_trx"`
	RateLimitPerMinute     int   `mapstructure:"rate_limit_per_minute"`
	RateLimitCooldownSec   int   `mapstructure:"rate_limit_cooldown_sec"`
	OutboxMaxRetryCount    int   `mapstructure:"outbox_max_retry_count"`
	SweepIntervalSec       int   `mapstructure:"sweep_interval_sec"`
}

var GlobalConfig *Config

// LoadConfig reads the yaml config file and unmarshals it into Config.
func LoadConfig(configPath string) *Config {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("failed to parse config file: %v", err)
	}

	GlobalConfig = config
	return config
}
