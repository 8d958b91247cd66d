package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // hours
}

type GameConfig struct {
	StartingBalance int64 `mapstructure:"startingBalance"` // credited on account creation
	DailyBonus      int64 `mapstructure:"dailyBonus"`      // credited once per calendar day
	MinBet          int64 `mapstructure:"minBet"`
	BetStep         int64 `mapstructure:"betStep"`
}

var GlobalConfig *Config

func LoadConfig(path string) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	cfg.applyDefaults()
	GlobalConfig = &cfg
}

func (c *Config) applyDefaults() {
	if c.Game.StartingBalance == 0 {
		c.Game.StartingBalance = 10000
	}
	if c.Game.DailyBonus == 0 {
		c.Game.DailyBonus = 1000
	}
	if c.Game.MinBet == 0 {
		c.Game.MinBet = 250
	}
	if c.Game.BetStep == 0 {
		c.Game.BetStep = 250
	}
}
