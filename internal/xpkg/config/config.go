package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Logging  Logging   `yaml:"logging"`
	DB       *Postgres `yaml:"database"`
	RMQ      *RabbitMQ `yaml:"rabbitmq"`
	Redis    *Redis    `yaml:"redis"`
	Telegram *Telegram `yaml:"telegram"`
}

type Logging struct {
	Level string `yaml:"level"`
}

type Postgres struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		p.User, p.Password, p.Host, p.Port, p.Database,
	)
}

type RabbitMQ struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	VHost    string `yaml:"vhost"`
}

func (r *RabbitMQ) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/%s", r.User, r.Password, r.Host, r.Port, r.VHost)
}

type Redis struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Telegram struct {
	Token       string  `yaml:"token"`
	BaristaIDs  []int64 `yaml:"barista_ids"`
	StaffChatID int64   `yaml:"staff_chat_id"`
}

// IsBarista reports whether the user is allowed into the barista panel.
func (t *Telegram) IsBarista(userID int64) bool {
	for _, id := range t.BaristaIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	cnf := &Config{
		Logging:  Logging{Level: "info"},
		DB:       &Postgres{},
		RMQ:      &RabbitMQ{},
		Redis:    &Redis{},
		Telegram: &Telegram{},
	}
	if err := yaml.Unmarshal(data, cnf); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cnf.applyEnv()

	if cnf.Telegram.Token == "" {
		return nil, fmt.Errorf("telegram token is not set (config or BOT_TOKEN)")
	}
	return cnf, nil
}

// applyEnv lets deployment override secrets without editing the file.
func (c *Config) applyEnv() {
	c.Telegram.Token = getEnv("BOT_TOKEN", c.Telegram.Token)
	c.DB.Password = getEnv("DB_PASSWORD", c.DB.Password)
	c.RMQ.Password = getEnv("RMQ_PASSWORD", c.RMQ.Password)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)

	if ids := os.Getenv("BARISTA_IDS"); ids != "" {
		c.Telegram.BaristaIDs = parseIDList(ids)
	}
	if chat := os.Getenv("STAFF_CHAT_ID"); chat != "" {
		if v, err := strconv.ParseInt(chat, 10, 64); err == nil {
			c.Telegram.StaffChatID = v
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIDList(s string) []int64 {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if v, err := strconv.ParseInt(part, 10, 64); err == nil {
			ids = append(ids, v)
		}
	}
	return ids
}
