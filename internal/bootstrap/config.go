package bootstrap

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort       string `mapstructure:"SERVER_PORT"`
	GrpcPort         string `mapstructure:"GRPC_PORT"`
	PublicWsUrl      string `mapstructure:"PUBLIC_WS_URL"`
	RedisUrl         string `mapstructure:"REDIS_URL"`
	MongoUri         string `mapstructure:"MONGO_URI"`
	MongoDatabase    string `mapstructure:"MONGO_DATABASE"`
	IsLocalCors      bool   `mapstructure:"LOCAL_CORS"`
	AiFuel           int    `mapstructure:"AI_FUEL"`
	AiMoveCap        int    `mapstructure:"AI_MOVE_CAP"`
	ClientTTLHours   int    `mapstructure:"CLIENT_TTL_HOURS"`
	SubscriberBuffer int    `mapstructure:"SUBSCRIBER_BUFFER"`
}

var defaults = map[string]any{
	"SERVER_PORT":       "8000",
	"GRPC_PORT":         "8001",
	"PUBLIC_WS_URL":     "ws://localhost:8000/ws",
	"REDIS_URL":         "",
	"MONGO_URI":         "",
	"MONGO_DATABASE":    "pylos",
	"LOCAL_CORS":        false,
	"AI_FUEL":           200000,
	"AI_MOVE_CAP":       200,
	"CLIENT_TTL_HOURS":  11,
	"SUBSCRIBER_BUFFER": 16,
}

// Setup reads cfgPath (a .env style file) and lets environment variables override it.
// A missing file is not an error; defaults and the environment are used instead.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ClientTTL() time.Duration {
	return time.Duration(c.ClientTTLHours) * time.Hour
}
