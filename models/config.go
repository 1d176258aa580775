package models

import (
	"github.com/spf13/viper"
)

// Config holds the runtime settings of the server. Values come from the config
// file, overridable through GEMHALL_* environment variables.
type Config struct {
	Port           string   `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RedisAddr      string   `mapstructure:"redis_addr"`
	RedisPassword  string   `mapstructure:"redis_password"`
	RedisDB        int      `mapstructure:"redis_db"`
	JWTSecret      string   `mapstructure:"jwt_secret"`
	TurnSeconds    int      `mapstructure:"turn_seconds"`
	CatalogPath    string   `mapstructure:"catalog_path"`
	RoomTTLHours   int      `mapstructure:"room_ttl_hours"`
}

// LoadConfig reads the configuration file at path.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("gemhall")
	v.AutomaticEnv()

	v.SetDefault("port", ":8080")
	v.SetDefault("allowed_origins", []string{"http://localhost:8080"})
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("turn_seconds", 60)
	v.SetDefault("catalog_path", "data/catalog.json")
	v.SetDefault("room_ttl_hours", 4)

	var config Config
	if err := v.ReadInConfig(); err != nil {
		return config, err
	}
	if err := v.Unmarshal(&config); err != nil {
		return config, err
	}
	return config, nil
}
