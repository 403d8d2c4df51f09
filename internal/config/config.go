package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// SubclassOverride maps an operator-defined weapon subclass to a replacement
// sound event. TargetEventUnsilenced is optional.
type SubclassOverride struct {
	Subclass              string `json:"subclass" mapstructure:"subclass"`
	TargetEvent           string `json:"targetEvent" mapstructure:"targetEvent"`
	TargetEventUnsilenced string `json:"targetEventUnsilenced" mapstructure:"targetEventUnsilenced"`
}

// ClassificationOverride maps a weapon classification code to a replacement
// sound event for stock (non-subclassed) weapons.
type ClassificationOverride struct {
	ClassificationCode    int    `json:"classificationCode" mapstructure:"classificationCode"`
	TargetEvent           string `json:"targetEvent" mapstructure:"targetEvent"`
	TargetEventUnsilenced string `json:"targetEventUnsilenced" mapstructure:"targetEventUnsilenced"`
}

// DBConfig holds durable preference store connection settings.
type DBConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Username string
	Password string
	Database string
	Table    string
}

// InfluxConfig holds metrics reporting settings.
type InfluxConfig struct {
	Enabled  bool
	Protocol string
	Host     string
	Port     string
	Token    string
	Org      string
	Bucket   string
}

// CacheConfig holds the correlation tunables. The TTL and the actor-index mask
// vary across host builds, so both stay configurable rather than hard-coded.
type CacheConfig struct {
	FireSoundTTLMs int
	ActorIndexMask int
	MaxSlots       int
}

// ChatConfig holds the toggle command confirmation lines.
type ChatConfig struct {
	EnabledMessage  string
	DisabledMessage string
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./emitsoundlogs")

	viper.SetDefault("forceMuteAllFireBullets", false)
	viper.SetDefault("customSoundDefaultEnabled", true)

	viper.SetDefault("db.enabled", false)
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "emitsound")
	viper.SetDefault("db.table", "player_sound_preferences")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "emitsound")
	viper.SetDefault("influx.bucket", "emitsound_metrics")

	viper.SetDefault("cache.fireSoundTTLMs", 1500)
	viper.SetDefault("cache.actorIndexMask", 0x3FFF)
	viper.SetDefault("cache.maxSlots", 64)

	viper.SetDefault("chat.enabledMessage", "Custom weapon sounds enabled.")
	viper.SetDefault("chat.disabledMessage", "Custom weapon sounds disabled.")

	viper.SetConfigName("emitsound.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	return nil
}

// GetSubclassOverrides returns the configured subclass override entries.
func GetSubclassOverrides() []SubclassOverride {
	var entries []SubclassOverride
	if err := viper.UnmarshalKey("overrides", &entries); err != nil {
		return nil
	}
	return entries
}

// GetClassificationOverrides returns the configured classification-code
// override entries.
func GetClassificationOverrides() []ClassificationOverride {
	var entries []ClassificationOverride
	if err := viper.UnmarshalKey("officialOverrides", &entries); err != nil {
		return nil
	}
	return entries
}

// GetDBConfig returns durable store settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Enabled:  viper.GetBool("db.enabled"),
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
		Table:    viper.GetString("db.table"),
	}
}

// GetInfluxConfig returns metrics settings.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Protocol: viper.GetString("influx.protocol"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
	}
}

// GetCacheConfig returns correlation cache tunables, clamped to sane minimums.
func GetCacheConfig() CacheConfig {
	cfg := CacheConfig{
		FireSoundTTLMs: viper.GetInt("cache.fireSoundTTLMs"),
		ActorIndexMask: viper.GetInt("cache.actorIndexMask"),
		MaxSlots:       viper.GetInt("cache.maxSlots"),
	}
	if cfg.FireSoundTTLMs <= 0 {
		cfg.FireSoundTTLMs = 1500
	}
	if cfg.ActorIndexMask <= 0 {
		cfg.ActorIndexMask = 0x3FFF
	}
	if cfg.MaxSlots <= 0 {
		cfg.MaxSlots = 64
	}
	return cfg
}

// GetChatConfig returns the toggle confirmation lines.
func GetChatConfig() ChatConfig {
	return ChatConfig{
		EnabledMessage:  viper.GetString("chat.enabledMessage"),
		DisabledMessage: viper.GetString("chat.disabledMessage"),
	}
}

// GetForceMuteAll returns whether unresolved fire broadcasts are muted outright.
func GetForceMuteAll() bool {
	return viper.GetBool("forceMuteAllFireBullets")
}

// GetDefaultPreference returns the default custom-sound preference for players
// without a stored value.
func GetDefaultPreference() bool {
	return viper.GetBool("customSoundDefaultEnabled")
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
