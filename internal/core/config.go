package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config contains all of the configuration options available to the client
// and its tools. It is loaded once at startup and passed explicitly to
// anything that needs it.
type Config struct {
	// Minimum level of a log required to be written. Options: debug, info, warn, error
	LogLevel string `mapstructure:"log_level"`
	// Full path to file to which logs will be written. Blank will write to stdout.
	LogFilePath string `mapstructure:"log_file_path"`

	Client struct {
		// Numeric client version reported during both handshakes.
		Version uint32 `mapstructure:"version"`
		// Human readable version, shown when the server demands an update.
		VersionString string `mapstructure:"version_string"`
		// Keep going even if the server says the client version is outdated.
		VersionOverride bool `mapstructure:"version_override"`
		// Account user id. Must be non-zero; there is no registration flow here,
		// credentials come from a captured login (see the genconfig command).
		UserID uint64 `mapstructure:"user_id"`
		// Auth key presented to the login server.
		AuthKey string `mapstructure:"auth_key"`
		// Game id presented to the login server.
		GameID uint32 `mapstructure:"game_id"`
		// Client signature presented to the game server.
		Sign uint32 `mapstructure:"sign"`
		// Platform language id sent in the encryption acknowledgment.
		LanguageID uint32 `mapstructure:"language_id"`
	} `mapstructure:"client"`

	ServerConfig struct {
		// Endpoint serving the XML server config document.
		URL string `mapstructure:"url"`
		// Config schema version sent as the v query parameter.
		Version int `mapstructure:"version"`
	} `mapstructure:"server_config"`

	Database struct {
		// Database engine for the chat archive: sqlite, postgres, or blank to
		// disable archiving.
		Engine string `mapstructure:"engine"`
		// SQLite database filename, relative to the config directory.
		Filename string `mapstructure:"filename"`
		// Hostname of the Postgres database instance.
		Host string `mapstructure:"host"`
		// Port on host on which the Postgres instance is accepting connections.
		Port int `mapstructure:"port"`
		// Name of the database in Postgres.
		Name string `mapstructure:"name"`
		// Username and password of a user with full RW privileges to ${name}.
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		// Set to verify-full if the Postgres instance supports SSL.
		SSLMode string `mapstructure:"sslmode"`
	} `mapstructure:"database"`

	Debugging struct {
		// Enable the pprof server.
		PprofEnabled bool `mapstructure:"pprof_enabled"`
		// Port on which the pprof server will be started if enabled.
		PprofPort int `mapstructure:"pprof_port"`
		// Hexdump sent and received frames to the log.
		PacketLoggingEnabled bool `mapstructure:"packet_logging_enabled"`
		// Enable database-level query logging.
		DatabaseLoggingEnabled bool `mapstructure:"database_logging_enabled"`
	} `mapstructure:"debugging"`

	baseDir string
}

const envVarPrefix = "CLASH"

// LoadConfig initializes Viper with the contents of the config file under configPath.
func LoadConfig(configPath string) *Config {
	viper.AddConfigPath(configPath)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix(envVarPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if errors.Is(err, viper.ConfigFileNotFoundError{}) {
			fmt.Printf("error reading config file: no config file in path %s", configPath)
		} else {
			fmt.Printf("error reading config file: %v", err)
		}
		os.Exit(1)
	}

	// This allows us to set nested yaml config options through environment
	// variables. For example, client.user_id can be set using: <envVarPrefix>_CLIENT_USER_ID
	for _, k := range viper.AllKeys() {
		envVar := strings.ReplaceAll(strings.ToUpper(k), ".", "_")
		if err := viper.BindEnv(k, envVarPrefix+"_"+envVar); err != nil {
			fmt.Printf("error binding %s to %s", k, envVarPrefix+"_"+envVar)
			os.Exit(1)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		fmt.Printf("error unmarshaling config object: %v", err)
		os.Exit(1)
	}
	config.baseDir = configPath
	return config
}

const databaseURITemplate = "host=%s port=%d dbname=%s user=%s password=%s sslmode=%s"

// DatabaseURL returns a Postgres URL generated from the provided config values.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		databaseURITemplate,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.Username,
		c.Database.Password,
		c.Database.SSLMode,
	)
}

// QualifiedPath returns file resolved relative to the config directory.
func (c *Config) QualifiedPath(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.baseDir, file)
}
