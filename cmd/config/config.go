package config

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shelfmark/shelfmark/pkg/service"
)

var cfgFile string

// InitConfig wires viper: config file, env overrides, and defaults.
func InitConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		configDir := filepath.Join(home, ".config", "shelfmark")
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SHELFMARK")

	viper.SetDefault("data_dir", filepath.Join(os.Getenv("HOME"), ".local", "share", "shelfmark"))
	viper.SetDefault("cache_cap_per_level", 200)
	viper.SetDefault("max_suggestions", 20)
	viper.SetDefault("default_template", "classic")
	viper.SetDefault("default_page", "a4-portrait")

	_ = viper.ReadInConfig() // a missing config file is fine
}

// AddGlobalFlags registers the flags shared by every subcommand.
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/shelfmark/config.yaml)")
	cmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
	_ = viper.BindPFlag("verbose", cmd.PersistentFlags().Lookup("verbose"))
}

// CachePath is the autocomplete cache location.
func CachePath() string {
	return filepath.Join(viper.GetString("data_dir"), "cache.db")
}

// LegacyCachePath is where the predecessor app kept its cache; it is
// migrated once if the new cache does not exist yet.
func LegacyCachePath() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "labelapp", "cache.db")
}

// NewSession builds the service session from the resolved configuration.
func NewSession() *service.Session {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	if viper.GetBool("verbose") {
		logger.SetLevel(logrus.DebugLevel)
	}

	return service.New(service.Config{
		CachePath:        CachePath(),
		LegacyCachePath:  LegacyCachePath(),
		CacheCapPerLevel: viper.GetInt("cache_cap_per_level"),
		MaxSuggestions:   viper.GetInt("max_suggestions"),
		Logger:           logger,
	})
}

// DefaultTemplate returns the configured template id.
func DefaultTemplate() string {
	return viper.GetString("default_template")
}

// DefaultPage returns the configured page preset name.
func DefaultPage() string {
	return viper.GetString("default_page")
}
