package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

const (
	CfgCulture         = "culture"
	CfgLogLevel        = "log.level"
	CfgStorePath       = "store.path"
	CfgTUIGutterWidth  = "tui.gutterWidth"
	CfgGUIGutterRatio  = "gui.gutterRatio"
	CfgGUITextSize     = "gui.textSize"
	CfgEvalShowSpans   = "eval.showSpans"
	CfgStrictContracts = "strict"
)

// SetDefaults registers the configuration file lookup and default values.
func SetDefaults(v *viper.Viper) {
	v.SetConfigName("smartcalc")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "smartcalc"))
	}

	v.SetEnvPrefix("smartcalc")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(CfgCulture, "en-US")
	v.SetDefault(CfgLogLevel, "warn")
	v.SetDefault(CfgStorePath, defaultStorePath())
	v.SetDefault(CfgTUIGutterWidth, 24)
	v.SetDefault(CfgGUIGutterRatio, 1.0/3.0) // results column as a fraction of the window
	v.SetDefault(CfgGUITextSize, 14)
	v.SetDefault(CfgEvalShowSpans, false)
	v.SetDefault(CfgStrictContracts, false)
}

func defaultStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "smartcalc.db"
	}
	return filepath.Join(dir, "smartcalc", "smartcalc.db")
}

// ProcessConfigFile reads the configuration file. A missing file is not an
// error; defaults and the environment still apply.
func ProcessConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	}
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// LoadConfig returns the merged configuration.
func LoadConfig(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	if err := ProcessConfigFile(v, path); err != nil {
		return nil, err
	}
	return v, nil
}

// NewLogger builds the logger for the configured level.
func NewLogger(v *viper.Viper) (*log.Logger, error) {
	level, err := log.ParseLevel(v.GetString(CfgLogLevel))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", CfgLogLevel, err)
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "smartcalc",
	}), nil
}

// guiOptions are the desktop window settings.
type guiOptions struct {
	GutterRatio float64 // results column as a fraction of the window width
	TextSize    float32 // in sp
}
