package fn

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/dsyer/spring-cloud-function/cloudevent"
)

const (
	envSettingsFile = "FN_SETTINGS_FILE"

	defaultPort = 8081
)

// Settings configure the runtime itself, as opposed to the user config handed
// to the catalog. Every key can be set from the environment with the FN_
// prefix, e.g. FN_CLOUDEVENT_SOURCE for cloudevent.source.
type Settings struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`

	// ApplicationName and ContextID name the application in default Cloud
	// Event sources.
	ApplicationName string `mapstructure:"application_name"`
	ContextID       string `mapstructure:"context_id"`

	CloudEvent CloudEventSettings `mapstructure:"cloudevent"`
	CORS       CORSSettings       `mapstructure:"cors"`
	Export     ExporterConfig     `mapstructure:"export"`
}

// CloudEventSettings fix the source and type of produced Cloud Events.
type CloudEventSettings struct {
	Source string `mapstructure:"source"`
	Type   string `mapstructure:"type"`
}

// CORSSettings enable CORS handling when origins are listed.
type CORSSettings struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ProviderConfig returns the Cloud Event provider config of the settings.
func (s Settings) ProviderConfig() cloudevent.ProviderConfig {
	return cloudevent.ProviderConfig{
		Source:          s.CloudEvent.Source,
		Type:            s.CloudEvent.Type,
		ApplicationName: s.ApplicationName,
		ContextID:       s.ContextID,
	}
}

// LoadSettings reads the settings from the environment and, when
// FN_SETTINGS_FILE names one, a settings file. The environment wins.
func LoadSettings() (Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("port", "FN_PORT", "PORT"); err != nil {
		return Settings{}, fmt.Errorf("failed to bind port env: %w", err)
	}

	if file := os.Getenv(envSettingsFile); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read settings file %q: %w", file, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if s.Port <= 0 {
		s.Port = defaultPort
	}
	return s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", defaultPort)
	v.SetDefault("debug", false)
	v.SetDefault("application_name", "")
	v.SetDefault("context_id", "application")

	v.SetDefault("cloudevent.source", "")
	v.SetDefault("cloudevent.type", "")

	v.SetDefault("cors.allowed_origins", []string{})

	v.SetDefault("export.enabled", false)
	v.SetDefault("export.auto_startup", true)
	v.SetDefault("export.debug", false)
	v.SetDefault("export.supplier_names", []string{})
	v.SetDefault("export.sink_url", "")
	v.SetDefault("export.sink_name", "")
	v.SetDefault("export.content_type", "")
	v.SetDefault("export.headers", map[string]string{})
	v.SetDefault("export.nats_url", "")
}
