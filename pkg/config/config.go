package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-go-golems/askchat/pkg/answer"
	"github.com/go-go-golems/askchat/pkg/conversation"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	AppName = "askchat"

	KeyAPIURL     = "api-url"
	KeyGroqAPIKey = "groq-api-key"
	KeyMaxTurns   = "max-turns"
	KeyTimeout    = "timeout"
	KeyDebug      = "debug"
	KeyPlain      = "plain"
	KeyLogLevel   = "log-level"
	KeyLogFile    = "log-file"

	DefaultLogLevel = "info"
	DefaultLogFile  = "~/.askchat/askchat.log"
)

// Settings is everything read at startup. It does not change afterwards.
type Settings struct {
	APIURL     string        `mapstructure:"api-url" yaml:"api-url"`
	GroqAPIKey string        `mapstructure:"groq-api-key" yaml:"groq-api-key"`
	MaxTurns   int           `mapstructure:"max-turns" yaml:"max-turns"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Debug      bool          `mapstructure:"debug" yaml:"debug"`
	Plain      bool          `mapstructure:"plain" yaml:"plain"`
	LogLevel   string        `mapstructure:"log-level" yaml:"log-level"`
	LogFile    string        `mapstructure:"log-file" yaml:"log-file"`

	// ConfigFile is the file the settings were read from, if any.
	ConfigFile string `mapstructure:"-" yaml:"config-file,omitempty"`
}

// Ready reports whether the API credential is configured. The credential is
// only checked for presence; it is used by the answering service, not by
// this client.
func (s *Settings) Ready() bool {
	return strings.TrimSpace(s.GroqAPIKey) != ""
}

func (s *Settings) Endpoint() (answer.Endpoint, error) {
	return answer.NewEndpoint(s.APIURL)
}

// Redacted returns a copy safe for printing.
func (s Settings) Redacted() Settings {
	if s.GroqAPIKey != "" {
		s.GroqAPIKey = maskValue(s.GroqAPIKey)
	}
	return s
}

func maskValue(value string) string {
	if len(value) <= 8 {
		return "********"
	}
	return value[:3] + strings.Repeat("*", 5) + value[len(value)-3:]
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIURL, answer.DefaultBaseURL)
	v.SetDefault(KeyGroqAPIKey, "")
	v.SetDefault(KeyMaxTurns, conversation.DefaultMaxTurns)
	v.SetDefault(KeyTimeout, answer.DefaultTimeout)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyPlain, false)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFile, DefaultLogFile)
}

// BindEnv maps keys to environment variables. API_URL and GROQ_API_KEY keep
// the names used by existing deployments; everything else is ASKCHAT_*.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv(KeyAPIURL, "ASKCHAT_API_URL", "API_URL"); err != nil {
		return errors.Wrap(err, "could not bind api-url")
	}
	if err := v.BindEnv(KeyGroqAPIKey, "ASKCHAT_GROQ_API_KEY", "GROQ_API_KEY"); err != nil {
		return errors.Wrap(err, "could not bind groq-api-key")
	}
	return nil
}

// LoadDotEnv loads .env files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.Wrapf(err, "could not stat %s", p)
		}
		if err := godotenv.Load(p); err != nil {
			return errors.Wrapf(err, "could not load %s", p)
		}
		log.Debug().Str("path", p).Msg("loaded environment file")
	}
	return nil
}

// ConfigDir returns ~/.askchat.
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "could not find home directory")
	}
	return filepath.Join(home, "."+AppName), nil
}

// Load reads the configuration file (configPath, or config.yaml in
// ~/.askchat), applies environment overrides and returns validated settings.
// A missing default config file is not an error.
func Load(v *viper.Viper, configPath string) (*Settings, error) {
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return nil, err
	}

	if configPath != "" {
		expanded, err := homedir.Expand(configPath)
		if err != nil {
			return nil, errors.Wrapf(err, "could not expand %s", configPath)
		}
		v.SetConfigFile(expanded)
	} else {
		if dir, err := ConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(filepath.Join("/etc", AppName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "failed to read config file")
		}
		log.Debug().Msg("no config file found, using defaults and environment")
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, errors.Wrap(err, "unable to decode configuration")
	}
	s.ConfigFile = v.ConfigFileUsed()

	if err := s.normalize(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) normalize() error {
	s.APIURL = strings.TrimSpace(s.APIURL)
	if s.APIURL == "" {
		s.APIURL = answer.DefaultBaseURL
	}
	if err := answer.ValidateBaseURL(s.APIURL); err != nil {
		return err
	}
	if s.MaxTurns < 1 {
		return errors.Errorf("max-turns must be at least 1, got %d", s.MaxTurns)
	}
	if s.Timeout <= 0 {
		return errors.Errorf("timeout must be positive, got %s", s.Timeout)
	}
	if s.LogLevel == "" {
		s.LogLevel = DefaultLogLevel
	}
	if s.LogFile != "" && s.LogFile != "-" {
		expanded, err := homedir.Expand(s.LogFile)
		if err != nil {
			return errors.Wrapf(err, "could not expand log file %s", s.LogFile)
		}
		s.LogFile = expanded
	}
	return nil
}
