package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

// CreationDateLayout is the layout of document.creation_date.
const CreationDateLayout = "2006-01-02"

type (
	// FontsConfig locates the two typefaces used for the book: a bold display
	// face for titles and a regular serif face for body text. Each value is
	// either a local path or an http(s) URL.
	FontsConfig struct {
		Display string `yaml:"display"`
		Body    string `yaml:"body"`
	}

	ImagesConfig struct {
		FetchTimeout time.Duration `yaml:"fetch_timeout" validate:"gt=0"`
		MaxBytes     int64         `yaml:"max_bytes" validate:"min=1024"`
		MaxDimension int           `yaml:"max_dimension" validate:"min=256,max=8192"`
		JPEGQuality  int           `yaml:"jpeg_quality" validate:"min=40,max=100"`
		AuthToken    SecretString  `yaml:"auth_token,omitempty"`
		CacheTTL     time.Duration `yaml:"cache_ttl" validate:"gte=0"`
	}

	DocumentConfig struct {
		Language              string       `yaml:"language" validate:"required"`
		FileNameTransliterate bool         `yaml:"file_name_transliterate"`
		CreationDate          string       `yaml:"creation_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
		Fonts                 FontsConfig  `yaml:"fonts"`
		Logo                  string       `yaml:"logo,omitempty"`
		Images                ImagesConfig `yaml:"images"`
	}

	ServerConfig struct {
		Listen         string        `yaml:"listen" validate:"required,hostname_port"`
		RateLimit      int           `yaml:"rate_limit" validate:"gte=0"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes" validate:"min=1024"`
		ComposeTimeout time.Duration `yaml:"compose_timeout" validate:"gt=0"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Document  DocumentConfig `yaml:"document"`
		Server    ServerConfig   `yaml:"server"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

// CreatedAt returns configured document creation date, zero time when not set.
func (conf *DocumentConfig) CreatedAt() time.Time {
	if len(conf.CreationDate) == 0 {
		return time.Time{}
	}
	// validated on load
	t, _ := time.Parse(CreationDateLayout, conf.CreationDate)
	return t
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	// directly here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	// overwrite cfg values with values from the file
	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

// Dump returns active configuration as YAML, secrets are masked.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
