package dialect

import (
	"fmt"
	"maps"

	"github.com/go-viper/mapstructure/v2"
)

// Config holds the normalized connection configuration shared by all dialects.
// Dialect-specific keys are ignored by dialects that do not use them.
type Config struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// MySQL
	Charset string `mapstructure:"charset"`

	// PostgreSQL and Supabase
	SSLMode string `mapstructure:"sslmode"`

	// Supabase managed hosting
	ProjectRef string `mapstructure:"project_ref"`
	Region     string `mapstructure:"region"`
	Pooling    bool   `mapstructure:"pooling"`

	// Additional driver-specific options, merged over DefaultOptions.
	Options map[string]string `mapstructure:"options"`
}

// DecodeConfig decodes a loosely typed configuration map into a Config.
// Scalar values are converted weakly, so "5432" decodes into Port and
// "true" decodes into Pooling.
func DecodeConfig(m map[string]any) (Config, error) {
	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(m); err != nil {
		return Config{}, fmt.Errorf("dialect: decode config: %w", err)
	}
	return cfg, nil
}

// withDefaults fills unset common fields and merges the default options
// under the caller supplied ones. The receiver is not modified.
func (c Config) withDefaults(port int, opts map[string]string) Config {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = port
	}
	merged := make(map[string]string, len(opts)+len(c.Options))
	maps.Copy(merged, opts)
	maps.Copy(merged, c.Options)
	c.Options = merged
	return c
}
