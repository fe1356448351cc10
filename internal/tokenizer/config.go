package tokenizer

import "strings"

// DefaultModelName is used when no model is configured.
const DefaultModelName = "gpt2"

// Config addresses the remote tokenization service.
type Config struct {
	ModelName  string `yaml:"modelName" json:"modelName"`
	ServiceURL string `yaml:"serviceUrl" json:"serviceUrl"`
	APIKey     string `yaml:"apiKey" json:"-"`
}

// Configured reports whether a service URL is set.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.ServiceURL) != ""
}

// ConfigUpdate is a partial change to a Config. Nil fields are kept.
type ConfigUpdate struct {
	ModelName  *string
	ServiceURL *string
	APIKey     *string
}

func (c Config) apply(u ConfigUpdate) Config {
	if u.ModelName != nil {
		c.ModelName = strings.TrimSpace(*u.ModelName)
	}
	if u.ServiceURL != nil {
		c.ServiceURL = strings.TrimSpace(*u.ServiceURL)
	}
	if u.APIKey != nil {
		c.APIKey = *u.APIKey
	}
	return c
}
