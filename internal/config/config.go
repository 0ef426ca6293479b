// Package config resolves runtime configuration from environment variables,
// layered under explicit CLI flags in internal/maincmd (a flag always
// overrides its corresponding variable, never the reverse).
package config

import "github.com/caarlos0/env/v6"

// Backend selects which execution backend runs a program.
type Backend string

const (
	BackendVM     Backend = "vm"
	BackendInterp Backend = "interp"
)

// Config holds the knobs every collaborator around the core consults: which
// backend runs a program, whether I/O built-ins run in silent/benchmark
// mode, whether the bytecode cache is consulted, and the log level.
type Config struct {
	Backend      Backend `env:"ZIRC_BACKEND" envDefault:"interp"`
	Silent       bool    `env:"ZIRC_SILENT" envDefault:"false"`
	PromptReply  string  `env:"ZIRC_PROMPT_REPLY" envDefault:""`
	CacheEnabled bool    `env:"ZIRC_CACHE" envDefault:"true"`
	CacheDir     string  `env:"ZIRC_CACHE_DIR" envDefault:".zirc-cache"`
	LogLevel     string  `env:"ZIRC_LOG_LEVEL" envDefault:"info"`
}

// Load reads Config from the environment, applying each field's envDefault
// when the variable is unset.
func Load() (*Config, error) {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	return c, nil
}
