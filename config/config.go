package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"auto_blog_tagger/generator"
)

// EnvPrefix 环境变量前缀，例如 TAGGER_LLM_API_KEY。
const EnvPrefix = "TAGGER"

// Config holds the application configuration.
type Config struct {
	LLM        LLMConfig      `mapstructure:"llm"`
	Workflow   WorkflowConfig `mapstructure:"workflow"`
	ServerAddr string         `mapstructure:"server_addr"`
}

// LLMConfig 选择模型后端。
type LLMConfig struct {
	Provider string        `mapstructure:"provider"`
	Model    string        `mapstructure:"model"`
	APIKey   string        `mapstructure:"api_key"`
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// WorkflowConfig 对应 generator.Options 中可由配置文件控制的部分。
type WorkflowConfig struct {
	MaxTurns        int    `mapstructure:"max_turns"`
	MaxSummaryWords int    `mapstructure:"max_summary_words"`
	Finalize        bool   `mapstructure:"finalize"`
	SemanticCheck   string `mapstructure:"semantic_check"`
	ExcerptRunes    int    `mapstructure:"excerpt_runes"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "mock")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.timeout", generator.DefaultCallTimeout)
	v.SetDefault("workflow.max_turns", generator.DefaultMaxTurns)
	v.SetDefault("workflow.max_summary_words", generator.DefaultMaxSummaryWords)
	v.SetDefault("workflow.finalize", false)
	v.SetDefault("workflow.semantic_check", string(generator.SemanticAdvisory))
	v.SetDefault("workflow.excerpt_runes", generator.DefaultExcerptRunes)
	v.SetDefault("server_addr", ":8080")
}

// Load reads the config file (YAML or JSON, by extension) and the environment.
// A missing file is not an error; defaults and environment still apply.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail at run time.
func (c Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "deepseek", "ollama", "gemini", "mock":
	case "":
		return errors.New("llm.provider is required")
	default:
		return fmt.Errorf("llm provider %s not supported", c.LLM.Provider)
	}
	if c.Workflow.MaxTurns < 1 {
		return fmt.Errorf("workflow.max_turns must be at least 1, got %d", c.Workflow.MaxTurns)
	}
	if c.Workflow.MaxSummaryWords < 1 {
		return fmt.Errorf("workflow.max_summary_words must be at least 1, got %d", c.Workflow.MaxSummaryWords)
	}
	if _, err := generator.ParseSemanticCheck(c.Workflow.SemanticCheck); err != nil {
		return err
	}
	return nil
}

// Options converts the workflow section into generator options.
func (c Config) Options(logger *zap.Logger) generator.Options {
	mode, _ := generator.ParseSemanticCheck(c.Workflow.SemanticCheck)
	o := generator.DefaultOptions()
	o.MaxTurns = c.Workflow.MaxTurns
	o.MaxSummaryWords = c.Workflow.MaxSummaryWords
	o.Finalize = c.Workflow.Finalize
	o.SemanticCheck = mode
	o.ExcerptRunes = c.Workflow.ExcerptRunes
	o.CallTimeout = c.LLM.Timeout
	o.Logger = logger
	return o
}

// Settings returns the provider settings for the generator clients.
func (c Config) Settings() *generator.LLMSettings {
	return &generator.LLMSettings{
		Provider: c.LLM.Provider,
		Model:    c.LLM.Model,
		APIKey:   c.LLM.APIKey,
		BaseURL:  c.LLM.BaseURL,
	}
}
