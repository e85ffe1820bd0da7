package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"auto_blog_tagger/config"
	"auto_blog_tagger/generator"
	"auto_blog_tagger/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app 保存各子命令共享的配置与日志。
type app struct {
	configPath string
	verbose    bool
	cfg        config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	return newRootCmdFor(&app{})
}

// newRootCmdFor 使用已有的 app；logger 预先设置时不再创建。
func newRootCmdFor(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "tagger",
		Short:         "Generate three topical tags and a one-sentence summary with a planner/reviewer agent loop",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			if a.logger == nil {
				zc := zap.NewProductionConfig()
				if a.verbose {
					zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
				}
				if a.logger, err = zc.Build(); err != nil {
					return fmt.Errorf("failed to initialize logger: %w", err)
				}
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "config/config.yaml", "path to config file (yaml or json)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logs")

	root.AddCommand(a.newRunCmd(), a.newBatchCmd(), a.newServeCmd())
	return root
}

func (a *app) newRunCmd() *cobra.Command {
	var (
		title, content, contentFile string
		maxTurns                    int
		finalize, transcript        bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the workflow for a single post",
		RunE: func(cmd *cobra.Command, args []string) error {
			if contentFile != "" {
				data, err := os.ReadFile(contentFile)
				if err != nil {
					return err
				}
				content = string(data)
			}
			if title == "" || content == "" {
				return errors.New("--title and one of --content/--content-file are required")
			}
			opts := a.cfg.Options(a.logger)
			if maxTurns > 0 {
				opts.MaxTurns = maxTurns
			}
			if cmd.Flags().Changed("finalize") {
				opts.Finalize = finalize
			}

			llm, err := buildLLM(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			a.logger.Named("cli").Info("running workflow", zap.String("title", title), zap.String("provider", a.cfg.LLM.Provider))
			rec, err := generator.Run(cmd.Context(), llm, title, content, generator.WithOptions(opts))
			if err != nil {
				return err
			}
			if !transcript {
				rec.Transcript = nil
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "post title")
	cmd.Flags().StringVar(&content, "content", "", "post body")
	cmd.Flags().StringVar(&contentFile, "content-file", "", "read the post body from a file")
	cmd.Flags().IntVar(&maxTurns, "max-turns", 0, "turn ceiling (overrides workflow.max_turns)")
	cmd.Flags().BoolVar(&finalize, "finalize", false, "polish the approved result with the finalizer stage")
	cmd.Flags().BoolVar(&transcript, "transcript", false, "include the per-turn transcript in the output")
	return cmd
}

func (a *app) newBatchCmd() *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run the workflow for every post in a YAML file, one after another",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := loadBatch(input)
			if err != nil {
				return err
			}
			llm, err := buildLLM(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			opts := a.cfg.Options(a.logger)
			log := a.logger.Named("cli")
			results := make([]generator.FinalRecord, 0, len(items))
			for i, item := range items {
				log.Info("batch item", zap.Int("index", i), zap.String("title", item.Title))
				rec, err := generator.Run(cmd.Context(), llm, item.Title, item.Content, generator.WithOptions(opts))
				if err != nil {
					return fmt.Errorf("item %d (%q): %w", i, item.Title, err)
				}
				rec.Transcript = nil
				results = append(results, rec)
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "YAML file with a list of {title, content}")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			llm, err := buildLLM(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			srv, err := server.New(llm, a.cfg.Options(a.logger), a.logger)
			if err != nil {
				return err
			}
			listen := a.cfg.ServerAddr
			if addr != "" {
				listen = addr
			}
			if listen == "" {
				listen = ":8080"
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("starting web server", zap.String("addr", listen))
				errCh <- srv.Start(listen)
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				a.logger.Info("shutdown signal received")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "http listen address (overrides server_addr)")
	return cmd
}

func buildLLM(ctx context.Context, cfg config.Config) (generator.LLMClient, error) {
	settings := cfg.Settings()
	switch cfg.LLM.Provider {
	case "openai", "ollama":
		return generator.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url。
		if cfg.LLM.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings)
	case "gemini":
		return generator.NewGeminiLLMFromConfig(ctx, settings)
	case "mock":
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.LLM.Provider)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
