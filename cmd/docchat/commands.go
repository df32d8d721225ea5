package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docchat/internal/config"
	"docchat/internal/console"
	"docchat/internal/pkg/logger"
	"docchat/internal/session"
	"docchat/internal/tui"
	"docchat/internal/web"
)

type rootOptions struct {
	configPath string
	dataDir    string
	verbose    bool

	cfg *config.AppConfig
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "docchat",
		Short: "Chat with the documents in a local directory",
		Long: `docchat indexes a directory of documents (.pdf, .txt, .md, .docx)
and answers questions about them with a local Ollama model.

Running docchat without a subcommand starts the console chat.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd.Name() == "tui")
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if opts.log != nil {
				_ = opts.log.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, opts)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML or TOML config file (default ./config.yaml, then ~/.config/docchat/config.yaml)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "directory to index (overrides documents.dir)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newConsoleCmd(opts), newWebCmd(opts), newTUICmd(opts))
	return root
}

// setup loads .env and the configuration, then builds the logger. The TUI
// owns the terminal, so it only logs when a log file is configured.
func (o *rootOptions) setup(quietConsole bool) error {
	_ = godotenv.Load()

	var (
		cfg *config.AppConfig
		err error
	)
	if o.configPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(o.configPath)
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if o.dataDir != "" {
		cfg.Documents.Dir = o.dataDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	o.cfg = cfg

	if quietConsole && cfg.Log.File == "" {
		o.log = logger.NewNop()
		return nil
	}
	o.log = logger.NewZapLogger(logger.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Verbose: o.verbose,
	})
	return nil
}

func newConsoleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Ask questions line by line on the terminal",
		Long: `Build the index, then read one question per line and print the answer.
Type "exit" to quit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, opts)
		},
	}
}

func runConsole(cmd *cobra.Command, opts *rootOptions) error {
	out := cmd.OutOrStdout()
	p := &pipeline{cfg: opts.cfg, log: opts.log, progress: out}
	asker, err := p.manager().Get(cmd.Context())
	if err != nil {
		return fmt.Errorf("loading data: %w", err)
	}
	err = console.Run(cmd.Context(), cmd.InOrStdin(), out, asker)
	if errors.Is(err, context.Canceled) {
		// Interrupted at the prompt.
		return nil
	}
	return err
}

func newWebCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the browser chat",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				addr = opts.cfg.Web.Addr
			}
			p := &pipeline{cfg: opts.cfg, log: opts.log}
			srv := web.New(web.Config{
				Title:    opts.cfg.Web.Title,
				Greeting: session.DefaultGreeting,
			}, p.manager(), opts.log)
			srv.Warmup(cmd.Context())

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Listen(addr) }()
			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
				opts.log.Info("main", "shutting down", nil)
				return srv.Shutdown()
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides web.addr)")
	return cmd
}

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive terminal chat",
		Long: `Launch the full-screen terminal chat.

Controls:
  Enter     - Ask
  ↑/↓       - Cycle through the sources of the last answer
  Esc, ^C   - Quit (or type "exit")`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := &pipeline{cfg: opts.cfg, log: opts.log}
			model := tui.New(cmd.Context(), opts.cfg.Web.Title, p.manager(), session.DefaultGreeting)
			_, err := tea.NewProgram(model,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(os.Stdout),
			).Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
	}
}
