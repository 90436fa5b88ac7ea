package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"webrag/internal/session"
	"webrag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	root := &cobra.Command{
		Use:   "webrag [url]",
		Short: "Ask questions about a web page, backed by retrieval and a live web search",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			initialURL := ""
			if len(args) == 1 {
				initialURL = args[0]
			}
			return runTUI(cmd.Context(), cfgPath, initialURL)
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config (default ./config.yaml, then ~/.config/webrag/config.yaml)")
	root.AddCommand(serveCMD(&cfgPath), askCMD(&cfgPath))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func runTUI(ctx context.Context, cfgPath, initialURL string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("the interactive UI needs a terminal; use 'webrag ask' or 'webrag serve'")
	}
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// stderr would corrupt the screen, so the UI always logs to a file
	logPath := cfg.Log.File
	if logPath == "" {
		logPath = filepath.Join(os.TempDir(), "webrag.log")
	}
	f, err := tea.LogToFile(logPath, "webrag")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	logger := newLogger(f)

	a, err := buildApp(cfg, logger)
	if err != nil {
		return err
	}
	sess := session.New()
	defer a.ctrl.ClearURL(sess)

	m := tui.New(ctx, a.ctrl, sess, initialURL)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
