package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"webrag/internal/session"
)

func askCMD(cfgPath *string) *cobra.Command {
	var rawURL, question string
	var verbose bool
	ask := &cobra.Command{
		Use:   "ask",
		Short: "Process a URL, answer one question and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			var fallback io.Writer = io.Discard
			if verbose {
				fallback = os.Stderr
			}
			w, closeLog, err := openLog(cfg, fallback)
			if err != nil {
				return err
			}
			defer closeLog()

			a, err := buildApp(cfg, newLogger(w))
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			sess := session.New()
			defer a.ctrl.ClearURL(sess)

			snap, err := a.ctrl.SubmitURL(ctx, sess, rawURL)
			if err != nil {
				if snap.Error != "" {
					return errors.New(snap.Error)
				}
				return err
			}
			res, err := a.ctrl.Ask(ctx, sess, question)
			if err != nil {
				if msg := sess.Snapshot().Error; msg != "" {
					return errors.New(msg)
				}
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Answer)
			if verbose {
				fmt.Fprintf(out, "\n-- %d passages, web snippet: %q\n", len(res.Chunks), res.Snippet)
			}
			return nil
		},
	}
	ask.Flags().StringVar(&rawURL, "url", "", "page to index")
	ask.Flags().StringVarP(&question, "question", "q", "", "question to answer")
	ask.Flags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr and show retrieval details")
	_ = ask.MarkFlagRequired("url")
	_ = ask.MarkFlagRequired("question")
	return ask
}
