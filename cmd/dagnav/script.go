package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/chazu/dagnav/pkg/engine"
)

// watchDebounce collapses the burst of events an editor save produces.
const watchDebounce = 200 * time.Millisecond

func scriptCmd(a *app) *cobra.Command {
	var (
		out   string
		watch bool
	)

	cmd := &cobra.Command{
		Use:   "script FILE SCRIPT",
		Short: "Run a Lisp script against a model",
		Long: `Evaluates SCRIPT with builtins such as (volume 3), (set-material v "fuel")
and (add-to-group g s). The value of the last expression is printed. With
--output the edited model is saved. With --watch the script is run again,
on a freshly loaded model, every time it changes.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := engine.NewEngine(
				engine.WithTimeout(a.cfg.Script.Timeout),
				engine.WithLogger(a.logger),
			)
			run := func() error {
				return a.runScript(cmd.OutOrStdout(), eng, args[0], args[1], out)
			}
			if !watch {
				return run()
			}
			for _, in := range args {
				if out != "" && samePath(out, in) {
					return fmt.Errorf("--watch cannot write its output over %s: each run would start from the last run's edits", in)
				}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.watchScript(ctx, args[1], run)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Save the edited model to this file")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-run whenever SCRIPT changes")
	return cmd
}

func (a *app) runScript(w io.Writer, eng *engine.Engine, modelPath, scriptPath, out string) error {
	src, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}
	m, err := a.open(modelPath)
	if err != nil {
		return err
	}
	res, evalErrs, err := eng.Evaluate(m, string(src))
	if err != nil {
		return err
	}
	if len(evalErrs) > 0 {
		errs := make([]error, len(evalErrs))
		for i, e := range evalErrs {
			errs[i] = fmt.Errorf("%s: %w", scriptPath, e)
		}
		return errors.Join(errs...)
	}
	if res.Value != "" {
		fmt.Fprintln(w, res.Value)
	}
	if out != "" {
		return a.save(m, modelPath, out)
	}
	return nil
}

// watchScript runs once, then again after each change to path, until ctx
// is done. Script failures are logged and do not stop the watch.
func (a *app) watchScript(ctx context.Context, path string, run func() error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	// Editors often replace the file, so watch the directory.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	rerun := func() {
		if err := run(); err != nil {
			a.logger.Error("script failed", "path", path, "error", err)
		}
	}
	rerun()
	a.logger.Info("watching script", "path", abs)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			a.logger.Debug("script changed", "op", ev.Op.String())
			pending = time.After(watchDebounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.logger.Error("watcher error", "error", err)
		case <-pending:
			pending = nil
			rerun()
		}
	}
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
