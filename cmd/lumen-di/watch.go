package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/pipeline"
	"github.com/lumen-lang/lumen/internal/sir"
)

var watchCmd = &cobra.Command{
	Use:   "watch <module.sirc>",
	Short: "Re-run definite-initialization checking whenever the module file changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().Bool("no-cache", false, "skip the on-disk diagnostic result cache")
	watchCmd.Flags().String("cache-dir", defaultCacheDir(), "directory for the diagnostic result cache")
}

// runWatch watches inputPath's directory (fsnotify on Linux can't watch a
// single file reliably across editor save strategies that replace the inode
// on write) and re-checks the module on every event that touches it,
// mirroring Orizon's FSNotifyWatcher event/error loop, folded into a single
// goroutine here since there is only ever one path of interest.
func runWatch(cmd *cobra.Command, args []string) error {
	inputPath, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve %q: %w", args[0], err)
	}

	cfg, err := loadConfig(mustFlagString(cmd, "config"))
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(inputPath)); err != nil {
		return fmt.Errorf("watch %q: %w", filepath.Dir(inputPath), err)
	}

	color, err := colorMode(cmd, cfg)
	if err != nil {
		return err
	}

	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("get max-diagnostics flag: %w", err)
	}

	r := newRenderer(os.Stdout, color)

	debounce := time.Duration(cfg.Watch.DebounceMillis) * time.Millisecond
	if debounce <= 0 {
		debounce = 150 * time.Millisecond
	}

	recheck := func() {
		fmt.Fprintf(os.Stdout, "--- checking %s ---\n", inputPath)

		if err := checkOnce(cmd, inputPath, r, maxDiagnostics); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	recheck()

	ctx := context.Background()
	var pending *time.Timer

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != inputPath {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if pending != nil {
				pending.Stop()
			}
			pending = time.AfterFunc(debounce, recheck)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			fmt.Fprintln(os.Stderr, err)
		}
	}
}

// checkOnce runs one check pass, reusing the cache and rendering path check
// builds on, but never returns errCheckFailed-as-fatal: watch mode keeps
// running across a file that currently has diagnostics.
func checkOnce(cmd *cobra.Command, inputPath string, r *renderer, maxDiagnostics int) error {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read %q: %w", inputPath, err)
	}

	manager := diagnostics.NewManager()

	cached, err := checkWithCache(cmd, data, manager)
	if err != nil {
		return err
	}

	if !cached {
		mod, err := sir.DecodeModule(data)
		if err != nil {
			return fmt.Errorf("decode %q: %w", inputPath, err)
		}

		objects := pipeline.ObjectsFromModule(mod)
		if _, err := pipeline.Run(context.Background(), objects, manager); err != nil {
			return fmt.Errorf("check %q: %w", inputPath, err)
		}

		if err := storeInCache(cmd, data, manager); err != nil {
			return err
		}
	}

	r.Render(manager.Diagnostics(), maxDiagnostics)

	if !manager.HasErrors() {
		fmt.Fprintln(os.Stdout, "ok")
	}

	return nil
}
