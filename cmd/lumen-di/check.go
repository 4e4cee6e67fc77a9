package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lumen-lang/lumen/internal/diagnostics"
	"github.com/lumen-lang/lumen/internal/pipeline"
	"github.com/lumen-lang/lumen/internal/sir"
)

var checkCmd = &cobra.Command{
	Use:   "check <module.sirc>",
	Short: "Run definite-initialization checking over a serialized SIR module",
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().String("out", "", "write the rewritten module here on success (default: don't write one)")
	checkCmd.Flags().Bool("no-cache", false, "skip the on-disk diagnostic result cache")
	checkCmd.Flags().String("cache-dir", defaultCacheDir(), "directory for the diagnostic result cache")
}

func defaultCacheDir() string {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "lumen-di")
		}

		base = filepath.Join(home, ".cache")
	}

	return filepath.Join(base, "lumen-di")
}

func runCheck(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	cfg, err := loadConfig(mustFlagString(cmd, "config"))
	if err != nil {
		return err
	}

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

		if out := mustFlagString(cmd, "out"); out != "" && !manager.HasErrors() {
			rewritten, err := sir.EncodeModule(mod)
			if err != nil {
				return fmt.Errorf("encode rewritten module: %w", err)
			}

			if err := os.WriteFile(out, rewritten, 0o644); err != nil {
				return fmt.Errorf("write %q: %w", out, err)
			}
		}
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
	r.Render(manager.Diagnostics(), maxDiagnostics)

	if manager.HasErrors() {
		return errCheckFailed
	}

	return nil
}

// errCheckFailed is returned (never printed — main exits 1 without
// printing it) to distinguish "diagnostics were found" from a flag/IO
// failure, whose message main does print.
var errCheckFailed = fmt.Errorf("")

func mustFlagString(cmd *cobra.Command, name string) string {
	if f := cmd.Flags().Lookup(name); f != nil {
		v, _ := cmd.Flags().GetString(name)

		return v
	}

	v, _ := cmd.Root().PersistentFlags().GetString(name)

	return v
}

func colorMode(cmd *cobra.Command, cfg fileConfig) (string, error) {
	flag := cmd.Root().PersistentFlags().Lookup("color")
	if flag != nil && flag.Changed {
		return flag.Value.String(), nil
	}

	if cfg.Color != "" {
		return cfg.Color, nil
	}

	return "auto", nil
}

func checkWithCache(cmd *cobra.Command, data []byte, manager *diagnostics.Manager) (hit bool, err error) {
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil || noCache {
		return false, err
	}

	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return false, err
	}

	cache, err := pipeline.OpenResultCache(cacheDir)
	if err != nil {
		return false, err
	}

	ds, found, err := cache.Get(pipeline.HashInput(data))
	if err != nil || !found {
		return false, err
	}

	for _, d := range ds {
		manager.Report(d)
	}

	return true, nil
}

func storeInCache(cmd *cobra.Command, data []byte, manager *diagnostics.Manager) error {
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil || noCache {
		return err
	}

	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return err
	}

	cache, err := pipeline.OpenResultCache(cacheDir)
	if err != nil {
		return err
	}

	return cache.Put(pipeline.HashInput(data), manager.Diagnostics())
}
