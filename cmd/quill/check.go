package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"quill/internal/ast"
	"quill/internal/diagfmt"
	"quill/internal/driver"
	"quill/internal/project"
	"quill/internal/source"
)

var (
	checkJobs    int
	checkNoCache bool
)

func init() {
	checkCmd.Flags().IntVar(&checkJobs, "jobs", 0, "bound concurrent verification tasks (0 = GOMAXPROCS)")
	checkCmd.Flags().BoolVar(&checkNoCache, "no-cache", false, "skip the snapshot cache")
}

var checkCmd = &cobra.Command{
	Use:   "check <bundle>",
	Short: "Resolve and type-check a declaration bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		encoded, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read bundle: %w", err)
		}
		bundle, err := ast.DecodeBundle(encoded)
		if err != nil {
			return err
		}

		manifest := project.DefaultManifest()
		if path, ok, err := project.FindManifest(filepath.Dir(args[0])); err != nil {
			return err
		} else if ok {
			manifest, err = project.LoadManifest(path)
			if err != nil {
				return err
			}
		}

		opts := driver.Options{
			IncludeRefs:    manifest.Checker.IncludeRefs,
			MaxDiagnostics: manifest.Checker.MaxDiagnostics,
			Jobs:           manifest.Checker.Jobs,
		}
		if maxDiag, _ := cmd.Flags().GetInt("max-diagnostics"); maxDiag > 0 {
			opts.MaxDiagnostics = maxDiag
		}
		if checkJobs > 0 {
			opts.Jobs = checkJobs
		}

		var cache *driver.SnapshotCache
		digest := driver.DigestOf(encoded)
		if !checkNoCache {
			if cache, err = driver.OpenSnapshotCache("quill"); err == nil {
				if snap, ok, _ := cache.Get(digest); ok {
					fmt.Fprintf(cmd.OutOrStdout(),
						"unchanged: %d structs, %d functions, %d diagnostics (cached)\n",
						len(snap.Structs), len(snap.Functions), snap.ErrorCount)
					if snap.HasErrors {
						os.Exit(1)
					}
					return nil
				}
			}
		}

		out, err := driver.CheckProgram(cmd.Context(), bundle, opts)
		if err != nil {
			return err
		}

		fs := source.NewFileSet()
		for _, f := range bundle.Files {
			fs.Add(f.Path, f.Content)
		}
		colorMode, _ := cmd.Flags().GetString("color")
		diagfmt.Pretty(os.Stderr, out.Bag, fs, diagfmt.PrettyOpts{
			Color:   useColor(colorMode, os.Stderr),
			Context: true,
		})
		fmt.Fprintf(cmd.OutOrStdout(), "checked %d structs, %d functions: %d diagnostics\n",
			len(out.Structs), len(out.Functions), out.Bag.Len())

		if cache != nil {
			// Cache failures only cost a re-check next run.
			_ = cache.Put(digest, driver.SnapshotOf(out))
		}
		if out.Bag.HasErrors() {
			os.Exit(1)
		}
		return nil
	},
}
