package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dxtoolkit/dxbuild/internal/api"
	"github.com/dxtoolkit/dxbuild/internal/build"
	"github.com/dxtoolkit/dxbuild/internal/config"
	"github.com/spf13/cobra"
)

var (
	buildArgs build.Args
	buildJSON bool
)

// newPlatform returns the API client builds run against.
var newPlatform = func(cfg *config.Config) build.Platform {
	return api.New(cfg)
}

var buildCmd = &cobra.Command{
	Use:   "build [src-dir]",
	Short: "Build a workflow, applet, or app from a source directory",
	Long: `Build reads dxapp.json or dxworkflow.json from the source directory (default: the
current directory), validates it, and creates the object on the platform.
The new object's ID is printed on success.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringVarP(&buildArgs.Destination, "destination", "d", "", "Where to put the result: [PROJECT:][/FOLDER/][NAME]")
	f.BoolVar(&buildArgs.DryRun, "dry-run", false, "Validate and print the requests without creating anything")
	f.BoolVar(&buildJSON, "json", false, "Print the result as JSON")
	f.BoolVar(&buildArgs.CreateApp, "create-app", false, "Create an app instead of an applet")
	f.BoolVar(&buildArgs.Publish, "publish", false, "Publish the app and make it the default version")
	f.StringArrayVar(&buildArgs.Regions, "region", nil, "Enable the app in a region (repeatable)")
	f.BoolVarP(&buildArgs.Overwrite, "overwrite", "f", false, "Remove existing applets with the same name")
	f.BoolVarP(&buildArgs.Archive, "archive", "a", false, "Archive existing applets with the same name")
	f.StringVar(&buildArgs.Version, "version", "", "Override the version in dxapp.json")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	srcDir := "."
	if len(args) == 1 {
		srcDir = args[0]
	}

	cfg, err := config.Load()
	if err != nil {
		return &build.ConfigurationError{Msg: "loading configuration", Err: err}
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := build.NewDispatcher(cfg.Workspace(), newPlatform(cfg)).Run(ctx, srcDir, buildArgs)
	if err != nil {
		return err
	}
	printWarnings(cmd.ErrOrStderr(), out.Warnings)
	return printBuildOutput(cmd, out)
}

func printBuildOutput(cmd *cobra.Command, out *build.Output) error {
	w := cmd.OutOrStdout()
	switch {
	case buildJSON && out.Dry:
		return writeJSON(w, out)
	case buildJSON:
		return writeJSON(w, map[string]string{"id": out.ID})
	case out.Dry:
		return writeJSON(w, out.Requests)
	}
	fmt.Fprintln(w, out.ID)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// commandContext is the context commands run under when none is set.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
