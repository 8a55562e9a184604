package cli

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/dxtoolkit/dxbuild/internal/branding"
	"github.com/dxtoolkit/dxbuild/internal/scaffold"
	"github.com/spf13/cobra"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

var (
	createOutputDir string
	createTitle     string
	createSummary   string
)

func init() {
	createCmd.PersistentFlags().StringVar(&createOutputDir, "output-dir", "", "Output directory (default: ./<name>)")
	createCmd.PersistentFlags().StringVar(&createTitle, "title", "", "Human-readable title (default: <name>)")
	createCmd.PersistentFlags().StringVar(&createSummary, "summary", "", "One-line summary")
	createCmd.AddCommand(createWorkflowCmd)
	createCmd.AddCommand(createAppletCmd)
	rootCmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Scaffold a new source directory",
	Long:  `Create a workflow or applet source directory from built-in templates.`,
}

var createWorkflowCmd = &cobra.Command{
	Use:   "workflow <name>",
	Short: "Scaffold a new workflow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreate(cmd, scaffold.KindWorkflow, args[0])
	},
}

var createAppletCmd = &cobra.Command{
	Use:   "applet <name>",
	Short: "Scaffold a new applet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreate(cmd, scaffold.KindApplet, args[0])
	},
}

func runCreate(cmd *cobra.Command, kind, name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("invalid name %q: use letters, digits, '.', '_' and '-'", name)
	}

	data := scaffold.NewData(kind, name)
	if createTitle != "" {
		data.Title = createTitle
	}
	if createSummary != "" {
		data.Summary = createSummary
	}

	outDir := createOutputDir
	if outDir == "" {
		outDir = filepath.Join(".", name)
	}

	result, err := scaffold.Generate(kind, data, outDir)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Created %s in %s\n", kind, result.OutputDir)
	for _, f := range result.Files {
		fmt.Fprintf(w, "  %s\n", f)
	}
	printWarnings(cmd.ErrOrStderr(), result.Warnings)
	fmt.Fprintf(w, "\nNext: edit the manifest, then run '%s build %s'\n", branding.CLIName(), outDir)
	return nil
}
