package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pipinfo/pkg/errors"
	"github.com/matzehuels/pipinfo/pkg/inventory"
	"github.com/matzehuels/pipinfo/pkg/render/nodelink"
	"github.com/matzehuels/pipinfo/pkg/requiredby"
)

// graphOptions holds the graph command's flags.
type graphOptions struct {
	format     string
	output     string
	detailed   bool
	deepExtras bool
	user       bool
	system     bool
}

// graphCommand creates the graph command, which draws the required-by
// relation of installed packages.
func (c *CLI) graphCommand() *cobra.Command {
	opts := &graphOptions{}

	cmd := &cobra.Command{
		Use:   "graph [directory ...]",
		Short: "Draw which installed packages require which",
		Long: `Draw the required-by graph of installed packages.

An edge A -> B means package A requires B, directly or through an extra.
Dependencies that are not installed are drawn dashed.`,
		Example: `  pipinfo graph -o deps.svg
  pipinfo graph --format dot ./venv/lib/python3.12/site-packages`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: dot, svg or png (default: from --output extension, else dot)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show installed versions in node labels")
	cmd.Flags().BoolVar(&opts.deepExtras, "deep-extras", false, "expand every extra activation")
	cmd.Flags().BoolVarP(&opts.user, "user", "U", false, "graph only user packages")
	cmd.Flags().BoolVarP(&opts.system, "system", "S", false, "graph only system packages")

	return cmd
}

func (c *CLI) runGraph(cmd *cobra.Command, args []string, opts *graphOptions) error {
	for _, dir := range args {
		if err := errors.ValidateDirectory(dir); err != nil {
			return err
		}
	}
	if opts.deepExtras {
		c.Config.DeepExtras = true
	}
	format, err := graphFormat(opts.format, opts.output)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	runner := inventory.NewRunner(nil, c.Logger)
	pkgs, err := runner.Scan(cmd.Context(), inventory.Options{
		Dirs:    args,
		Python:  c.Config.Python,
		Workers: c.Config.Workers,
		Select:  inventory.Selection{User: opts.user, System: opts.system},
	})
	if err != nil {
		return err
	}

	ix := requiredby.Build(pkgs, requiredby.Options{Policy: c.policy()})
	dot := nodelink.ToDOT(ix, nodelink.Options{Packages: pkgs, Detailed: opts.detailed})
	data, err := nodelink.Render(cmd.Context(), dot, format)
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}
	prog.done(fmt.Sprintf("Graphed %d packages, %d required", len(pkgs), len(ix)))

	if opts.output == "" {
		_, err := c.Out.Write(data)
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	printSuccess("Graph written")
	printFile(opts.output)
	return nil
}

// graphFormat picks the output format from the flag, falling back to the
// output file's extension.
func graphFormat(flag, output string) (nodelink.Format, error) {
	if flag == "" {
		switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(output), ".")); ext {
		case "svg", "png", "dot":
			flag = ext
		default:
			flag = "dot"
		}
	}
	switch f := nodelink.Format(flag); f {
	case nodelink.FormatDOT, nodelink.FormatSVG, nodelink.FormatPNG:
		return f, nil
	}
	return "", errors.New(errors.ErrCodeUnsupported, "unsupported format %q (want dot, svg or png)", flag)
}
