package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pipinfo/pkg/errors"
	"github.com/matzehuels/pipinfo/pkg/integrations/pypi"
	"github.com/matzehuels/pipinfo/pkg/inventory"
	"github.com/matzehuels/pipinfo/pkg/metadata"
)

// listOptions holds the root command's flags.
type listOptions struct {
	checkLatest bool
	checkVulns  bool
	noColor     bool
	noProgress  bool
	info        bool
	deepExtras  bool
	refresh     bool
	python      string
	workers     int

	sel inventory.Selection
}

func (o *listOptions) register(cmd *cobra.Command) {
	f := cmd.Flags()

	f.BoolVarP(&o.checkLatest, "check-latest", "l", false, "check latest versions")
	f.BoolVarP(&o.checkVulns, "check-vulns", "v", false, "check vulnerabilities")

	f.BoolVarP(&o.noColor, "no-color", "c", false, "toggle off color output")
	f.BoolVarP(&o.noProgress, "no-progress", "p", false, "toggle off progress meter")
	f.BoolVarP(&o.info, "info", "i", false, "print detailed info on versions & vulnerabilities")

	f.BoolVarP(&o.sel.Healthy, "healthy", "H", false, "select only healthy packages")
	f.BoolVar(&o.sel.Healthy, "sane", false, "alias for --healthy")
	f.BoolVarP(&o.sel.Issues, "issues", "I", false, "select all packages with issues (-O & -V)")
	f.BoolVarP(&o.sel.Latest, "latest", "L", false, "select only latest packages")
	f.BoolVar(&o.sel.Latest, "uptodate", false, "alias for --latest")
	f.BoolVarP(&o.sel.Outdated, "outdated", "O", false, "select only outdated packages")
	f.BoolVarP(&o.sel.System, "system", "S", false, "select only system packages")
	f.BoolVarP(&o.sel.User, "user", "U", false, "select only user packages")
	f.BoolVarP(&o.sel.NotRequired, "not-required", "N", false, "select only not required packages")
	f.BoolVarP(&o.sel.Required, "required", "R", false, "select only required packages")
	f.BoolVarP(&o.sel.Vulnerable, "vulnerable", "V", false, "select only vulnerable packages")

	f.BoolVar(&o.deepExtras, "deep-extras", false, "expand every extra activation when computing required-by")
	f.BoolVar(&o.refresh, "refresh", false, "ignore cached PyPI answers")
	f.StringVar(&o.python, "python", "", "Python interpreter asked for site directories")
	f.IntVar(&o.workers, "workers", 0, "concurrent scans and lookups")

	_ = f.MarkHidden("sane")
	_ = f.MarkHidden("uptodate")
}

// apply overlays the flags the user set onto the loaded configuration.
func (o *listOptions) apply(cmd *cobra.Command, c *CLI) {
	f := cmd.Flags()
	if o.noColor {
		c.Config.Color = false
	}
	if o.noProgress {
		c.Config.Progress = false
	}
	if o.deepExtras {
		c.Config.DeepExtras = true
	}
	if f.Changed("python") {
		c.Config.Python = o.python
	}
	if f.Changed("workers") && o.workers > 0 {
		c.Config.Workers = o.workers
	}
}

// selection resolves conflicting selections: --issues replaces the
// outdated/latest and vulnerable/healthy pairs.
func (o *listOptions) selection() inventory.Selection {
	sel := o.sel
	if sel.Issues {
		sel.Outdated, sel.Latest = false, false
		sel.Vulnerable, sel.Healthy = false, false
	}
	return sel
}

func (c *CLI) runList(cmd *cobra.Command, args []string, opts *listOptions) error {
	for _, dir := range args {
		if err := errors.ValidateDirectory(dir); err != nil {
			return err
		}
	}
	opts.apply(cmd, c)

	invOpts := inventory.Options{
		Dirs:        args,
		Python:      c.Config.Python,
		CheckLatest: opts.checkLatest,
		CheckVulns:  opts.checkVulns,
		Refresh:     opts.refresh,
		Select:      opts.selection(),
		Policy:      c.policy(),
		Workers:     c.Config.Workers,
	}
	invOpts.Normalize()

	lookups := invOpts.CheckLatest || invOpts.CheckVulns
	if c.Config.Progress {
		invOpts.Progress = cmd.ErrOrStderr()
	}

	var spinner *Spinner
	if c.Config.Progress && !lookups {
		spinner = newSpinner(cmd.Context(), cmd.ErrOrStderr(), "Scanning site directories...")
		spinner.Start()
	}

	prog := newProgress(c.Logger)
	result, err := c.newRunner().Execute(cmd.Context(), invOpts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Listed %d of %d packages", len(result.Packages), result.Stats.Scanned))

	return writeListing(c.Out, result, listStyle{Color: c.Config.Color, Details: opts.info})
}

// =============================================================================
// Listing
// =============================================================================

// listStyle controls how a listing is printed.
type listStyle struct {
	Color   bool // styled table; otherwise plain text with ^ ! * markers
	Details bool // print available versions and advisories under packages
}

// listing is a result prepared for printing.
type listing struct {
	result     *inventory.Result
	pkgs       []*metadata.Package
	duplicates map[string]bool
	outdated   int
	vulnerable int
}

func newListing(res *inventory.Result) *listing {
	pkgs := slices.Clone(res.Packages)
	slices.SortStableFunc(pkgs, func(a, b *metadata.Package) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	l := &listing{result: res, pkgs: pkgs, duplicates: make(map[string]bool)}
	seen := make(map[string]bool)
	for _, p := range pkgs {
		if seen[p.Key()] {
			l.duplicates[p.Key()] = true
		}
		seen[p.Key()] = true
		if res.IsOutdated(p) {
			l.outdated++
		}
		if res.IsVulnerable(p) {
			l.vulnerable++
		}
	}
	return l
}

// summary returns the footer line, e.g. "12 packages, 3 outdated".
func (l *listing) summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d package", len(l.pkgs))
	if len(l.pkgs) != 1 {
		b.WriteString("s")
	}
	if l.outdated > 0 {
		fmt.Fprintf(&b, ", %d outdated", l.outdated)
	}
	if l.vulnerable > 0 {
		fmt.Fprintf(&b, ", %d vulnerable", l.vulnerable)
	}
	return b.String()
}

// details returns the lines printed under p with --info.
func (l *listing) details(p *metadata.Package) (latest string, vulns []pypi.Vulnerability) {
	if l.result.IsOutdated(p) {
		latest = fmt.Sprintf(" => Version %s is available", l.result.LatestVersion(p))
	}
	return latest, l.result.VulnerabilitiesOf(p)
}

func vulnerabilityLines(v pypi.Vulnerability) []string {
	withdrawn := "no"
	if v.Withdrawn != nil {
		withdrawn = v.Withdrawn.Format("2006-01-02")
	}
	return []string{
		fmt.Sprintf(" => %s:", v.ID),
		"      Aliases: " + strings.Join(v.Aliases, ", "),
		"      Details: " + strings.TrimSpace(v.Details),
		"      Fixed in: " + strings.Join(v.FixedIn, ", "),
		"      Link: " + v.Link,
		"      Source: " + v.Source,
		"      Summary: " + v.Summary,
		"      Withdrawn: " + withdrawn,
	}
}

// writeListing prints the selected packages sorted case-insensitively by
// name, followed by a summary line.
func writeListing(w io.Writer, res *inventory.Result, style listStyle) error {
	l := newListing(res)
	if style.Color {
		return l.writeTable(w, style.Details)
	}
	return l.writePlain(w, style.Details)
}

// writePlain prints fixed-width columns. Duplicated names are starred,
// outdated versions wrapped in ^ and vulnerable ones in !.
func (l *listing) writePlain(w io.Writer, details bool) error {
	nameW, versionW, summaryW := len("Package"), len("Version"), len("Summary")
	for _, p := range l.pkgs {
		nameW = max(nameW, utf8.RuneCountInString(p.Name))
		versionW = max(versionW, utf8.RuneCountInString(p.Version))
		summaryW = max(summaryW, utf8.RuneCountInString(p.Summary))
	}
	nameW += 2
	versionW += 2

	var b strings.Builder
	line := func(name, version, summary string) {
		s := fmt.Sprintf("%-*s %-*s %s", nameW, name, versionW, version, summary)
		b.WriteString(strings.TrimRight(s, " "))
		b.WriteByte('\n')
	}

	line("Package", "Version", "Summary")
	line(strings.Repeat("-", nameW), strings.Repeat("-", versionW), strings.Repeat("-", summaryW))
	for _, p := range l.pkgs {
		name := p.Name
		if l.duplicates[p.Key()] {
			name = "*" + name + "*"
		}
		version := p.Version
		switch {
		case l.result.IsVulnerable(p):
			version = "!" + version + "!"
		case l.result.IsOutdated(p):
			version = "^" + version + "^"
		}
		line(name, version, p.Summary)

		if details {
			latest, vulns := l.details(p)
			if latest != "" {
				b.WriteString(latest + "\n")
			}
			for _, v := range vulns {
				b.WriteString(strings.Join(vulnerabilityLines(v), "\n") + "\n")
			}
		}
	}
	b.WriteString(strings.Repeat("=", nameW+versionW+summaryW+2) + "\n")
	b.WriteString(l.summary() + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// writeTable prints a styled table. User packages are bold, duplicated
// names yellow, outdated versions yellow and vulnerable versions red.
// Details follow the table since rows cannot hold them.
func (l *listing) writeTable(w io.Writer, details bool) error {
	rows := make([][]string, len(l.pkgs))
	for i, p := range l.pkgs {
		rows[i] = []string{p.Name, p.Version, p.Summary}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Package", "Version", "Summary").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < 0 || row >= len(l.pkgs) {
				return cell
			}
			p := l.pkgs[row]
			s := cell
			if p.Source == metadata.SourceUser {
				s = s.Bold(true)
			}
			switch col {
			case 0:
				if l.duplicates[p.Key()] {
					s = s.Foreground(colorYellow)
				}
			case 1:
				switch {
				case l.result.IsVulnerable(p):
					s = s.Foreground(colorWhite).Background(colorRed)
				case l.result.IsOutdated(p):
					s = s.Foreground(colorYellow)
				}
			case 2:
				s = s.Foreground(colorGray)
			}
			return s
		})

	var b strings.Builder
	b.WriteString(t.Render())
	b.WriteString("\n")

	if details {
		for _, p := range l.pkgs {
			latest, vulns := l.details(p)
			if latest == "" && len(vulns) == 0 {
				continue
			}
			b.WriteString(StyleTitle.Render(p.Name+" "+p.Version) + "\n")
			if latest != "" {
				b.WriteString(StyleSuccess.Render(latest) + "\n")
			}
			for _, v := range vulns {
				b.WriteString(styleError.Render(strings.Join(vulnerabilityLines(v), "\n")) + "\n")
			}
		}
	}
	b.WriteString(StyleDim.Render(l.summary()) + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}
