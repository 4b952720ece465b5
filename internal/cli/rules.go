package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/primgen/pkg/manifest"
	"github.com/matzehuels/primgen/pkg/transform"
)

// rulesCommand creates the rules command, which lists or validates the
// rules of a manifest.
func (c *CLI) rulesCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "rules [manifest]",
		Short: "List the rules and templates of a manifest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := manifest.DefaultFile
			if len(args) == 1 {
				path = args[0]
			}
			m, err := manifest.Load(path)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if check {
				printSuccess(w, "%s is valid", m.Path)
				printDetail(w, "%d rules · %d axes · %d templates", len(m.Rules), len(m.Axes), len(m.Templates))
				return nil
			}
			printManifest(w, m)
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "only validate the manifest")
	return cmd
}

func printManifest(w io.Writer, m *manifest.Manifest) {
	fmt.Fprintln(w, StyleTitle.Render("Rules"))
	if len(m.Rules) == 0 {
		printDetail(w, "none")
	} else {
		fmt.Fprintln(w, rulesTable(m.Rules))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, StyleTitle.Render("Templates"))
	for _, t := range m.Templates {
		variants, err := m.Variants(t)
		if err != nil {
			printWarning(w, "%s: %v", t.Name, err)
			continue
		}
		printKeyValue(w, t.Name, fmt.Sprintf("%s → %s (%d variants)", t.Source, t.Output, len(variants)))
		if len(t.Rules) > 0 {
			printDetail(w, "rules: %s", strings.Join(t.Rules, ", "))
		}
	}
}

// headerRow is the row index lipgloss tables pass to StyleFunc for headers.
const headerRow = -1

// rulesTable renders rule specs as a bordered table.
func rulesTable(specs []transform.Spec) string {
	rows := make([][]string, 0, len(specs))
	for _, s := range specs {
		rows = append(rows, []string{s.Name, string(s.Kind), s.Pattern, ruleOptions(s)})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("Name", "Kind", "Pattern", "Options").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == headerRow:
				return styleTableHeader.Padding(0, 1)
			case col == 1:
				return lipgloss.NewStyle().Foreground(colorCyan).Padding(0, 1)
			default:
				return lipgloss.NewStyle().Padding(0, 1)
			}
		}).
		Render()
}

// ruleOptions summarizes the settings that apply to the rule's kind.
func ruleOptions(s transform.Spec) string {
	var parts []string
	if s.Template != "" {
		parts = append(parts, fmt.Sprintf("template=%q", s.Template))
	}
	if s.Kind == transform.KindArgCall || s.Kind == transform.KindCapture {
		if s.Delimiters != "" {
			parts = append(parts, "delimiters="+s.Delimiters)
		}
		if s.Strip {
			parts = append(parts, "strip")
		}
	}
	if s.Kind == transform.KindArgCall && s.Separator != "" {
		parts = append(parts, fmt.Sprintf("separator=%q", s.Separator))
	}
	if s.Syntax != transform.SyntaxDefault {
		parts = append(parts, "syntax="+string(s.Syntax))
	}
	return strings.Join(parts, " ")
}
