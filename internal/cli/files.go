package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"jdk25tracker/internal/csvfile"
	"jdk25tracker/internal/flags"
	"jdk25tracker/internal/logging"
	"jdk25tracker/internal/manual"
	"jdk25tracker/internal/output"
	"jdk25tracker/internal/plot"
	"jdk25tracker/internal/xlsx"

	"github.com/spf13/cobra"
)

// Commands that only transform local files.

var xlsxCSV string

var xlsxCmd = &cobra.Command{
	Use:   "xlsx <file.xlsx>",
	Short: "Summarise an Excel workbook and convert its first sheet to CSV",
	Long: `Print the sheet names, columns, shape and first rows of the first sheet of
a workbook, then write that sheet as CSV next to the input (same base
name, .csv) or to --csv.

Examples:
	jdk25tracker xlsx Java_25_Compatibility_check.xlsx
`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runXLSX(cmd.Context(), cmd.OutOrStdout(), args[0], xlsxCSV)
	},
}

func runXLSX(ctx context.Context, w io.Writer, path, csvPath string) error {
	wb, err := xlsx.Open(path)
	if err != nil {
		return err
	}
	rows, cols := wb.Shape()
	fmt.Fprintf(w, "Sheets: %s\n", strings.Join(wb.Sheets, ", "))
	fmt.Fprintf(w, "Columns: %s\n", strings.Join(wb.Header, ", "))
	fmt.Fprintf(w, "Shape: %d rows x %d columns\n\n", rows, cols)
	if err := output.NewFormatter(output.FormatTable).Format(w, output.Table{Headers: wb.Header, Rows: wb.Head(10)}); err != nil {
		return err
	}

	if csvPath == "" {
		csvPath = xlsx.CSVPath(path)
	}
	if err := wb.WriteCSV(csvPath); err != nil {
		return err
	}
	logging.FromContext(ctx).Info().Str("file", csvPath).Int("rows", rows).Msg("Wrote CSV")
	return nil
}

var manualOpts struct {
	csv      string
	column   string
	namesOut string
	format   string
}

var manualCmd = &cobra.Command{
	Use:   "manual",
	Short: "List the plugins the manual spreadsheet records a JDK 25 PR for",
	Long: `Filter the manual spreadsheet export for rows with a value in the JDK 25
pull request column, print them, and write the plugin names one per line.

Examples:
	jdk25tracker manual
	jdk25tracker manual --csv export.csv --format yaml
`,
	Args: usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(manualOpts.format)
		if err != nil {
			return &exitError{code: exitUsage, err: err}
		}
		return runManual(cmd.Context(), cmd.OutOrStdout(), manualOpts.csv, manualOpts.column, manualOpts.namesOut, format)
	},
}

func runManual(ctx context.Context, w io.Writer, csvPath, column, namesOut string, format output.Format) error {
	t, err := csvfile.Read(csvPath)
	if err != nil {
		return err
	}
	entries, err := manual.Entries(t, column)
	if err != nil {
		return fmt.Errorf("%s: %w", csvPath, err)
	}
	if err := output.NewFormatter(format).Format(w, entries); err != nil {
		return err
	}
	if format == output.FormatTable {
		fmt.Fprintf(w, "\nTotal: %d plugins with a JDK 25 pull request\n", len(entries))
	}

	if namesOut != "" {
		if err := manual.WriteNames(namesOut, entries); err != nil {
			return err
		}
		logging.FromContext(ctx).Info().Str("file", namesOut).Int("plugins", len(entries)).Msg("Wrote plugin names")
	}
	return nil
}

var plotOpts struct {
	input  string
	output string
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render the plugin evolution statistics as an SVG chart",
	Args:  usageArgs(cobra.NoArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlot(cmd.Context(), plotOpts.input, plotOpts.output)
	},
}

func runPlot(ctx context.Context, input, out string) error {
	s, err := plot.ReadSeries(input)
	if err != nil {
		return err
	}
	if err := plot.WriteSVG(out, s); err != nil {
		return err
	}
	logging.FromContext(ctx).Info().Str("file", out).Int("samples", len(s.Dates)).Msg("Wrote chart")
	return nil
}

func init() {
	rootCmd.AddCommand(xlsxCmd, manualCmd, plotCmd)

	xlsxCmd.Flags().StringVar(&xlsxCSV, flags.FlagCSV, "", "CSV output path (default: input with a .csv extension)")

	manualCmd.Flags().StringVar(&manualOpts.csv, flags.FlagCSV, manual.DefaultCSV, "Manual spreadsheet export (CSV)")
	manualCmd.Flags().StringVar(&manualOpts.column, flags.FlagColumn, manual.PRColumn, "Column holding the JDK 25 pull request")
	manualCmd.Flags().StringVar(&manualOpts.namesOut, flags.FlagNamesOut, manual.DefaultNamesFile, "Write plugin names to this file (empty to skip)")
	manualCmd.Flags().StringVar(&manualOpts.format, flags.FlagFormat, "table", "Output format: table|json|yaml")

	plotCmd.Flags().StringVar(&plotOpts.input, flags.FlagInput, "plugin_evolution.csv", "Evolution statistics CSV")
	plotCmd.Flags().StringVar(&plotOpts.output, flags.FlagOutput, "plugins_evolution.svg", "SVG output path")
}
