// Scaningest - scanner report normalization CLI
//
// Parses vulnerability scanner output (Nessus, Dependency-Check, Snyk,
// Trivy) into the unified finding schema:
//
//	scaningest parse scan.nessus report.json --min-severity high
//	scaningest parse results.sarif --json
//	scaningest formats
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/openvulnio/scaningest/pkg/config"
	"github.com/openvulnio/scaningest/pkg/core"
	"github.com/openvulnio/scaningest/pkg/ingest"
	"github.com/openvulnio/scaningest/pkg/metrics"
	"github.com/openvulnio/scaningest/pkg/report"
	"github.com/openvulnio/scaningest/pkg/shared/severity"
)

var (
	flagConfig  string
	flagVerbose bool
	flagStrict  bool

	flagJSON        bool
	flagMinSeverity string
)

var rootCmd = &cobra.Command{
	Use:   "scaningest",
	Short: "Normalize vulnerability scanner reports",
	Long: `Scaningest detects which scanner produced a report file (Nessus,
OWASP Dependency-Check, Snyk, or Trivy) and converts it into one
unified finding schema.`,
}

var parseCmd = &cobra.Command{
	Use:   "parse <file>...",
	Short: "Parse report files into normalized findings",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runParse,
}

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported scanner formats",
	Run: func(cmd *cobra.Command, args []string) {
		for _, f := range ingest.NewService(nil).Formats() {
			fmt.Println(f)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagStrict, "strict", false, "Reject files whose format is only guessed")

	parseCmd.Flags().BoolVar(&flagJSON, "json", false, "Emit results as JSON")
	parseCmd.Flags().StringVar(&flagMinSeverity, "min-severity", "", "Drop findings below this severity (critical/high/medium/low/info)")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(formatsCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagVerbose {
		cfg.Verbose = true
	}
	if flagStrict {
		cfg.StrictDetection = true
	}

	var collector metrics.Collector = &metrics.NopCollector{}
	if cfg.MetricsListen != "" {
		prom := metrics.NewPrometheusCollector(&metrics.PrometheusConfig{
			RegisterIngestMetrics: true,
		})
		collector = prom
		go serveMetrics(cfg.MetricsListen, prom)
	}

	service := ingest.NewService(&ingest.Options{
		Logger:          core.LoggerFromVerbose("scaningest", cfg.Verbose),
		Metrics:         collector,
		StrictDetection: cfg.StrictDetection,
		MaxFileSize:     cfg.MaxFileSize,
	})

	var minLevel severity.Level
	if flagMinSeverity != "" {
		level, ok := severity.ParseLevel(flagMinSeverity)
		if !ok {
			return fmt.Errorf("invalid --min-severity %q (use critical, high, medium, low, or info)", flagMinSeverity)
		}
		minLevel = level
	}

	failed := false
	for _, path := range args {
		result, err := service.ParseFile(context.Background(), path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed = true
			continue
		}

		if flagMinSeverity != "" {
			result.Findings = filterBySeverity(result.Findings, minLevel)
		}

		if flagJSON {
			if err := printJSON(result); err != nil {
				return err
			}
		} else {
			printText(path, result)
		}
	}

	if failed {
		return fmt.Errorf("some files could not be parsed")
	}
	return nil
}

func filterBySeverity(findings []report.Finding, min severity.Level) []report.Finding {
	kept := findings[:0]
	for _, f := range findings {
		if f.Severity.IsAtLeast(min) {
			kept = append(kept, f)
		}
	}
	return kept
}

func printJSON(result *report.Result) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func printText(path string, result *report.Result) {
	summary := result.Summary()
	fmt.Printf("%s: %s, %d findings (critical=%d high=%d medium=%d low=%d info=%d)\n",
		path, result.Format, summary.Total,
		summary.Critical, summary.High, summary.Medium, summary.Low, summary.Info)
	if result.LowConfidence {
		fmt.Printf("  note: format detection was low confidence\n")
	}
	for _, f := range result.Findings {
		line := fmt.Sprintf("  [%s] %s", f.Severity, f.Title)
		if f.CVEID != "" {
			line += " (" + f.CVEID + ")"
		}
		if f.AssetIdentifier != "" {
			line += " @ " + f.AssetIdentifier
		}
		fmt.Println(line)
	}
	for _, w := range result.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
}

func serveMetrics(addr string, collector metrics.Collector) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "metrics endpoint: %v\n", err)
	}
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}
