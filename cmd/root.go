package cmd

import (
	classgraph "github.com/classgraph/classgraph-go"
	"github.com/classgraph/classgraph-go/internal/telemetry"
	"github.com/spf13/cobra"
)

// telemetryPublicKey is empty in this build; telemetry.New is then
// always a no-op send regardless of --disable-metrics.
var telemetryPublicKey string

var reporter *telemetry.Reporter

var rootCmd = &cobra.Command{
	Use:   "classgraph",
	Short: "classgraph scans a JVM classpath and builds a class/interface/annotation graph",
	Long:  `classgraph decodes classfiles on a classpath, including nested jars, without loading any class, and answers subclass/interface/annotation queries over the result.`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		disableMetrics, _ := cmd.Flags().GetBool("disable-metrics") //nolint:all
		reporter = telemetry.New(telemetryPublicKey, disableMetrics)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("disable-metrics", false, "Disable metrics collection")
}

// telemetryCounts extracts the aggregate counts a Reporter sends from a
// completed scan, shared by the scan and query subcommands.
func telemetryCounts(result *classgraph.Result) telemetry.Counts {
	return telemetry.Counts{
		ClassCount:      result.ClassCount,
		InterfaceCount:  result.InterfaceCount,
		AnnotationCount: result.AnnotationCount,
		ArchiveCount:    result.ArchiveCount,
		Elapsed:         result.Elapsed,
	}
}
