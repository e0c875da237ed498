package cmd

import (
	"context"
	"fmt"
	"os"

	classgraph "github.com/classgraph/classgraph-go"
	"github.com/classgraph/classgraph-go/internal/diagnostics"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// scanConfig is the shape of an optional --config YAML file, an
// alternative to spelling every option out as a flag.
type scanConfig struct {
	Classpath                 []string `yaml:"classpath"`
	Whitelist                 []string `yaml:"whitelist"`
	Blacklist                 []string `yaml:"blacklist"`
	BlacklistSystemJars       bool     `yaml:"blacklist_system_jars"`
	AddNestedLibJars          bool     `yaml:"add_nested_lib_jars"`
	StripSelfExtractingHeader bool     `yaml:"strip_self_extracting_header"`
	CreateClassLoaderForMatch bool     `yaml:"create_classloader_for_matches"`
	Workers                   int      `yaml:"workers"`
}

func loadScanConfig(path string) (*scanConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg scanConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

var scanCmd = &cobra.Command{
	Use:   "scan [classpath-element ...]",
	Short: "Scan a classpath and print a summary of the resulting class graph",
	Long: `Scan decodes every whitelisted classfile reachable from one or more
classpath elements — directories, jars, or nested-archive paths like
app.jar!BOOT-INF/lib/inner.jar — and reports how many classes,
interfaces, and annotations it found.

Examples:
  classgraph scan ./build/classes
  classgraph scan --whitelist com.acme app.jar
  classgraph scan --config scan.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		whitelist, _ := cmd.Flags().GetStringSlice("whitelist")
		blacklist, _ := cmd.Flags().GetStringSlice("blacklist")
		blacklistSystemJars, _ := cmd.Flags().GetBool("blacklist-system-jars")
		addNestedLibJars, _ := cmd.Flags().GetBool("add-nested-lib-jars")
		stripHeader, _ := cmd.Flags().GetBool("strip-self-extracting-header")
		createClassLoaderForMatches, _ := cmd.Flags().GetBool("create-classloader-for-matches")
		workers, _ := cmd.Flags().GetInt("workers")
		verbose, _ := cmd.Flags().GetBool("verbose")

		roots := args
		if configPath != "" {
			cfg, err := loadScanConfig(configPath)
			if err != nil {
				return err
			}
			if len(roots) == 0 {
				roots = cfg.Classpath
			}
			whitelist = append(whitelist, cfg.Whitelist...)
			blacklist = append(blacklist, cfg.Blacklist...)
			blacklistSystemJars = blacklistSystemJars || cfg.BlacklistSystemJars
			addNestedLibJars = addNestedLibJars || cfg.AddNestedLibJars
			stripHeader = stripHeader || cfg.StripSelfExtractingHeader
			createClassLoaderForMatches = createClassLoaderForMatches || cfg.CreateClassLoaderForMatch
			if !cmd.Flags().Changed("workers") && cfg.Workers > 0 {
				workers = cfg.Workers
			}
		}
		if len(roots) == 0 {
			return fmt.Errorf("no classpath elements given (pass them as arguments or via --config)")
		}

		level := diagnostics.LevelDefault
		if verbose {
			level = diagnostics.LevelVerbose
		}
		log := diagnostics.New(level)

		scanner := classgraph.NewScanner(log).Workers(workers)
		if len(whitelist) > 0 {
			scanner.Whitelist(whitelist...)
		}
		if len(blacklist) > 0 {
			scanner.Blacklist(blacklist...)
		}
		if blacklistSystemJars {
			scanner.BlacklistSystemJars()
		}
		if addNestedLibJars {
			scanner.AddNestedLibJars()
		}
		if stripHeader {
			scanner.StripSelfExtractingHeader()
		}
		if createClassLoaderForMatches {
			scanner.CreateClassLoaderForMatches()
		}

		result, err := scanner.Scan(context.Background(), roots...)
		if err != nil {
			if reporter != nil {
				reporter.ReportScanFailed()
			}
			return fmt.Errorf("scan failed: %w", err)
		}

		if reporter != nil {
			reporter.ReportScanCompleted(telemetryCounts(result))
		}

		printScanSummary(result)
		return nil
	},
}

func printScanSummary(result *classgraph.Result) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Printf("%s %s\n", green("Classes:"), yellow(result.ClassCount))
	fmt.Printf("%s %s\n", green("Interfaces:"), yellow(result.InterfaceCount))
	fmt.Printf("%s %s\n", green("Annotations:"), yellow(result.AnnotationCount))
	fmt.Printf("%s %s\n", green("Archives scanned:"), yellow(result.ArchiveCount))
	if result.RejectedCount > 0 {
		fmt.Printf("%s %s\n", color.New(color.FgRed).Sprint("Rejected classfiles:"), yellow(result.RejectedCount))
	}
	fmt.Printf("%s %s\n", green("Elapsed:"), yellow(result.Elapsed))
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().String("config", "", "Path to a YAML scan configuration file")
	scanCmd.Flags().StringSlice("whitelist", nil, "Package prefixes to include (repeatable, comma-separated)")
	scanCmd.Flags().StringSlice("blacklist", nil, "Package prefixes to exclude (repeatable, comma-separated)")
	scanCmd.Flags().Bool("blacklist-system-jars", false, "Skip classpath elements recognized as JRE/JDK system jars")
	scanCmd.Flags().Bool("add-nested-lib-jars", false, "Descend into Spring-Boot/WAR nested lib jars")
	scanCmd.Flags().Bool("strip-self-extracting-header", false, "Strip a self-extracting executable prefix before treating a file as a zip")
	scanCmd.Flags().Bool("create-classloader-for-matches", false, "Physically unzip matched inner package roots (e.g. BOOT-INF/classes) to temp directories")
	scanCmd.Flags().Int("workers", 4, "Number of concurrent classfile decode workers")
	scanCmd.Flags().BoolP("verbose", "v", false, "Show progress output")
}
