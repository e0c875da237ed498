package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	classgraph "github.com/classgraph/classgraph-go"
	"github.com/classgraph/classgraph-go/internal/diagnostics"
	"github.com/fatih/color"
	sarif "github.com/owenrumney/go-sarif/v2/sarif"
	"github.com/spf13/cobra"
)

// queryKinds lists the accepted --kind values; runQuery maps each to the
// Query method it drives. Every entry but all-classes takes a single class/interface/annotation name as
// its subject, passed via --name.
var queryKinds = []string{
	"all-classes",
	"classes-with-annotation",
	"classes-implementing",
	"subclasses-of",
	"superclasses-of",
	"subinterfaces-of",
	"superinterfaces-of",
}

var queryCmd = &cobra.Command{
	Use:   "query [classpath-element ...]",
	Short: "Scan a classpath and run one relation query over the result",
	Long: `Query scans the given classpath the same way "scan" does, then runs
a single named relation query over the resulting graph.

Examples:
  classgraph query --kind all-classes ./build/classes
  classgraph query --kind classes-implementing --name java.io.Serializable app.jar
  classgraph query --kind subclasses-of --name com.acme.Widget --output sarif app.jar`,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		name, _ := cmd.Flags().GetString("name")
		output, _ := cmd.Flags().GetString("output")
		whitelist, _ := cmd.Flags().GetStringSlice("whitelist")
		blacklist, _ := cmd.Flags().GetStringSlice("blacklist")

		if !validQueryKind(kind) {
			return fmt.Errorf("unknown --kind %q (want one of %v)", kind, queryKinds)
		}
		if kind != "all-classes" && name == "" {
			return fmt.Errorf("--kind %s requires --name", kind)
		}
		if len(args) == 0 {
			return fmt.Errorf("no classpath elements given")
		}

		log := diagnostics.New(diagnostics.LevelDefault)
		scanner := classgraph.NewScanner(log)
		if len(whitelist) > 0 {
			scanner.Whitelist(whitelist...)
		}
		if len(blacklist) > 0 {
			scanner.Blacklist(blacklist...)
		}

		result, err := scanner.Scan(context.Background(), args...)
		if err != nil {
			if reporter != nil {
				reporter.ReportScanFailed()
			}
			return fmt.Errorf("scan failed: %w", err)
		}
		if reporter != nil {
			reporter.ReportScanCompleted(telemetryCounts(result))
		}

		names, infos := runQuery(result.Query, kind, name)
		sort.Strings(names)

		switch output {
		case "json":
			return printJSON(names)
		case "sarif":
			return printSARIF(kind, name, infos)
		default:
			printText(names)
			return nil
		}
	},
}

// runQuery dispatches on kind, returning both the plain name list (for
// text/json output) and the ClassInfo records available for it (for SARIF,
// which wants Origin.RelPath as the artifact location; relation queries
// over ancestor/descendant names only have no backing ClassInfo and leave
// infos nil).
func runQuery(q *classgraph.Query, kind, name string) ([]string, []*classgraph.ClassInfo) {
	switch kind {
	case "all-classes":
		return q.AllClassNames(), nil
	case "classes-with-annotation":
		infos := q.ClassesWithAnnotation(name)
		return classInfoNames(infos), infos
	case "classes-implementing":
		infos := q.ClassesImplementing(name)
		return classInfoNames(infos), infos
	case "subclasses-of":
		return q.SubclassesOf(name), nil
	case "superclasses-of":
		return q.SuperclassesOf(name), nil
	case "subinterfaces-of":
		return q.SubinterfacesOf(name), nil
	case "superinterfaces-of":
		return q.SuperinterfacesOf(name), nil
	default:
		return nil, nil
	}
}

func classInfoNames(infos []*classgraph.ClassInfo) []string {
	names := make([]string, len(infos))
	for i, ci := range infos {
		names[i] = ci.Name
	}
	return names
}

func validQueryKind(kind string) bool {
	for _, k := range queryKinds {
		if k == kind {
			return true
		}
	}
	return false
}

func printText(names []string) {
	cyan := color.New(color.FgCyan).SprintFunc()
	if len(names) == 0 {
		fmt.Println("(no matches)")
		return
	}
	for _, n := range names {
		fmt.Println(cyan(n))
	}
}

func printJSON(names []string) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(names)
}

// printSARIF emits one rule (the query itself) and one result per ClassInfo
// in infos. Kinds for which runQuery returns no infos (all-classes and the
// four ancestor/descendant kinds) produce a run with the rule and no
// results. Classfiles carry no line/column info, so each result's location
// is the archive-relative path the class was decoded from, with no region.
func printSARIF(kind, name string, infos []*classgraph.ClassInfo) error {
	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return err
	}
	run := sarif.NewRunWithInformationURI("classgraph", "https://github.com/classgraph/classgraph-go")

	ruleID := kind
	if name != "" {
		ruleID = fmt.Sprintf("%s(%s)", kind, name)
	}
	run.AddRule(ruleID).
		WithDescription(fmt.Sprintf("classgraph query: %s", ruleID)).
		WithName(kind)

	for _, ci := range infos {
		uri := ci.Name
		if ci.Origin.RelPath != "" {
			uri = ci.Origin.RelPath
		}
		result := run.CreateResultForRule(ruleID).
			WithMessage(sarif.NewTextMessage(ci.Name))
		location := sarif.NewLocation().
			WithPhysicalLocation(
				sarif.NewPhysicalLocation().
					WithArtifactLocation(sarif.NewArtifactLocation().WithUri(uri)),
			)
		result.AddLocation(location)
	}

	report.AddRun(run)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().String("kind", "", fmt.Sprintf("Query to run: one of %v", queryKinds))
	queryCmd.Flags().String("name", "", "Subject class/interface/annotation name (not used by all-classes)")
	queryCmd.Flags().StringP("output", "o", "text", "Output format: text, json, or sarif")
	queryCmd.Flags().StringSlice("whitelist", nil, "Package prefixes to include (repeatable, comma-separated)")
	queryCmd.Flags().StringSlice("blacklist", nil, "Package prefixes to exclude (repeatable, comma-separated)")
}
