package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tree-builder/internal/service"
	"github.com/tree-builder/pkg/compression"
	"github.com/tree-builder/pkg/config"
	"github.com/tree-builder/pkg/model"
)

var (
	// Build command flags
	inputFiles    []string
	idField       string
	parentField   string
	childrenField string
	buildMode     string
	outputFormat  string
	outputPath    string
	prettyJSON    bool
	cyclePolicy   string
	uploadKey     string
	sourceType    string
	sourceTable   string
	sourceWhere   string
	sourceOrderBy string
	sourceKey     string
	workers       int
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Link flat records into a forest",
	Long: `Build loads flat records, links every record under the record whose id
equals its parent field and writes the resulting forest.

Records without a parent field, or whose parent is missing, become roots.
Parent cycles are rejected unless --cycles keep is given, in which case the
records of a cycle are linked to each other but left out of the output.

Build modes:
  - map    : keep the records as maps and nest children under the children field (default)
  - fields : decode the records and link them through named fields
  - node   : decode the records into typed nodes and link them

Output formats:
  - text : indented tree, one record per line (default)
  - json : nested JSON
  - gzip : gzip compressed nested JSON
  - zstd : zstd compressed nested JSON

With more than one --input the builds run in parallel and --output names a
directory.`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	binName := BinName()
	buildCmd.Example = `  # Print a menu table exported as JSON
  ` + binName + ` build -i ./menus.json --id menuId --parent parentMenuId

  # Write pretty JSON with children under "subMenus"
  ` + binName + ` build -i ./menus.yaml --children subMenus --format json --pretty -o ./tree.json

  # Build several files at once into ./out
  ` + binName + ` build -i a.json -i b.yaml.gz --format zstd -o ./out

  # Read a table, keeping records that sit in cycles out of the tree
  ` + binName + ` build --source-type database --table sys_menu --where "deleted = 0" --cycles keep`

	flags := buildCmd.Flags()

	// Input flags
	flags.StringArrayVarP(&inputFiles, "input", "i", nil, "Input file (JSON or YAML, optionally .gz/.zst); repeatable")
	flags.StringVar(&sourceType, "source-type", "", "Source type: file, database, storage")
	flags.StringVar(&sourceTable, "table", "", "Table to read (database source)")
	flags.StringVar(&sourceWhere, "where", "", "SQL condition applied to the table (database source)")
	flags.StringVar(&sourceOrderBy, "order-by", "", "SQL ordering applied to the table (database source)")
	flags.StringVar(&sourceKey, "key", "", "Object key to read (storage source)")

	// Tree flags
	flags.StringVar(&idField, "id", "", "Identifier field (default \"id\")")
	flags.StringVar(&parentField, "parent", "", "Parent identifier field (default \"parent\")")
	flags.StringVar(&childrenField, "children", "", "Field receiving the children (default \"children\")")
	flags.StringVarP(&buildMode, "mode", "m", "", "Build mode: map, fields, node")
	flags.StringVar(&cyclePolicy, "cycles", "", "Cycle policy: reject, keep")

	// Output flags
	flags.StringVarP(&outputFormat, "format", "f", "", "Output format: text, json, gzip, zstd")
	flags.StringVarP(&outputPath, "output", "o", "", "Output file, or directory with several inputs (default: stdout)")
	flags.BoolVar(&prettyJSON, "pretty", false, "Indent JSON output")
	flags.StringVar(&uploadKey, "upload", "", "Upload the output to this storage key (a key prefix with several inputs)")
	flags.IntVarP(&workers, "workers", "w", 0, "Parallel builds with several inputs")
}

func runBuild(cmd *cobra.Command, args []string) error {
	log := GetLogger()

	applyBuildFlags(cmd.Flags(), cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	base, err := service.RequestFromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := service.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	if len(inputFiles) <= 1 {
		result, err := svc.Run(ctx, base)
		if err != nil {
			return err
		}
		printResult(result)
		return nil
	}

	reqs := batchRequests(base, inputFiles)
	results, err := svc.RunBatch(ctx, reqs)
	for _, result := range results {
		if result != nil {
			printResult(result)
		}
	}
	return err
}

// applyBuildFlags copies the flags given on the command line over cfg.
func applyBuildFlags(flags *pflag.FlagSet, cfg *config.Config) {
	set := func(name string, dst *string, value string) {
		if flags.Changed(name) {
			*dst = value
		}
	}

	if len(inputFiles) > 0 {
		cfg.Source.Type = config.SourceFile
		cfg.Source.Path = inputFiles[0]
	}
	set("source-type", &cfg.Source.Type, sourceType)
	set("table", &cfg.Source.Table, sourceTable)
	set("where", &cfg.Source.Where, sourceWhere)
	set("order-by", &cfg.Source.OrderBy, sourceOrderBy)
	set("key", &cfg.Source.Key, sourceKey)

	set("id", &cfg.Tree.Fields.ID, idField)
	set("parent", &cfg.Tree.Fields.Parent, parentField)
	set("children", &cfg.Tree.Fields.Children, childrenField)
	set("mode", &cfg.Tree.Mode, buildMode)
	set("cycles", &cfg.Tree.CyclePolicy, cyclePolicy)

	set("format", &cfg.Output.Format, outputFormat)
	set("output", &cfg.Output.Path, outputPath)
	set("upload", &cfg.Output.UploadKey, uploadKey)
	if flags.Changed("pretty") {
		cfg.Output.Pretty = prettyJSON
	}
	if flags.Changed("workers") {
		cfg.Batch.Workers = workers
	}
}

// batchRequests derives one request per input from base. The output path and
// upload key of base are used as a directory and a key prefix.
func batchRequests(base service.Request, inputs []string) []service.Request {
	reqs := make([]service.Request, 0, len(inputs))
	for _, input := range inputs {
		req := base
		req.Name = input
		req.Source.Type = config.SourceFile
		req.Source.Path = input

		name := outputName(input, base.Output.Format)
		if base.Output.Path != "" {
			req.Output.Path = filepath.Join(base.Output.Path, name)
		}
		if base.Output.UploadKey != "" {
			req.Output.UploadKey = path.Join(base.Output.UploadKey, name)
		}
		reqs = append(reqs, req)
	}
	return reqs
}

// outputName names the output of input: menus.yaml.gz becomes menus.json.zst
// for zstd output and menus.txt for text output.
func outputName(input, format string) string {
	name := filepath.Base(input)
	name = strings.TrimSuffix(name, compression.TypeFromPath(name).Extension())
	name = strings.TrimSuffix(name, filepath.Ext(name))

	switch format {
	case config.OutputJSON:
		return name + ".json"
	case config.OutputGzip:
		return name + ".json" + compression.TypeGzip.Extension()
	case config.OutputZstd:
		return name + ".json" + compression.TypeZstd.Extension()
	default:
		return name + ".txt"
	}
}

func printResult(result *model.BuildResult) {
	log := GetLogger()
	log.Info("%s: %d records, %d roots, depth %d (%v)",
		result.Name, result.Stats.Records, result.Stats.Roots, result.Stats.Depth, result.Duration)
	if n := result.Stats.Detached(); n > 0 {
		log.Warn("%s: %d records left out of the tree by parent cycles", result.Name, n)
	}
	if result.OutputPath != "" {
		log.Info("  Output: %s", result.OutputPath)
	}
	if result.RemoteKey != "" {
		log.Info("  Uploaded: %s", result.RemoteKey)
	}
}
