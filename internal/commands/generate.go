package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-templify"
	"github.com/goliatone/go-templify/pkg/config"
	"github.com/goliatone/go-templify/pkg/engine/pongo"
	"github.com/goliatone/go-templify/pkg/iteration"
	"github.com/goliatone/go-templify/pkg/output"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render every enabled template set from the generation config",
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	defaults := projectDefaults()

	cfgPath := resolveConfigPath(flagConfig, defaults)
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	baseDir := filepath.Dir(cfgPath)

	data, err := loadData(defaults)
	if err != nil {
		return err
	}

	extra, err := cfg.ResolveExtraData(baseDir)
	if err != nil {
		return err
	}

	sink := output.NewStyled(cmd.OutOrStdout(), flagVerbose)

	renderer, err := pongo.New()
	if err != nil {
		return err
	}
	if len(cfg.Globals) > 0 {
		// Config globals ride on the engine so every set and every
		// iteration run sees them under `globals`.
		if err := renderer.GlobalContext(map[string]any{"globals": cfg.Globals}); err != nil {
			return err
		}
	}
	eval := iteration.NewEvaluator(renderer)

	outBase := flagOutput
	if outBase == "" {
		outBase = defaults.GetString("output")
	}
	if outBase == "" {
		outBase = baseDir
	}

	ctx := cmd.Context()
	ran := 0
	for _, set := range cfg.Templates {
		if !set.IsEnabled() {
			sink.Verbose(fmt.Sprintf("template set %q disabled", set.Name))
			continue
		}
		if !setSelected(set.Name, flagInclude, flagExclude) {
			sink.Verbose(fmt.Sprintf("template set %q filtered out", set.Name))
			continue
		}

		base := buildContext(cfg, data, extra)
		runs := []map[string]any{base}
		if set.Iterate != "" {
			bindings, err := iteration.Parse(set.Iterate)
			if err != nil {
				return fmt.Errorf("commands: template set %q: %w", set.Name, err)
			}
			runs, err = expandIteration(eval, base, bindings)
			if err != nil {
				return fmt.Errorf("commands: template set %q: %w", set.Name, err)
			}
		}

		folder := joinIfRelative(baseDir, set.Folder)
		outDir := joinIfRelative(outBase, set.Output)

		sink.Step(fmt.Sprintf("template set %q (%d run(s))", set.Name, len(runs)))
		for _, runData := range runs {
			helper, err := templify.New(runData,
				templify.WithSink(sink),
				templify.WithEngine(renderer),
				templify.WithMarkers(cfg.ManualSections.Markers()),
				templify.WithFormatter(cfg.Format),
				templify.WithDryRun(flagDryRun),
				templify.WithKeepGoing(flagKeepGoing),
			)
			if err != nil {
				return err
			}
			if err := helper.Generate(ctx, folder, outDir); err != nil {
				return fmt.Errorf("commands: template set %q: %w", set.Name, err)
			}
		}
		ran++
	}

	if ran == 0 {
		sink.Info("no template sets matched")
		return nil
	}
	sink.Success(fmt.Sprintf("generated %d template set(s)", ran))
	return nil
}

// loadData reads the data file named by the --data flag or the project
// defaults. The file must hold a top-level mapping.
func loadData(defaults *viper.Viper) (map[string]any, error) {
	dataPath := flagData
	if dataPath == "" {
		dataPath = defaults.GetString("data")
	}
	if dataPath == "" {
		return map[string]any{}, nil
	}

	raw, err := config.LoadDataFile(dataPath)
	if err != nil {
		return nil, err
	}
	dict, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("commands: data file %q must hold a mapping, got %T", dataPath, raw)
	}
	return dict, nil
}

// buildContext assembles the dictionary for one generation run: the data
// file under `dd` (and flattened to the top level unless disabled) plus
// extra data entries by key. Config globals are engine-level and not
// part of the per-run dictionary.
func buildContext(cfg *config.Config, data, extra map[string]any) map[string]any {
	dict := map[string]any{}
	if cfg.FlattenEnabled() {
		for k, v := range data {
			dict[k] = v
		}
	}
	dict["dd"] = data
	for k, v := range extra {
		dict[k] = v
	}
	return dict
}

// expandIteration turns a binding chain into one dictionary per item
// combination, each with the loop variables bound at the top level.
func expandIteration(eval *iteration.Evaluator, base map[string]any, bindings []iteration.Binding) ([]map[string]any, error) {
	if len(bindings) == 0 {
		return []map[string]any{base}, nil
	}

	items, err := eval.Items(base, bindings[0])
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for _, item := range items {
		scoped := make(map[string]any, len(base)+1)
		for k, v := range base {
			scoped[k] = v
		}
		scoped[bindings[0].Var] = item

		expanded, err := expandIteration(eval, scoped, bindings[1:])
		if err != nil {
			return nil, err
		}
		out = append(out, expanded...)
	}
	return out, nil
}

func joinIfRelative(base, p string) string {
	if p == "" {
		return base
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
