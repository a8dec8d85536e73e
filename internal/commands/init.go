package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-templify/pkg/output"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Scaffold a templify project with a config, data file, and example template",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite existing files without asking")
}

const scaffoldConfig = `# templify generation config
globals:
  project: my-project

templates:
  - name: docs
    folder: templates/docs
    output: generated

flatten_data: true

# manual_sections:
#   start_marker: MANUAL SECTION START
#   end_marker: MANUAL SECTION END

# format:
#   enabled: true
#   formatters:
#     "*.go":
#       type: command
#       command: gofmt
`

const scaffoldData = `{
  "name": "World"
}
`

const scaffoldTemplate = `Hello, {{ name }}!

<!-- MANUAL SECTION START: notes -->
Keep your notes here; regeneration will not touch them.
<!-- MANUAL SECTION END -->
`

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	sink := output.NewStyled(cmd.OutOrStdout(), flagVerbose)

	files := []struct {
		path    string
		content string
	}{
		{filepath.Join(dir, "config.yaml"), scaffoldConfig},
		{filepath.Join(dir, "data.json"), scaffoldData},
		{filepath.Join(dir, "templates", "docs", "greeting.md.j2"), scaffoldTemplate},
	}

	for _, f := range files {
		ok, err := confirmOverwrite(f.path)
		if err != nil {
			return err
		}
		if !ok {
			sink.Verbose(fmt.Sprintf("kept existing %s", f.path))
			continue
		}
		if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
			return fmt.Errorf("commands: create directory for %q: %w", f.path, err)
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("commands: write %q: %w", f.path, err)
		}
		sink.Info(f.path)
	}

	sink.Success("project scaffolded")
	sink.Step("edit config.yaml and data.json, then run: templify generate")
	return nil
}

// confirmOverwrite asks before clobbering an existing file unless --force
// was given. A missing file never prompts.
func confirmOverwrite(path string) (bool, error) {
	if initForce {
		return true, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, fmt.Errorf("commands: stat %q: %w", path, err)
	}

	overwrite := false
	prompt := &survey.Confirm{
		Message: fmt.Sprintf("%s already exists. Overwrite?", path),
		Default: false,
	}
	if err := survey.AskOne(prompt, &overwrite); err != nil {
		return false, fmt.Errorf("commands: prompt: %w", err)
	}
	return overwrite, nil
}
