// Package cmd provides the root command and CLI setup for scaffold.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"scaffold.dev/pkg/scaffold/internal/adapter"
	"scaffold.dev/pkg/scaffold/internal/controller"
	"scaffold.dev/pkg/scaffold/internal/domain"
	m "scaffold.dev/pkg/scaffold/internal/model"
)

const (
	exitOK        = 0
	exitFailure   = 1
	exitConflicts = 2
)

var (
	branchFlag   string
	dirtyFlag    bool
	templateFlag string
)

var answerStore adapter.AnswerStore = adapter.NewYAMLAnswerStore()

const rootLongDescription = `Scaffold generates a new project from a template repository.

REPOSITORY is a local directory or a git URL (https, ssh, git, file or
user@host:path). The template may carry a .scaffold.json descriptor with
questions and file filters. Files whose first lines contain {{ }} markers,
and file or directory names containing them, are rendered with handlebars.

TARGET defaults to ./<repository name> and must be missing or empty.

Exit status is 0 on success, 2 when several files resolved to the same target
and 1 on any other error.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "scaffold REPOSITORY [TARGET]",
		Short:        "Generate a project from a handlebars template repository",
		Long:         rootLongDescription,
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configureLogger(cmd.ErrOrStderr(), viper.GetBool(logVerboseKey))
		},
		RunE: runScaffold,
	}

	configureRootFlags(cmd)

	return cmd
}

// configureRootFlags declares the run flags. Flag defaults are the built-in
// ones; scaffold.yaml and SCAFFOLD_* values reach the run through viper.
func configureRootFlags(cmd *cobra.Command) {
	flags := cmd.Flags()

	flags.StringVarP(&branchFlag, branchFlagName, "b", "", "branch to clone from the template repository")
	flags.BoolVar(&dirtyFlag, dirtyFlagName, false, "copy a local repository with its uncommitted changes instead of cloning it")
	flags.StringVarP(&templateFlag, templateFlagName, "t", "", "render this subdirectory of the repository")

	flags.Bool(noHistoryFlagName, false, "do not copy the template history into the target")
	bindFlagToConfig(flags.Lookup(noHistoryFlagName), noHistoryKey)

	flags.Bool(noInitFlagName, false, "with --no-history, do not initialize a repository either")
	bindFlagToConfig(flags.Lookup(noInitFlagName), noInitKey)

	flags.Bool(ignoreChecksFlagName, false, "include files whose condition fails to evaluate and keep questions with invalid defaults")
	bindFlagToConfig(flags.Lookup(ignoreChecksFlagName), ignoreChecksKey)

	flags.Bool(dryRunFlagName, false, "plan the render and report it without writing files")
	bindFlagToConfig(flags.Lookup(dryRunFlagName), dryRunKey)

	flags.String(answersFlagName, "", "YAML file with preset answers")
	bindFlagToConfig(flags.Lookup(answersFlagName), answersFileKey)

	flags.Bool(defaultsFlagName, false, "accept question defaults without prompting")
	bindFlagToConfig(flags.Lookup(defaultsFlagName), answersDefaultsKey)

	flags.IntP(parallelismFlagName, "p", defaultParallelism, "number of render workers (0 picks one from the CPU count)")
	bindFlagToConfig(flags.Lookup(parallelismFlagName), parallelismKey)

	cmd.PersistentFlags().BoolP(verboseFlagName, "v", defaultLogVerbose, "print the answer context and conflict diffs, log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

func toolConfig() m.ToolConfig {
	return m.ToolConfig{
		Template:        templateFlag,
		NoHistory:       viper.GetBool(noHistoryKey),
		NoInit:          viper.GetBool(noInitKey),
		IgnoreChecks:    viper.GetBool(ignoreChecksKey),
		DryRun:          viper.GetBool(dryRunKey),
		Verbose:         viper.GetBool(logVerboseKey),
		Parallelism:     viper.GetInt(parallelismKey),
		InspectMaxLines: viper.GetInt(inspectMaxLinesKey),
		UseDefaults:     viper.GetBool(answersDefaultsKey),
	}
}

func loadPresets() (map[string]any, error) {
	path := strings.TrimSpace(viper.GetString(answersFileKey))
	if path == "" {
		return nil, nil
	}

	return answerStore.Load(m.Path(path))
}

func runScaffold(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := toolConfig()

	presets, err := loadPresets()
	if err != nil {
		return err
	}

	req := domain.ScaffoldRequest{
		Repository: args[0],
		Fetch:      m.FetchOptions{Branch: branchFlag, Dirty: dirtyFlag},
		Config:     cfg,
		Presets:    presets,
	}

	if len(args) > 1 {
		req.Target = args[1]
	}

	ui := controller.NewUI(cmd, controller.IsTTY(cmd.OutOrStdout()))
	fsAdapter := adapter.NewLocalSourceFSAdapter()
	engine := domain.NewRenderEngine(fsAdapter, adapter.NewNamingEvaluator(), adapter.NewContentEvaluator(), ui)
	workflow := domain.NewWorkflow(fsAdapter, adapter.NewLocalGitAdapter(), adapter.NewSurveyPrompter(), engine)

	if err := ui.Start(ctx); err != nil {
		return err
	}

	result, err := workflow.Scaffold(ctx, req)

	ui.Close(ctx)

	if cfg.Verbose && len(result.Answers.Data()) > 0 {
		ui.DisplayContext(ctx, result.Answers)
	}

	if err == nil || errors.Is(err, domain.ErrConflicts) {
		ui.DisplayResult(ctx, result, controller.ReportOptions{Verbose: cfg.Verbose, DryRun: cfg.DryRun})
	}

	return err
}

// exitCode maps the outcome of a run to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrConflicts):
		return exitConflicts
	default:
		return exitFailure
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := rootCmd.ExecuteContext(ctx)

	stop()
	os.Exit(exitCode(err))
}
