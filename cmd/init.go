package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a default scaffold.yaml configuration file",
		Long: `Create a scaffold.yaml in the current working directory populated with the
current defaults (render workers, inspected lines, git handling, logging) so it
can be edited manually. Every key can also be set through SCAFFOLD_* variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targetPath := filepath.Join(configFolderPath, configFileName)

			if err := viper.SafeWriteConfigAs(targetPath); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}

			abs, err := filepath.Abs(targetPath)
			if err != nil {
				abs = targetPath
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (render workers %d, inspected lines %d)\n",
				abs, viper.GetInt(parallelismKey), viper.GetInt(inspectMaxLinesKey))

			return nil
		},
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
}
