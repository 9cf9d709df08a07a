package commands

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/hydroline/watertrace/config"
	"github.com/hydroline/watertrace/errors"
)

// ConfigCmd represents the config command
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage watertrace configuration",
	Long: `config - Show or initialize configuration

Configuration lives at ~/.watertrace/config.toml and can be overridden with
WATERTRACE_* environment variables. Every value has a default, so a missing
file is not an error.

Examples:
  watertrace config show
  watertrace config init
  watertrace config init --force`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE:  runConfigInit,
}

var configForceFlag bool

func init() {
	configInitCmd.Flags().BoolVar(&configForceFlag, "force", false, "Overwrite an existing configuration file")
	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configInitCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "load configuration")
	}

	out, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal configuration")
	}
	fmt.Printf("# %s\n%s", config.ConfigPath(), out)
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.ConfigPath()
	if err := config.WriteDefault(path, configForceFlag); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
