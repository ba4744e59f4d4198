package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	assign "github.com/Gilibee-goode/SortaClassy/assign"
)

// configFilePath resolves which file the config subcommands operate on.
func configFilePath() string {
	if configPath != "" {
		return configPath
	}
	return DefaultConfigFile
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or edit the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set one configuration key and save the file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFilePath()
		cfg := assign.DefaultConfig()
		if _, err := os.Stat(path); err == nil {
			loaded, err := assign.LoadConfig(path)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := assign.SaveConfig(path, cfg); err != nil {
			return err
		}
		fmt.Printf("%s = %s saved to %s\n", args[0], args[1], path)
		return nil
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Write the built-in defaults to the configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFilePath()
		if err := assign.SaveConfig(path, assign.DefaultConfig()); err != nil {
			return err
		}
		fmt.Printf("Defaults written to %s\n", path)
		return nil
	},
}

var configStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report where the configuration comes from",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configFilePath()
		if _, err := os.Stat(path); err != nil {
			fmt.Printf("%s: not present (built-in defaults active)\n", path)
			return nil
		}
		if _, err := assign.LoadConfig(path); err != nil {
			fmt.Printf("%s: present but invalid: %v\n", path, err)
			return err
		}
		fmt.Printf("%s: present and valid\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd, configResetCmd, configStatusCmd)
	rootCmd.AddCommand(configCmd)
}
