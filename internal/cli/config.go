package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/poddy/internal/config"
	"github.com/alnah/poddy/internal/lang"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/poddy/config ($XDG_CONFIG_HOME honored).
Each setting can also be provided by an environment variable; the file wins.
API keys are read from the environment only.

Supported settings:
` + settingsHelp(),
		Example: `  poddy config set language en-US
  poddy config set exit-phrases "goodbye,bye bye,stop"
  poddy config get voice-id
  poddy config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// settingsHelp renders one line per key with its environment variable.
func settingsHelp() string {
	var sb strings.Builder
	for _, key := range config.Keys() {
		fmt.Fprintf(&sb, "  %-15s %s (env: %s)\n", key, config.Help(key), config.EnvFor(key))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value. The value is validated before it is saved.

Supported settings:
` + settingsHelp(),
		Example: `  poddy config set llm-provider openai
  poddy config set on-mishear announce`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Print the effective value of a setting: the config file value,
else the environment variable, else the default.`,
		Example: `  poddy config get language`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List all configuration values",
		Long:    `List the effective value of every setting and where it comes from.`,
		Example: `  poddy config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	value = strings.TrimSpace(value)
	if err := config.Validate(key, value); err != nil {
		return err
	}

	// Key-specific validation.
	switch key {
	case config.KeyLanguage:
		if _, err := lang.Parse(value); err != nil {
			return err
		}
	}

	if err := config.Save(key, value); err != nil {
		return err
	}
	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	if !config.IsKey(key) {
		return config.Validate(key, "")
	}

	resolved, err := config.Resolve(env.Getenv)
	if err != nil {
		return err
	}
	for _, r := range resolved {
		if r.Key == key && r.Value != "" {
			fmt.Fprintln(env.Stdout, r.Value)
		}
	}
	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	resolved, err := config.Resolve(env.Getenv)
	if err != nil {
		return err
	}
	for _, r := range resolved {
		fmt.Fprintf(env.Stdout, "%s=%s (%s)\n", r.Key, r.Value, r.Source)
	}
	return nil
}
