package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func configCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the server configuration",
	}

	var show bool
	check := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration file and exit",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts, c.Flags().Changed("config"))
			if err != nil {
				return err
			}
			out := c.OutOrStdout()
			fmt.Fprintf(out, "configuration OK (%s)\n", opts.configPath)
			if !show {
				return nil
			}

			// Never echo secrets.
			redacted := *cfg
			if redacted.MQTT.Auth.Password != "" {
				redacted.MQTT.Auth.Password = "***"
			}
			if redacted.InfluxDB.Token != "" {
				redacted.InfluxDB.Token = "***"
			}
			data, err := yaml.Marshal(&redacted)
			if err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			_, err = out.Write(data)
			return err
		},
	}
	check.Flags().BoolVar(&show, "show", false, "print the effective configuration with secrets redacted")

	cmd.AddCommand(check)
	return cmd
}
