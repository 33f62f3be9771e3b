package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/filebrowser-go/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration after all overrides",
		RunE:  runConfigShow,
	}
}

// configShowOutput is the JSON schema for `config show --json`.
type configShowOutput struct {
	ConfigPath        string `json:"config_path"`
	ServerURL         string `json:"server_url"`
	StorageBackend    string `json:"storage_backend"`
	StoragePath       string `json:"storage_path"`
	RenewBefore       string `json:"renew_before"`
	KeepaliveInterval string `json:"keepalive_interval"`
	LogLevel          string `json:"log_level"`
	LogFormat         string `json:"log_format"`
	ConnectTimeout    string `json:"connect_timeout"`
	DataTimeout       string `json:"data_timeout"`
	MaxRetries        int    `json:"max_retries"`
	UserAgent         string `json:"user_agent"`
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := cliContextFrom(cmd.Context())
	r := cc.Cfg

	if !cc.Flags.JSON {
		return config.RenderEffective(r, cmd.OutOrStdout())
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(configShowOutput{
		ConfigPath:        r.ConfigPath,
		ServerURL:         r.ServerURL,
		StorageBackend:    r.StorageBackend,
		StoragePath:       r.StoragePath,
		RenewBefore:       r.RenewBefore.String(),
		KeepaliveInterval: r.KeepaliveInterval.String(),
		LogLevel:          r.LogLevel,
		LogFormat:         r.LogFormat,
		ConnectTimeout:    r.ConnectTimeout.String(),
		DataTimeout:       r.DataTimeout.String(),
		MaxRetries:        r.MaxRetries,
		UserAgent:         r.UserAgent,
	})
}
