package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hy4ri/taskgrid/internal/config"
	"github.com/hy4ri/taskgrid/internal/merge"
	"github.com/hy4ri/taskgrid/internal/storage"
)

const configTemplate = `# taskgrid configuration
# Location: ~/.config/taskgrid/config.yaml

ui:
  # "24h" or "12h"; used by new installs, change it later with the 't' key
  time_format: "24h"
  locale: "en"
  # Rows per hour in the week view (1-8)
  hour_height: 2
  default_route: "#/calendar"
  vim_mode: true

notifications:
  # Desktop notifications for reminders; in-app banners otherwise
  native: true

sync:
  # Google Drive backup. Create a desktop OAuth client at
  # https://console.cloud.google.com/apis/credentials
  # client_id: ""
  # client_secret: ""
  # backup_folder_id: ""
  backup_file_name: "taskgrid-backup"
  redirect_port: 8765

log:
  level: "info"
`

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a template config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return createConfigTemplate(cmd.InOrStdin(), cmd.OutOrStdout(), force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config without asking")
	return cmd
}

// createConfigTemplate creates a template configuration file.
func createConfigTemplate(in io.Reader, out io.Writer, force bool) error {
	path, err := config.ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(path); err == nil && !force {
		fmt.Fprintf(out, "Config file already exists: %s\n", path)
		fmt.Fprint(out, "Overwrite? [y/N]: ")

		response, _ := bufio.NewReader(in).ReadString('\n')
		if r := strings.TrimSpace(response); r != "y" && r != "Y" {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(out, "Config file created: %s\n\n", path)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Add sync.client_id and sync.client_secret to enable Drive backup")
	fmt.Fprintln(out, "  2. Run 'taskgrid sync login'")
	fmt.Fprintln(out, "  3. Run 'taskgrid' to start")
	return nil
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [file]",
		Short: "Write the state document to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := setup()
			if err != nil {
				return err
			}
			defer svc.Close()

			data, err := storage.Encode(svc.store.State())
			if err != nil {
				return err
			}
			if len(args) == 0 || args[0] == "-" {
				_, err := cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(args[0], data, 0600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d tasks and %d projects to %s\n",
				len(svc.store.State().Tasks), len(svc.store.State().Projects), args[0])
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Merge a state document into the local state",
		Long: `Merge a state document into the local state. Records present on both
sides keep the most recently updated version. With --replace the local state
is discarded instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read import: %w", err)
			}
			incoming, err := storage.Decode(data)
			if err != nil {
				return err
			}

			svc, err := setup()
			if err != nil {
				return err
			}
			defer svc.Close()

			next := incoming
			if !replace {
				next = merge.State(svc.store.State(), incoming)
			}
			svc.store.ReplaceState(next)
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %d tasks, %d projects\n",
				args[0], len(next.Tasks), len(next.Projects))
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the local state instead of merging")
	return cmd
}
