// Package main is the entry point for the taskgrid application.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hy4ri/taskgrid/internal/auth"
	"github.com/hy4ri/taskgrid/internal/reminder"
	"github.com/hy4ri/taskgrid/internal/router"
	"github.com/hy4ri/taskgrid/internal/tui"
)

// Version is set at build time.
var Version = "dev"

const longHelp = `taskgrid - a keyboard driven task manager with a calendar

KEYBINDINGS:
    Navigation:
        j/k         Move down/up
        gg/G        Go to top/bottom
        Ctrl+d/u    Half page down/up
        Tab         Switch between sidebar and tasks
        Enter       Open
        Esc         Go back

    Task Actions:
        n           New task
        e           Edit selected task
        x           Complete/uncomplete task
        dd          Delete task
        1-3         Set priority

    Other:
        Ctrl+k      Search tasks
        ?           Show help
        q           Quit

Configuration lives in ~/.config/taskgrid/config.yaml. Run 'taskgrid init'
to create a template.`

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var route string
	cmd := &cobra.Command{
		Use:           "taskgrid",
		Short:         "Terminal task manager with calendar and Drive backup",
		Long:          longHelp,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(route)
		},
	}
	cmd.Flags().StringVarP(&route, "route", "r", "", `Initial screen, e.g. "#/today" or "/project/inbox"`)

	cmd.AddCommand(initCmd())
	cmd.AddCommand(exportCmd())
	cmd.AddCommand(importCmd())
	cmd.AddCommand(syncCmd())
	cmd.AddCommand(versionCmd())
	return cmd
}

// runApp starts the main TUI application.
func runApp(location string) error {
	svc, err := setup()
	if err != nil {
		return err
	}
	defer svc.Close()

	if location == "" {
		location = svc.cfg.UI.DefaultRoute
	}
	initial := router.Parse(location)
	svc.logger.Info("starting", zap.String("version", Version), zap.String("route", initial.String()))

	deps := tui.Deps{
		Store:      svc.store,
		Cloud:      svc.cloud,
		Translator: svc.tr,
		Config:     svc.cfg,
		Clock:      svc.clock,
		Logger:     svc.logger,
		Notifier:   reminder.BeeepNotifier{},
	}
	if svc.source != nil {
		// The terminal belongs to the UI while the browser is open.
		flow := svc.flow(nil)
		deps.SignIn = auth.SignIn(flow, svc.source)
	}

	app := tui.NewApp(deps, initial)
	defer app.Close()

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taskgrid version %s\n", Version)
		},
	}
}
