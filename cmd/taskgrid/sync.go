package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hy4ri/taskgrid/internal/auth"
	"github.com/hy4ri/taskgrid/internal/cloud"
)

const syncTimeout = 2 * time.Minute

var errSyncNotConfigured = errors.New("sync is not configured: set sync.client_id in the config file")

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Manage the Google Drive backup",
	}
	cmd.AddCommand(syncLoginCmd())
	cmd.AddCommand(syncLogoutCmd())
	cmd.AddCommand(syncPushCmd())
	cmd.AddCommand(syncPullCmd())
	cmd.AddCommand(syncStatusCmd())
	return cmd
}

// withSync runs fn with configured sync services and a bounded context.
func withSync(fn func(ctx context.Context, svc *services) error) error {
	svc, err := setup()
	if err != nil {
		return err
	}
	defer svc.Close()
	if svc.source == nil {
		return errSyncNotConfigured
	}

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()
	return fn(ctx, svc)
}

func syncLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with Google",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSync(func(ctx context.Context, svc *services) error {
				signIn := auth.SignIn(svc.flow(cmd.OutOrStdout()), svc.source)
				if err := svc.cloud.Login(ctx, signIn); err != nil {
					return fmt.Errorf("sign-in failed: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed in.")
				return nil
			})
		},
	}
}

func syncLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSync(func(ctx context.Context, svc *services) error {
				if err := svc.cloud.Disconnect(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Signed out. The backup stays in Drive.")
				return nil
			})
		},
	}
}

func syncPushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "push",
		Short: "Upload the local state now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSync(func(ctx context.Context, svc *services) error {
				if err := connect(ctx, svc); err != nil {
					return err
				}
				at, err := svc.cloud.PushNow(ctx, svc.store.State())
				if err != nil {
					return fmt.Errorf("push failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backup written at %s\n", at)
				return nil
			})
		},
	}
}

func syncPullCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pull",
		Short: "Merge the backup into the local state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSync(func(ctx context.Context, svc *services) error {
				if err := connect(ctx, svc); err != nil {
					return err
				}
				merged, err := svc.cloud.Restore(ctx, svc.store.State(), true)
				if err != nil {
					return fmt.Errorf("pull failed: %w", err)
				}
				if merged == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "No backup found.")
					return nil
				}
				svc.store.ReplaceState(*merged)
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %d tasks and %d projects\n", len(merged.Tasks), len(merged.Projects))
				return nil
			})
		},
	}
}

func syncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the sync status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := setup()
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
			defer cancel()
			svc.cloud.Init(ctx)
			status := svc.cloud.Status()
			fmt.Fprintf(cmd.OutOrStdout(), "Status: %s\n", status)
			if status.Detail != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Detail: %s\n", status.Detail)
			}
			return nil
		},
	}
}

// connect validates the stored credentials.
func connect(ctx context.Context, svc *services) error {
	svc.cloud.Init(ctx)
	status := svc.cloud.Status()
	if status.State != cloud.StateConnected {
		if !status.Authenticated {
			return errors.New("not signed in: run 'taskgrid sync login'")
		}
		return fmt.Errorf("sync unavailable: %s", status)
	}
	return nil
}
