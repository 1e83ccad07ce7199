// Copyright (c) 2026 StrataVault
// Strata - multi-tenant vault storage service
// This source code is licensed under the MIT license found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/stratavault/strata/internal/i18n"
	"github.com/stratavault/strata/internal/strata"
)

// newQuotaCmd builds the quota command group for inspecting and
// adjusting per-account limits.
func newQuotaCmd() *cobra.Command {
	quotaCmd := &cobra.Command{
		Use:   "quota",
		Short: "Inspect and adjust account quotas",
	}

	quotaCmd.AddCommand(&cobra.Command{
		Use:     "show <account>",
		Short:   "Show an account's limits and usage",
		Args:    cobra.ExactArgs(1),
		PreRunE: setupDefaultServices,
		RunE: func(cmd *cobra.Command, args []string) error {
			core, _, stop, err := buildCore()
			if err != nil {
				return err
			}
			defer stop()
			q, err := core.GetQuota(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("account:    %s\n", q.Account)
			if q.Unlimited {
				fmt.Println("limits:     unlimited")
				fmt.Printf("workspaces: %d used\n", q.WorkspaceUsed)
				fmt.Printf("slots:      %d used\n", q.SizeUsed)
				return nil
			}
			fmt.Printf("workspaces: %d / %d\n", q.WorkspaceUsed, q.WorkspaceLimit)
			fmt.Printf("slots:      %d / %d\n", q.SizeUsed, q.SizeLimit)
			return nil
		},
	})

	quotaCmd.AddCommand(quotaSetCmd("set-workspaces", "Set the workspace limit",
		func(core *strata.Core, account string, n int) (strata.Result, error) {
			return core.SetWorkspaceLimit(account, n)
		}))
	quotaCmd.AddCommand(quotaSetCmd("add-workspaces", "Raise the workspace limit",
		func(core *strata.Core, account string, n int) (strata.Result, error) {
			return core.AddWorkspaceLimit(account, n)
		}))
	quotaCmd.AddCommand(quotaSetCmd("remove-workspaces", "Lower the workspace limit",
		func(core *strata.Core, account string, n int) (strata.Result, error) {
			return core.RemoveWorkspaceLimit(account, n)
		}))
	quotaCmd.AddCommand(quotaSetCmd("set-slots", "Set the slot capacity limit",
		func(core *strata.Core, account string, n int) (strata.Result, error) {
			return core.SetSizeLimit(account, n)
		}))
	quotaCmd.AddCommand(quotaSetCmd("add-slots", "Raise the slot capacity limit",
		func(core *strata.Core, account string, n int) (strata.Result, error) {
			return core.AddSizeLimit(account, n)
		}))
	quotaCmd.AddCommand(quotaSetCmd("remove-slots", "Lower the slot capacity limit",
		func(core *strata.Core, account string, n int) (strata.Result, error) {
			return core.RemoveSizeLimit(account, n)
		}))

	quotaCmd.AddCommand(&cobra.Command{
		Use:     "unlimited <account> <on|off>",
		Short:   "Toggle the unlimited flag",
		Args:    cobra.ExactArgs(2),
		PreRunE: setupDefaultServices,
		RunE: func(cmd *cobra.Command, args []string) error {
			var on bool
			switch args[1] {
			case "on":
				on = true
			case "off":
				on = false
			default:
				return fmt.Errorf("expected on or off, got %q", args[1])
			}
			return runQuotaOp(args[0], func(core *strata.Core, account string) (strata.Result, error) {
				return core.SetUnlimited(account, on)
			})
		},
	})

	quotaCmd.AddCommand(&cobra.Command{
		Use:     "reset <account>",
		Short:   "Reset an account to the configured default limits",
		Args:    cobra.ExactArgs(1),
		PreRunE: setupDefaultServices,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuotaOp(args[0], func(core *strata.Core, account string) (strata.Result, error) {
				return core.ResetQuota(account, appConfig.Quota.WorkspaceLimit, appConfig.Quota.SizeLimit)
			})
		},
	})

	return quotaCmd
}

// quotaSetCmd builds one <verb> <account> <n> subcommand around a core
// quota operation.
func quotaSetCmd(use, short string, op func(*strata.Core, string, int) (strata.Result, error)) *cobra.Command {
	return &cobra.Command{
		Use:     use + " <account> <n>",
		Short:   short,
		Args:    cobra.ExactArgs(2),
		PreRunE: setupDefaultServices,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("expected a number, got %q", args[1])
			}
			return runQuotaOp(args[0], func(core *strata.Core, account string) (strata.Result, error) {
				return op(core, account, n)
			})
		},
	}
}

func runQuotaOp(account string, op func(*strata.Core, string) (strata.Result, error)) error {
	core, _, stop, err := buildCore()
	if err != nil {
		return err
	}
	defer stop()

	res, err := op(core, account)
	if err != nil {
		return err
	}
	if !res.OK {
		return fmt.Errorf("%s", i18n.T("reason."+string(res.Reason)))
	}
	fmt.Println(i18n.Tf("cli.quota.updated", map[string]any{"Account": account}))
	return nil
}
