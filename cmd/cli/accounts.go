package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iho/branchledger/internal/adapter/http/dto"
)

func accountsCmd(opts *clientOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Account operations",
	}

	var req dto.CreateAccountRequest
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account seeded with the system chart",
		RunE: func(cmd *cobra.Command, args []string) error {
			var account dto.AccountResponse
			if err := opts.client().do(http.MethodPost, "/api/v1/accounts/", nil, req, &account); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), account)
		},
	}
	createCmd.Flags().StringVar(&req.Label, "label", "", "Account label")
	createCmd.Flags().StringVar(&req.BranchName, "branch", "", "Branch name")
	createCmd.Flags().StringVar(&req.Currency, "currency", "", "Currency code")
	createCmd.Flags().Int32Var(&req.DecimalPlaces, "decimals", 2, "Decimal places")
	_ = createCmd.MarkFlagRequired("label")

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			query.Set("limit", strconv.Itoa(limit))
			query.Set("offset", strconv.Itoa(offset))

			var resp dto.ListAccountsResponse
			if err := opts.client().do(http.MethodGet, "/api/v1/accounts/", query, nil, &resp); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tLABEL\tBRANCH\tLOCKED")
			for _, a := range resp.Accounts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", a.ID, truncate(a.Label, 30), a.BranchName, a.Locked)
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Offset")

	cmd.AddCommand(createCmd, listCmd)
	return cmd
}
