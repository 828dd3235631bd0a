package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/erlorenz/bc-go/internal/constants"
	"github.com/erlorenz/bc-go/pkg/bc"
	"github.com/erlorenz/bc-go/pkg/bcclient"
	"github.com/erlorenz/bc-go/pkg/retry"
	"github.com/erlorenz/bc-go/pkg/schema"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// queryFlags holds the OData query options shared by read commands.
type queryFlags struct {
	filter  string
	selects []string
	expand  []string
	orderBy string
	top     int
	skip    int
}

func (q *queryFlags) register(cmd *cobra.Command, listing bool) {
	cmd.Flags().StringSliceVar(&q.selects, "select", nil, "properties to return")
	cmd.Flags().StringSliceVar(&q.expand, "expand", nil, "navigation properties to expand")

	if !listing {
		return
	}

	cmd.Flags().StringVar(&q.filter, "filter", "", "OData $filter expression")
	cmd.Flags().StringVar(&q.orderBy, "orderby", "", "OData $orderby expression")
	cmd.Flags().IntVar(&q.top, "top", 0, "OData $top")
	cmd.Flags().IntVar(&q.skip, "skip", 0, "OData $skip")
}

func (q *queryFlags) params() *bc.QueryParams {
	params := bc.NewQueryParams().
		WithFilter(q.filter).
		WithOrderBy(q.orderBy).
		WithTop(q.top).
		WithSkip(q.skip)

	if len(q.selects) > 0 {
		params.WithSelect(q.selects...)
	}

	if len(q.expand) > 0 {
		params.WithExpand(q.expand...)
	}

	return params
}

// payloadFlags reads a request body from --data or --file.
type payloadFlags struct {
	data string
	file string
}

func (p *payloadFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.data, "data", "d", "", "JSON object payload")
	cmd.Flags().StringVarP(&p.file, "file", "f", "", "JSON or YAML file containing the payload")
}

func (p *payloadFlags) payload() (Record, error) {
	raw := []byte(p.data)

	if p.file != "" {
		// #nosec G304 -- the user names the file to send
		content, err := os.ReadFile(p.file)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file: %w", err)
		}

		raw = content
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, constants.ErrInvalidPayload
	}

	// Accepts JSON or YAML.
	var payload Record
	if err := yaml.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", constants.ErrInvalidPayload, err)
	}

	if payload == nil {
		return nil, constants.ErrInvalidPayload
	}

	return payload, nil
}

func recordPage(c bc.Client, endpoint string) bc.ResourcePage[Record] {
	return bcclient.Resource[Record](c, endpoint, schema.Struct[Record]())
}

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	var (
		query      queryFlags
		maxResults int
		pageSize   int
		columns    []string
	)

	cmd := &cobra.Command{
		Use:   "list ENDPOINT",
		Short: "List records of an endpoint",
		Long:  "List records of a company-scoped endpoint, following server-driven paging",
		Example: `  bc list customers --filter "balance gt 0" --select number,displayName
  bc list salesInvoices --max 20 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			page := recordPage(s.client, args[0])
			opts := &bc.PaginationOptions{MaxResults: maxResults, ServerPageSize: pageSize}

			records, err := retry.Do(cmd.Context(), s.retry, func(ctx context.Context) ([]Record, error) {
				return bc.Collect(page.List(ctx, query.params(), opts))
			})
			if err != nil {
				return err
			}

			return writeRecords(cmd.OutOrStdout(), s.settings.Output, records, columns)
		},
	}

	query.register(cmd, true)
	cmd.Flags().IntVar(&maxResults, "max", 0, "maximum number of records (0 for all)")
	cmd.Flags().IntVar(&pageSize, "page-size", constants.StandardPageSize, "preferred server page size (0 to omit)")
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "table columns (default all)")

	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var query queryFlags

	cmd := &cobra.Command{
		Use:   "get ENDPOINT ID",
		Short: "Get a record by id",
		Long:  "Display a single record of an endpoint",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			page := recordPage(s.client, args[0])

			record, err := retry.Do(cmd.Context(), s.retry, func(ctx context.Context) (*Record, error) {
				return page.Get(ctx, args[1], query.params())
			})
			if err != nil {
				return err
			}

			return writeRecord(cmd.OutOrStdout(), s.settings.Output, *record)
		},
	}

	query.register(cmd, false)

	return cmd
}

// NewFindCommand creates the find command.
func NewFindCommand() *cobra.Command {
	var query queryFlags

	cmd := &cobra.Command{
		Use:     "find ENDPOINT",
		Short:   "Find the first matching record",
		Long:    "Display the first record matching the query, if any",
		Example: `  bc find customers --filter "number eq '10000'"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			page := recordPage(s.client, args[0])

			record, err := retry.Do(cmd.Context(), s.retry, func(ctx context.Context) (*Record, error) {
				return page.FindOne(ctx, query.params())
			})
			if err != nil {
				return err
			}

			if record == nil {
				if s.settings.Output == constants.FormatTable {
					fmt.Fprintln(cmd.OutOrStdout(), "No matching record found.")

					return nil
				}

				return writeOutput(cmd.OutOrStdout(), s.settings.Output, nil, nil)
			}

			return writeRecord(cmd.OutOrStdout(), s.settings.Output, *record)
		},
	}

	query.register(cmd, true)

	return cmd
}

// NewCreateCommand creates the create command.
func NewCreateCommand() *cobra.Command {
	var payload payloadFlags

	cmd := &cobra.Command{
		Use:     "create ENDPOINT",
		Short:   "Create a record",
		Long:    "Create a record from a JSON or YAML payload",
		Example: `  bc create customers -d '{"displayName":"Adatum"}'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := payload.payload()
			if err != nil {
				return err
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			page := recordPage(s.client, args[0])

			// Not idempotent; never retried.
			record, err := page.Create(cmd.Context(), body)
			if err != nil {
				return err
			}

			return writeRecord(cmd.OutOrStdout(), s.settings.Output, *record)
		},
	}

	payload.register(cmd)

	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	var payload payloadFlags

	cmd := &cobra.Command{
		Use:   "update ENDPOINT ID",
		Short: "Update a record",
		Long:  "Apply a partial update to a record from a JSON or YAML payload",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := payload.payload()
			if err != nil {
				return err
			}

			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			page := recordPage(s.client, args[0])

			record, err := retry.Do(cmd.Context(), s.retry, func(ctx context.Context) (*Record, error) {
				return page.Update(ctx, args[1], body)
			})
			if err != nil {
				return err
			}

			return writeRecord(cmd.OutOrStdout(), s.settings.Output, *record)
		},
	}

	payload.register(cmd)

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ENDPOINT ID",
		Short: "Delete a record",
		Long:  "Delete a record by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			page := recordPage(s.client, args[0])

			_, err = retry.Do(cmd.Context(), s.retry, func(ctx context.Context) (struct{}, error) {
				return struct{}{}, page.Delete(ctx, args[1])
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s(%s)\n", args[0], args[1])

			return nil
		},
	}
}

// NewActionCommand creates the action command.
func NewActionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "action ENDPOINT ID ACTION",
		Short:   "Invoke a bound action",
		Long:    "Invoke a bound action such as post or send on a record",
		Example: `  bc action salesInvoices 5d115c9c-44e3-ea11-bb43-000d3a2feca1 post`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd)
			if err != nil {
				return err
			}

			page := recordPage(s.client, args[0])

			// Not idempotent; never retried.
			if err := page.Action(cmd.Context(), args[1], args[2]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Invoked %s on %s(%s)\n", args[2], args[0], args[1])

			return nil
		},
	}
}
