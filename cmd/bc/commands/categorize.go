package commands

import (
	"github.com/erlorenz/bc-go/pkg/bc"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Classification is one row of categorize output.
type Classification struct {
	Code          string           `json:"code,omitempty" yaml:"code,omitempty"`
	Category      bc.Category      `json:"category"       yaml:"category"`
	RetryStrategy bc.RetryStrategy `json:"retryStrategy"  yaml:"retryStrategy"`
}

// NewCategorizeCommand creates the categorize command.
func NewCategorizeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categorize [CODE...]",
		Short: "Look up the category of vendor error codes",
		Long: `Show the category and retry strategy assigned to vendor error codes.
Without arguments, the full category taxonomy is listed.`,
		Example: `  bc categorize Internal_RecordNotFound BadRequest_Unknown`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := classify(args)
			showCode := len(args) > 0

			return writeOutput(cmd.OutOrStdout(), viper.GetString("output"), rows, func(table *tablewriter.Table) {
				if showCode {
					table.Header("Code", "Category", "Retry Strategy")
				} else {
					table.Header("Category", "Retry Strategy")
				}

				for _, row := range rows {
					if showCode {
						_ = table.Append(row.Code, string(row.Category), string(row.RetryStrategy))
					} else {
						_ = table.Append(string(row.Category), string(row.RetryStrategy))
					}
				}
			})
		},
	}
}

func classify(codes []string) []Classification {
	if len(codes) == 0 {
		categories := bc.Categories()
		rows := make([]Classification, 0, len(categories))

		for _, category := range categories {
			rows = append(rows, Classification{
				Category:      category,
				RetryStrategy: bc.StrategyFor(category),
			})
		}

		return rows
	}

	rows := make([]Classification, 0, len(codes))

	for _, code := range codes {
		result := bc.Categorize(code)
		rows = append(rows, Classification{
			Code:          code,
			Category:      result.Category,
			RetryStrategy: result.RetryStrategy,
		})
	}

	return rows
}
