package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/branchledger/internal/adapter/http/dto"
)

func importCmd(opts *clientOptions) *cobra.Command {
	var destination int64

	cmd := &cobra.Command{
		Use:   "import <account-id> <file.csv>",
		Short: "Import entries from a CSV listing",
		Long: `Import entries from a CSV file with a header row. Recognized columns are
entry_number, date, ledger, debit, credit, narration, entry_type and tag.
Rows sharing an entry number form one entry; the destination ledger absorbs
any imbalance.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			rows, err := readImportRows(f)
			if err != nil {
				return err
			}

			var resp dto.ImportResponse
			req := dto.ImportRequest{DestinationLedgerID: destination, Rows: rows}
			if err := opts.client().do(http.MethodPost, "/api/v1/accounts/"+args[0]+"/entries/import", nil, req, &resp); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries from %d rows (%d balancing items added)\n",
				len(resp.Entries), len(rows), resp.SynthesizedItems)
			return nil
		},
	}
	cmd.Flags().Int64Var(&destination, "destination", 0, "Ledger that balances each entry")
	_ = cmd.MarkFlagRequired("destination")

	return cmd
}

var importColumns = map[string]string{
	"entrynumber": "entryNumber",
	"number":      "entryNumber",
	"date":        "date",
	"ledger":      "ledger",
	"debit":       "debit",
	"credit":      "credit",
	"narration":   "narration",
	"entrytype":   "entryType",
	"type":        "entryType",
	"tag":         "tag",
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.NewReplacer("_", "", " ", "", "-", "").Replace(h)
	return importColumns[h]
}

// readImportRows parses a CSV listing into import rows. Line numbers in
// errors count the header as line 1.
func readImportRows(r io.Reader) ([]dto.ImportRowRequest, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, h := range header {
		if name := normalizeHeader(h); name != "" {
			columns[name] = i
		}
	}
	if _, ok := columns["ledger"]; !ok {
		return nil, errors.New("csv header must include a ledger column")
	}

	var rows []dto.ImportRowRequest
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row := dto.ImportRowRequest{
			EntryNumber: field("entryNumber"),
			Ledger:      field("ledger"),
			Narration:   field("narration"),
			EntryType:   field("entryType"),
			Tag:         field("tag"),
		}
		if row.Ledger == "" {
			continue
		}
		if s := field("date"); s != "" {
			t, err := dto.ParseDate(s)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			row.Date = &dto.Date{Time: t}
		}
		if row.Debit, err = parseAmount(field("debit")); err != nil {
			return nil, fmt.Errorf("line %d: debit: %w", line, err)
		}
		if row.Credit, err = parseAmount(field("credit")); err != nil {
			return nil, fmt.Errorf("line %d: credit: %w", line, err)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, errors.New("csv has no rows")
	}
	return rows, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
