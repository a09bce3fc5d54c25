package deltadb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/deltacheats/internal/common"
	"github.com/dmitrijs2005/deltacheats/internal/dbx"
)

type tableColumns struct {
	table   string
	columns []string
}

var requiredSchema = []tableColumns{
	{table: "ZGAME", columns: []string{"Z_PK", "ZIDENTIFIER", "ZNAME"}},
	{table: "ZCHEAT", columns: []string{
		"Z_PK", "Z_ENT", "Z_OPT", "ZISENABLED", "ZGAME", "ZCREATIONDATE",
		"ZMODIFIEDDATE", "ZCODE", "ZIDENTIFIER", "ZNAME", "ZTYPE",
	}},
}

// ValidateSchema checks that db has the game and cheat tables with every
// column the adapter reads or writes.
func ValidateSchema(ctx context.Context, db dbx.DBTX) error {
	for _, tc := range requiredSchema {
		cols, err := dbx.Collect(ctx, db, func(rows *sql.Rows) (string, error) {
			var name string
			err := rows.Scan(&name)
			return strings.ToUpper(name), err
		}, `SELECT name FROM pragma_table_info(?)`, tc.table)
		if err != nil {
			return fmt.Errorf("%w: %v", common.ErrSchema, err)
		}
		if len(cols) == 0 {
			return fmt.Errorf("%w: missing table %s", common.ErrSchema, tc.table)
		}

		present := make(map[string]struct{}, len(cols))
		for _, c := range cols {
			present[c] = struct{}{}
		}
		for _, want := range tc.columns {
			if _, ok := present[want]; !ok {
				return fmt.Errorf("%w: table %s has no column %s", common.ErrSchema, tc.table, want)
			}
		}
	}
	return nil
}
