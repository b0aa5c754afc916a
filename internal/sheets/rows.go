package sheets

import (
	"context"
	"fmt"
	"strconv"

	"github.com/yukikurage/qa-tracker-api/internal/models"
)

const lastColumn = "J"

// Header is the fixed column order of the mirror sheet.
var Header = []interface{}{
	"ID", "Name", "Email", "Nickname", "Telegram",
	"DeviceType", "OS", "OSVersion", "RegistrationDate", "Status",
}

// TesterRow renders a tester in Header order.
func TesterRow(t models.Tester) []interface{} {
	return []interface{}{
		strconv.FormatUint(t.ID, 10),
		t.Name,
		t.Email,
		deref(t.Nickname),
		deref(t.Telegram),
		t.DeviceType,
		t.OS,
		deref(t.OSVersion),
		t.RegistrationDate.UTC().Format("2006-01-02T15:04:05Z"),
		string(t.Status),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func rowID(row []interface{}) string {
	if len(row) == 0 {
		return ""
	}
	return fmt.Sprint(row[0])
}

// Upsert writes every row to the store, replacing rows whose ID cell matches
// and appending the rest. The header is written when the sheet is empty.
func Upsert(ctx context.Context, store Store, rows [][]interface{}) error {
	existing, err := store.FetchAll(ctx)
	if err != nil {
		return err
	}

	index := make(map[string]int, len(existing))
	for i, row := range existing {
		if len(row) == 0 {
			continue
		}
		index[rowID(row)] = i + 1
	}

	var appends [][]interface{}
	if len(existing) == 0 {
		appends = append(appends, Header)
	}

	for _, row := range rows {
		if rowNumber, ok := index[rowID(row)]; ok {
			if err := store.UpdateRow(ctx, rowNumber, row); err != nil {
				return err
			}
			continue
		}
		appends = append(appends, row)
	}

	if len(appends) == 0 {
		return nil
	}
	return store.Append(ctx, appends)
}
