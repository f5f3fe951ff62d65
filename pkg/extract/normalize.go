package extract

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/bruin-data/tap-redshift/pkg/catalog"
	"github.com/bruin-data/tap-redshift/pkg/date"
	"github.com/jackc/pgx/v5/pgtype"
)

// normalizeValue converts a driver value into something the record encoder writes losslessly.
func normalizeValue(v any, format string) any {
	switch val := v.(type) {
	case time.Time:
		if format == catalog.FormatDate {
			return date.FormatDate(val)
		}
		return date.FormatDateTime(val)
	case pgtype.Numeric:
		return normalizeNumeric(val)
	case []byte:
		return string(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case float32:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil
		}
		return val
	default:
		return v
	}
}

func normalizeNumeric(n pgtype.Numeric) any {
	buf, err := n.MarshalJSON()
	if err != nil || string(buf) == "null" {
		return nil
	}

	if unquoted, err := strconv.Unquote(string(buf)); err == nil {
		return unquoted
	}
	return json.Number(buf)
}

// bookmarkValue renders a normalized record value the way it is stored in state.
func bookmarkValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprint(v)
}
