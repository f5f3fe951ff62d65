package redshift

import (
	"strings"

	"github.com/bruin-data/tap-redshift/pkg/catalog"
	"github.com/samber/lo"
)

// Column is a single column as reported by information_schema.
type Column struct {
	Name       string
	NativeType string
	Nullable   bool
}

var (
	stringTypes = []string{"char", "character", "nchar", "bpchar", "text", "varchar", "character varying", "nvarchar"}

	bytesForIntegerType = map[string]int{
		"int2": 2,
		"int":  4,
		"int4": 4,
		"int8": 8,
	}

	floatTypes    = []string{"float", "float4", "float8", "numeric"}
	dateTimeTypes = []string{"timestamp", "timestamptz", "timestamp without time zone", "timestamp with time zone"}
)

const (
	boolType     = "bool"
	dateType     = "date"
	geometryType = "geometry"
)

func IsDateTimeType(nativeType string) bool {
	return lo.Contains(dateTimeTypes, strings.ToLower(nativeType))
}

// SchemaForColumn maps a native column type to its JSON schema. Unknown types are marked unsupported
// instead of failing, and nullable columns additionally accept null.
func SchemaForColumn(c Column) *catalog.Schema {
	nativeType := strings.ToLower(c.NativeType)
	result := &catalog.Schema{Inclusion: catalog.InclusionAvailable}

	switch {
	case nativeType == boolType:
		result.Type = catalog.Types{catalog.TypeBoolean}
	case bytesForIntegerType[nativeType] > 0:
		bits := bytesForIntegerType[nativeType] * 8
		result.Type = catalog.Types{catalog.TypeInteger}
		result.Minimum = lo.ToPtr(int64(-1) << (bits - 1))
		result.Maximum = lo.ToPtr(int64(uint64(1)<<(bits-1) - 1))
	case lo.Contains(floatTypes, nativeType):
		result.Type = catalog.Types{catalog.TypeNumber}
	case lo.Contains(stringTypes, nativeType):
		result.Type = catalog.Types{catalog.TypeString}
	case lo.Contains(dateTimeTypes, nativeType):
		result.Type = catalog.Types{catalog.TypeString}
		result.Format = catalog.FormatDateTime
	case nativeType == dateType:
		result.Type = catalog.Types{catalog.TypeString}
		result.Format = catalog.FormatDate
	case nativeType == geometryType:
		result.Type = catalog.Types{catalog.TypeString}
		result.Format = catalog.FormatGeometry
	default:
		result = &catalog.Schema{
			Inclusion:   catalog.InclusionUnsupported,
			Description: "Unsupported column type " + nativeType,
		}
	}

	if c.Nullable {
		result.Type = append(catalog.Types{catalog.TypeNull}, result.Type...)
	}

	return result
}
