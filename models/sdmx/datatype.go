package sdmx

// DataType is the semantic value type of a component or concept, named
// after the SDMX 2.1 facet text types.
type DataType string

const (
	DTypeString             DataType = "String"
	DTypeAlpha              DataType = "Alpha"
	DTypeAlphaNumeric       DataType = "AlphaNumeric"
	DTypeNumeric            DataType = "Numeric"
	DTypeBigInteger         DataType = "BigInteger"
	DTypeInteger            DataType = "Integer"
	DTypeLong               DataType = "Long"
	DTypeShort              DataType = "Short"
	DTypeDecimal            DataType = "Decimal"
	DTypeFloat              DataType = "Float"
	DTypeDouble             DataType = "Double"
	DTypeBoolean            DataType = "Boolean"
	DTypeURI                DataType = "URI"
	DTypeCount              DataType = "Count"
	DTypeInclusiveRange     DataType = "InclusiveValueRange"
	DTypeExclusiveRange     DataType = "ExclusiveValueRange"
	DTypeIncremental        DataType = "Incremental"
	DTypePeriod             DataType = "ObservationalTimePeriod"
	DTypeStandardPeriod     DataType = "StandardTimePeriod"
	DTypeBasicPeriod        DataType = "BasicTimePeriod"
	DTypeGregorianPeriod    DataType = "GregorianTimePeriod"
	DTypeYear               DataType = "GregorianYear"
	DTypeYearMonth          DataType = "GregorianYearMonth"
	DTypeDay                DataType = "GregorianDay"
	DTypeReportingPeriod    DataType = "ReportingTimePeriod"
	DTypeReportingYear      DataType = "ReportingYear"
	DTypeReportingSemester  DataType = "ReportingSemester"
	DTypeReportingTrimester DataType = "ReportingTrimester"
	DTypeReportingQuarter   DataType = "ReportingQuarter"
	DTypeReportingMonth     DataType = "ReportingMonth"
	DTypeReportingWeek      DataType = "ReportingWeek"
	DTypeReportingDay       DataType = "ReportingDay"
	DTypeDateTime           DataType = "DateTime"
	DTypeTimeRange          DataType = "TimeRange"
	DTypeMonth              DataType = "Month"
	DTypeMonthDay           DataType = "MonthDay"
	DTypeDayOfMonth         DataType = "Day"
	DTypeTime               DataType = "Time"
	DTypeDuration           DataType = "Duration"
	DTypeGeo                DataType = "GeospatialInformation"
	DTypeXHTML              DataType = "XHTML"
)

// ParseDataType maps a facet textType attribute to a DataType. Unknown or
// empty values fall back to String, which is what the standard prescribes
// for unconstrained free text.
func ParseDataType(s string) DataType {
	switch DataType(s) {
	case DTypeAlpha, DTypeAlphaNumeric, DTypeNumeric, DTypeBigInteger,
		DTypeInteger, DTypeLong, DTypeShort, DTypeDecimal, DTypeFloat,
		DTypeDouble, DTypeBoolean, DTypeURI, DTypeCount,
		DTypeInclusiveRange, DTypeExclusiveRange, DTypeIncremental,
		DTypePeriod, DTypeStandardPeriod, DTypeBasicPeriod,
		DTypeGregorianPeriod, DTypeYear, DTypeYearMonth, DTypeDay,
		DTypeReportingPeriod, DTypeReportingYear, DTypeReportingSemester,
		DTypeReportingTrimester, DTypeReportingQuarter, DTypeReportingMonth, DTypeReportingWeek,
		DTypeReportingDay, DTypeDateTime, DTypeTimeRange, DTypeMonth,
		DTypeMonthDay, DTypeDayOfMonth, DTypeTime, DTypeDuration,
		DTypeGeo, DTypeXHTML:
		return DataType(s)
	default:
		return DTypeString
	}
}

// Facets constrain the lexical space of a component's values. A nil
// *Facets means the representation declared none.
type Facets struct {
	MinLength  int      `json:"minLength,omitempty"`
	MaxLength  int      `json:"maxLength,omitempty"`
	MinValue   *float64 `json:"minValue,omitempty"`
	MaxValue   *float64 `json:"maxValue,omitempty"`
	StartValue *float64 `json:"startValue,omitempty"`
	EndValue   *float64 `json:"endValue,omitempty"`
	Decimals   int      `json:"decimals,omitempty"`
	Pattern    string   `json:"pattern,omitempty"`
	IsSequence bool     `json:"isSequence,omitempty"`
}

// Empty reports whether no facet value is set.
func (f *Facets) Empty() bool {
	if f == nil {
		return true
	}
	return f.MinLength == 0 && f.MaxLength == 0 && f.MinValue == nil &&
		f.MaxValue == nil && f.StartValue == nil && f.EndValue == nil &&
		f.Decimals == 0 && f.Pattern == "" && !f.IsSequence
}

// ArrayDef bounds the number of values of a multi-valued component.
type ArrayDef struct {
	MinSize int `json:"minSize"`
	MaxSize int `json:"maxSize"`
}
