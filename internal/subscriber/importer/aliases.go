package importer

import "strings"

type Field string

const (
	FieldCode            Field = "subscriber_code"
	FieldName            Field = "name"
	FieldPhone           Field = "phone"
	FieldArea            Field = "area"
	FieldAddress         Field = "address"
	FieldServiceProvider Field = "service_provider"
	FieldMonthlyFee      Field = "monthly_fee"
	FieldConnectionDate  Field = "connection_date"
	FieldStatus          Field = "status"
)

// aliases lists, per field, the accepted header spellings in priority order.
var aliases = []struct {
	field   Field
	headers []string
}{
	{FieldCode, []string{"Subscriber_Id", "Subscriber Id", "Subscriber Code", "Code"}},
	{FieldName, []string{"Name", "Subscriber Name", "Customer Name"}},
	{FieldPhone, []string{"Mobile", "Phone", "Phone Number", "Mobile Number", "Contact"}},
	{FieldArea, []string{"Area", "Locality", "Zone"}},
	{FieldAddress, []string{"Address"}},
	{FieldServiceProvider, []string{"Service", "Service Provider", "Provider"}},
	{FieldMonthlyFee, []string{"Monthly Fee", "Fee", "Monthly_Fee", "Amount"}},
	{FieldConnectionDate, []string{"Connection Date", "Connected On"}},
	{FieldStatus, []string{"Status"}},
}

// normalizeHeader folds case and treats runs of spaces and underscores as
// a single separator.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.Join(strings.FieldsFunc(h, func(r rune) bool {
		return r == ' ' || r == '_' || r == '\t'
	}), " ")
}

// resolveColumns maps each field to the column index of its first matching
// alias. Fields with no matching header are absent from the result.
func resolveColumns(header []string) map[Field]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeHeader(h)
		if _, dup := index[key]; !dup && key != "" {
			index[key] = i
		}
	}

	cols := make(map[Field]int, len(aliases))
	for _, a := range aliases {
		for _, alias := range a.headers {
			if i, ok := index[normalizeHeader(alias)]; ok {
				cols[a.field] = i
				break
			}
		}
	}
	return cols
}
