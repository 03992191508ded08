package importer

// TemplateHeader is the header row of the downloadable import template.
var TemplateHeader = []string{"Subscriber_Id", "Name", "Mobile", "Area", "Address", "Monthly Fee", "Connection Date", "Status"}

var templateExample = []string{"SUB-20240101-001", "Anil Kumar", "9876543210", "Kakkanad", "12 Temple Road", "450", "2024-01-01", "active"}

// TemplateCSV returns the static import template: header plus one example row.
func TemplateCSV() []byte {
	out, err := ToCSV(TemplateHeader, [][]string{templateExample})
	if err != nil {
		panic(err)
	}
	return out
}
