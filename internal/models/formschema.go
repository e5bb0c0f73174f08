package models

import "time"

// FormInput is a single field definition within a service report form.
type FormInput struct {
	Name  string `json:"name"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// FormRow groups inputs rendered together on the report form.
type FormRow struct {
	Inputs []FormInput `json:"inputs"`
}

// ServiceFormSchema drives both annexure table shape and report rendering
// for one verification service.
type ServiceFormSchema struct {
	ServiceID    string    `db:"service_id" json:"service_id"`
	DBTable      string    `db:"db_table" json:"db_table"`
	Heading      string    `db:"heading" json:"heading"`
	Rows         []FormRow `db:"-" json:"rows"`
	RawRows      []byte    `db:"rows" json:"-"`
	ExcelSorting int       `db:"excel_sorting" json:"excel_sorting"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// FieldNames returns every input name in form order.
func (s *ServiceFormSchema) FieldNames() []string {
	var names []string
	for _, row := range s.Rows {
		for _, input := range row.Inputs {
			if input.Name != "" {
				names = append(names, input.Name)
			}
		}
	}
	return names
}

// FileFields returns the input names whose type marks an attachment.
func (s *ServiceFormSchema) FileFields() []string {
	var names []string
	for _, row := range s.Rows {
		for _, input := range row.Inputs {
			if input.Type == "file" && input.Name != "" {
				names = append(names, input.Name)
			}
		}
	}
	return names
}
