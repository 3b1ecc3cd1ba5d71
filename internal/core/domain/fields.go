package domain

// FieldNotFound is the marker value for contract fields the document
// does not mention. Absence is explicit, never an omitted key.
const FieldNotFound = "not found"

// Field is a single extracted contract field.
type Field struct {
	// Value is the extracted text, or FieldNotFound.
	Value string `json:"value"`

	// Page is the page the value was found on (0 when not found).
	Page int `json:"page,omitempty"`

	// Found reports whether the document mentions this field.
	Found bool `json:"found"`
}

// FieldSet is the fixed schema of key information extracted from a
// contract. The field set is enumerated rather than an open-ended map
// so that absence is explicit and checkable.
type FieldSet struct {
	RentAmount      Field `json:"rent_amount"`
	LeaseDuration   Field `json:"lease_duration"`
	SecurityDeposit Field `json:"security_deposit"`
	PaymentDueDate  Field `json:"payment_due_date"`
	LateFee         Field `json:"late_fee"`
	PetPolicy       Field `json:"pet_policy"`
	Maintenance     Field `json:"maintenance"`
	Termination     Field `json:"termination"`
	Utilities       Field `json:"utilities"`
	Parking         Field `json:"parking"`
}

// NamedField pairs a field with its schema name for iteration.
type NamedField struct {
	Name  string
	Field Field
}

// Fields returns all fields in schema order.
func (s *FieldSet) Fields() []NamedField {
	return []NamedField{
		{"rent_amount", s.RentAmount},
		{"lease_duration", s.LeaseDuration},
		{"security_deposit", s.SecurityDeposit},
		{"payment_due_date", s.PaymentDueDate},
		{"late_fee", s.LateFee},
		{"pet_policy", s.PetPolicy},
		{"maintenance", s.Maintenance},
		{"termination", s.Termination},
		{"utilities", s.Utilities},
		{"parking", s.Parking},
	}
}

// Normalize fills in FieldNotFound for every field the generation
// provider omitted or left empty. Missing fields are never fatal.
func (s *FieldSet) Normalize() {
	for _, f := range []*Field{
		&s.RentAmount, &s.LeaseDuration, &s.SecurityDeposit,
		&s.PaymentDueDate, &s.LateFee, &s.PetPolicy,
		&s.Maintenance, &s.Termination, &s.Utilities, &s.Parking,
	} {
		if f.Value == "" {
			f.Value = FieldNotFound
			f.Found = false
			f.Page = 0
		}
	}
}
