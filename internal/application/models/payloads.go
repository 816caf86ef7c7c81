package models

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"

	dErrors "barangaylink/pkg/domain-errors"
)

// Payload schemas. One struct per document type mirrors the submission form:
// values arrive as strings (multipart form data) and stay strings in storage;
// the validate tags enforce format at the boundary. Unknown keys are dropped
// during canonicalization so the store only ever sees schema fields.

var validate = validator.New()

type clearancePayload struct {
	FullName         string `json:"full_name" validate:"required,max=255"`
	Email            string `json:"email" validate:"required,email,max=255"`
	Phone            string `json:"phone" validate:"required,max=20"`
	Address          string `json:"address" validate:"required"`
	BirthDate        string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	Age              string `json:"age" validate:"required,number"`
	Sex              string `json:"sex" validate:"required,oneof=male female"`
	CivilStatus      string `json:"civil_status" validate:"required,oneof=single married widowed divorced separated"`
	YearsOfResidency string `json:"years_of_residency" validate:"required,number"`
	Barangay         string `json:"barangay" validate:"required,max=255"`
	Purpose          string `json:"purpose" validate:"required"`
}

type businessPermitPayload struct {
	BusinessName          string `json:"business_name" validate:"required,max=255"`
	BusinessType          string `json:"business_type" validate:"required,oneof=sole-proprietorship partnership corporation"`
	BusinessCategory      string `json:"business_category" validate:"required,max=100"`
	BusinessCategoryOther string `json:"business_category_other,omitempty" validate:"omitempty,max=100"`
	BusinessDescription   string `json:"business_description" validate:"required,max=1000"`
	OwnerName             string `json:"owner_name" validate:"required,max=255"`
	OwnerEmail            string `json:"owner_email" validate:"required,email,max=255"`
	OwnerPhone            string `json:"owner_phone" validate:"required,max=20"`
	OwnerAddress          string `json:"owner_address" validate:"required,max=500"`
	BusinessAddress       string `json:"business_address" validate:"required,max=500"`
	Barangay              string `json:"barangay" validate:"required,max=100"`
	LotNumber             string `json:"lot_number,omitempty" validate:"omitempty,max=50"`
	FloorArea             string `json:"floor_area" validate:"required,numeric"`
}

type buildingPermitPayload struct {
	ProjectType        string `json:"project_type" validate:"required,max=255"`
	ProjectScope       string `json:"project_scope" validate:"required,oneof=residential commercial industrial"`
	ProjectDescription string `json:"project_description" validate:"required"`
	LotArea            string `json:"lot_area,omitempty" validate:"omitempty,numeric"`
	FloorArea          string `json:"floor_area,omitempty" validate:"omitempty,numeric"`
	NumberOfFloors     string `json:"number_of_floors" validate:"required,number"`
	EstimatedCost      string `json:"estimated_cost" validate:"required,numeric"`
	OwnerName          string `json:"owner_name" validate:"required,max=255"`
	OwnerEmail         string `json:"owner_email" validate:"required,email,max=255"`
	OwnerPhone         string `json:"owner_phone" validate:"required,max=20"`
	OwnerAddress       string `json:"owner_address" validate:"required"`
	PropertyAddress    string `json:"property_address" validate:"required"`
	Barangay           string `json:"barangay" validate:"required,max=255"`
}

type cedulaPayload struct {
	FullName    string `json:"full_name" validate:"required,max=255"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Phone       string `json:"phone" validate:"required,max=20"`
	Address     string `json:"address" validate:"required,max=500"`
	BirthDate   string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	CivilStatus string `json:"civil_status" validate:"required,oneof=single married widowed separated"`
	Citizenship string `json:"citizenship" validate:"required,max=100"`
	Occupation  string `json:"occupation" validate:"required,max=255"`
	TinNumber   string `json:"tin_number,omitempty" validate:"omitempty,max=50"`
	Height      string `json:"height" validate:"required,numeric"`
	HeightUnit  string `json:"height_unit" validate:"required,oneof=cm in ft"`
	Weight      string `json:"weight" validate:"required,numeric"`
	WeightUnit  string `json:"weight_unit" validate:"required,oneof=kg lbs"`
}

type goodMoralPayload struct {
	FullName         string `json:"full_name" validate:"required,max=255"`
	Email            string `json:"email" validate:"required,email,max=255"`
	Phone            string `json:"phone" validate:"required,max=20"`
	Address          string `json:"address" validate:"required"`
	BirthDate        string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	Age              string `json:"age" validate:"required,number"`
	Sex              string `json:"sex" validate:"required,oneof=male female"`
	CivilStatus      string `json:"civil_status" validate:"required,oneof=single married widowed divorced separated"`
	Barangay         string `json:"barangay" validate:"required,max=255"`
	YearsOfResidency string `json:"years_of_residency" validate:"required,number"`
	Occupation       string `json:"occupation,omitempty" validate:"omitempty,max=255"`
	Purpose          string `json:"purpose" validate:"required"`
}

type residencyPayload struct {
	FullName         string `json:"full_name" validate:"required,max=255"`
	Email            string `json:"email" validate:"required,email,max=255"`
	Phone            string `json:"phone" validate:"required,max=20"`
	Address          string `json:"address" validate:"required"`
	BirthDate        string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	CivilStatus      string `json:"civil_status" validate:"required,oneof=single married widowed divorced separated"`
	Barangay         string `json:"barangay" validate:"required,max=255"`
	YearsOfResidency string `json:"years_of_residency" validate:"required,number"`
	Purpose          string `json:"purpose" validate:"required"`
}

type indigencyPayload struct {
	FullName      string `json:"full_name" validate:"required,max=255"`
	Email         string `json:"email" validate:"required,email,max=255"`
	Phone         string `json:"phone" validate:"required,max=20"`
	Address       string `json:"address" validate:"required"`
	BirthDate     string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	Age           string `json:"age" validate:"required,number"`
	CivilStatus   string `json:"civil_status" validate:"required,oneof=single married widowed divorced separated"`
	Barangay      string `json:"barangay" validate:"required,max=255"`
	Purpose       string `json:"purpose" validate:"required"`
	MonthlyIncome string `json:"monthly_income,omitempty" validate:"omitempty,numeric"`
}

type healthCertificatePayload struct {
	FullName    string `json:"full_name" validate:"required,max=255"`
	Email       string `json:"email" validate:"required,email,max=255"`
	Phone       string `json:"phone" validate:"required,max=20"`
	Address     string `json:"address" validate:"required"`
	BirthDate   string `json:"birth_date" validate:"required,datetime=2006-01-02"`
	Age         string `json:"age" validate:"required,number"`
	Sex         string `json:"sex" validate:"required,oneof=male female"`
	CivilStatus string `json:"civil_status" validate:"required,oneof=single married widowed divorced separated"`
	Occupation  string `json:"occupation" validate:"required,max=255"`
	Purpose     string `json:"purpose" validate:"required"`
}

type legitimacyPayload struct {
	FullName         string `json:"full_name" validate:"required,max=255"`
	Chapter          string `json:"chapter" validate:"required,max=255"`
	Position         string `json:"position" validate:"required,max=255"`
	FraternityNumber string `json:"fraternity_number" validate:"required,max=100"`
	SignatoryName    string `json:"signatory_name" validate:"required,max=255"`
	Purpose          string `json:"purpose,omitempty" validate:"omitempty"`
}

type blotterPayload struct {
	FullName         string `json:"full_name" validate:"required,max=255"`
	Email            string `json:"email" validate:"required,email,max=255"`
	Age              string `json:"age" validate:"required,number"`
	Gender           string `json:"gender" validate:"required,oneof=male female"`
	Address          string `json:"address" validate:"required"`
	ContactNumber    string `json:"contact_number" validate:"required,max=20"`
	IncidentType     string `json:"incident_type" validate:"required,max=255"`
	IncidentDate     string `json:"incident_date" validate:"required,datetime=2006-01-02"`
	IncidentTime     string `json:"incident_time" validate:"required"`
	IncidentLocation string `json:"incident_location" validate:"required"`
	Narrative        string `json:"narrative" validate:"required"`
	ComplaintAgainst string `json:"complaint_against" validate:"required,max=255"`
	Witness1Name     string `json:"witness1_name,omitempty" validate:"omitempty,max=255"`
	Witness1Contact  string `json:"witness1_contact,omitempty" validate:"omitempty,max=20"`
	Witness2Name     string `json:"witness2_name,omitempty" validate:"omitempty,max=255"`
	Witness2Contact  string `json:"witness2_contact,omitempty" validate:"omitempty,max=20"`
}

type ambulancePayload struct {
	FullName  string `json:"full_name" validate:"required,max=255"`
	Phone     string `json:"phone" validate:"required,max=20"`
	Address   string `json:"address" validate:"required"`
	Emergency string `json:"emergency" validate:"required,oneof=medical accident cardiac breathing injury other"`
	Notes     string `json:"notes,omitempty" validate:"omitempty"`
	Latitude  string `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude string `json:"longitude,omitempty" validate:"omitempty,longitude"`
	// EstimatedArrival is computed by the service at creation, never submitted.
	EstimatedArrival string `json:"estimated_arrival,omitempty" validate:"-"`
}

func schemaFor(t DocumentType) any {
	switch t {
	case TypeBarangayClearance:
		return &clearancePayload{}
	case TypeBusinessPermit:
		return &businessPermitPayload{}
	case TypeBuildingPermit:
		return &buildingPermitPayload{}
	case TypeCedula:
		return &cedulaPayload{}
	case TypeGoodMoralCertificate:
		return &goodMoralPayload{}
	case TypeResidencyCertificate:
		return &residencyPayload{}
	case TypeIndigencyCertificate:
		return &indigencyPayload{}
	case TypeHealthCertificate:
		return &healthCertificatePayload{}
	case TypeLegitimacyRequest:
		return &legitimacyPayload{}
	case TypeBarangayBlotter:
		return &blotterPayload{}
	case TypeAmbulanceRequest:
		return &ambulancePayload{}
	default:
		return nil
	}
}

// ValidatePayload checks p against the type's schema and returns the
// canonicalized payload (schema fields only, optional empties dropped).
// Returns CodeInvalidInput naming the offending fields on failure.
func ValidatePayload(t DocumentType, p Payload) (Payload, error) {
	schema := schemaFor(t)
	if schema == nil {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unsupported document type %q", t)
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed payload")
	}
	if err := json.Unmarshal(raw, schema); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "malformed payload")
	}

	if err := validate.Struct(schema); err != nil {
		var verrs validator.ValidationErrors
		if ok := asValidationErrors(err, &verrs); ok {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, snakeField(fe))
			}
			return nil, dErrors.Newf(dErrors.CodeInvalidInput, "validation failed: %s", strings.Join(fields, ", "))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "validation failed")
	}

	canonical, err := json.Marshal(schema)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "canonicalize payload")
	}
	clean := Payload{}
	if err := json.Unmarshal(canonical, &clean); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "canonicalize payload")
	}
	for k, v := range clean {
		if v == "" {
			delete(clean, k)
		}
	}
	return clean, nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if ok {
		*target = verrs
	}
	return ok
}

// snakeField reports the json name of a failed field so error messages match
// what the client actually sent.
func snakeField(fe validator.FieldError) string {
	name := fe.Field()
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
