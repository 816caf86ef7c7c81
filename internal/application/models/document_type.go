package models

import dErrors "barangaylink/pkg/domain-errors"

// DocumentType identifies which kind of application a record is. Every type
// shares the Application aggregate; behavior differences live in the policy
// package.
type DocumentType string

const (
	TypeBarangayClearance    DocumentType = "barangay_clearance"
	TypeBusinessPermit       DocumentType = "business_permit"
	TypeBuildingPermit       DocumentType = "building_permit"
	TypeCedula               DocumentType = "cedula"
	TypeGoodMoralCertificate DocumentType = "good_moral_certificate"
	TypeResidencyCertificate DocumentType = "residency_certificate"
	TypeIndigencyCertificate DocumentType = "indigency_certificate"
	TypeHealthCertificate    DocumentType = "health_certificate"
	TypeLegitimacyRequest    DocumentType = "legitimacy_request"
	TypeBarangayBlotter      DocumentType = "barangay_blotter"
	TypeAmbulanceRequest     DocumentType = "ambulance_request"
)

// AllDocumentTypes is the single source of truth for supported types.
var AllDocumentTypes = []DocumentType{
	TypeBarangayClearance,
	TypeBusinessPermit,
	TypeBuildingPermit,
	TypeCedula,
	TypeGoodMoralCertificate,
	TypeResidencyCertificate,
	TypeIndigencyCertificate,
	TypeHealthCertificate,
	TypeLegitimacyRequest,
	TypeBarangayBlotter,
	TypeAmbulanceRequest,
}

var validDocumentTypes = func() map[DocumentType]bool {
	m := make(map[DocumentType]bool, len(AllDocumentTypes))
	for _, t := range AllDocumentTypes {
		m[t] = true
	}
	return m
}()

func (t DocumentType) IsValid() bool { return validDocumentTypes[t] }

// ParseDocumentType constructs a DocumentType from external input (URL
// segments, queue payloads). Direct casting bypasses validation.
func ParseDocumentType(s string) (DocumentType, error) {
	t := DocumentType(s)
	if !t.IsValid() {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unsupported document type %q", s)
	}
	return t, nil
}
