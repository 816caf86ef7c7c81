package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"barangaylink/internal/application/models"
	"barangaylink/internal/application/store"
	"barangaylink/internal/audit"
	"barangaylink/internal/vault"
	id "barangaylink/pkg/domain"
	dErrors "barangaylink/pkg/domain-errors"
	"barangaylink/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	store   *store.Memory
	vault   *vault.Memory
	outbox  *audit.MemoryStore
	service *Service

	citizen id.Caller
	other   id.Caller
	admin   id.Caller
	now     time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = store.NewMemory()
	s.vault = vault.NewMemory()
	s.outbox = audit.NewMemoryStore()
	s.service = New(s.store, s.vault,
		WithLogger(logger),
		WithAuditRecorder(audit.NewRecorder(s.outbox, logger)),
	)

	s.citizen = id.Caller{ID: id.NewUserID(), Role: id.RoleCitizen}
	s.other = id.Caller{ID: id.NewUserID(), Role: id.RoleCitizen}
	s.admin = id.Caller{ID: id.NewUserID(), Role: id.RoleAdmin}
	s.now = time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC)
}

func (s *ServiceSuite) ctx(caller id.Caller) context.Context {
	ctx := requestcontext.WithTime(context.Background(), s.now)
	return requestcontext.WithCaller(ctx, caller)
}

func pdfUpload() vault.Upload {
	return vault.Upload{
		Filename:    "id.pdf",
		ContentType: "application/pdf",
		Size:        4,
		Data:        []byte("%PDF"),
	}
}

func clearancePayload() models.Payload {
	return models.Payload{
		"full_name":          "Juan Dela Cruz",
		"email":              "juan@example.com",
		"phone":              "09171234567",
		"address":            "123 Mabini St",
		"birth_date":         "1990-04-15",
		"age":                "36",
		"sex":                "male",
		"civil_status":       "married",
		"years_of_residency": "12",
		"barangay":           "San Isidro",
		"purpose":            "employment",
	}
}

func cedulaPayload() models.Payload {
	return models.Payload{
		"full_name":    "Maria Santos",
		"email":        "maria@example.com",
		"phone":        "09170000002",
		"address":      "7 Luna St",
		"birth_date":   "1985-01-20",
		"civil_status": "single",
		"citizenship":  "Filipino",
		"occupation":   "carpenter",
		"height":       "160",
		"height_unit":  "cm",
		"weight":       "55",
		"weight_unit":  "kg",
	}
}

func ambulancePayload(kind string) models.Payload {
	return models.Payload{
		"full_name": "Pedro Ramos",
		"phone":     "09175550001",
		"address":   "88 Bonifacio St",
		"emergency": kind,
	}
}

func (s *ServiceSuite) submitClearance() *models.Application {
	app, err := s.service.Create(s.ctx(s.citizen), CreateInput{
		Type:    models.TypeBarangayClearance,
		Payload: clearancePayload(),
		Files:   map[string]vault.Upload{"valid_id": pdfUpload()},
	})
	s.Require().NoError(err)
	return app
}

func (s *ServiceSuite) submitCedula() *models.Application {
	app, err := s.service.Create(s.ctx(s.citizen), CreateInput{
		Type:    models.TypeCedula,
		Payload: cedulaPayload(),
	})
	s.Require().NoError(err)
	return app
}

// --- Create ---

func (s *ServiceSuite) TestCreateClearance() {
	app := s.submitClearance()

	s.Equal(models.StatusPending, app.Status)
	s.Regexp(`^BC-2026-[0-9A-F]{8}$`, app.ReferenceNumber)
	s.Equal(s.citizen.ID, app.OwnerID)
	s.Require().Contains(app.Attachments, "valid_id")
	s.True(s.vault.Has(app.Attachments["valid_id"]))

	events := s.outbox.Events()
	s.Require().NotEmpty(events)
	s.Equal(audit.ActionApplicationSubmitted, events[0].Action)
	s.Equal(s.citizen.ID.String(), events[0].ActorID)
}

func (s *ServiceSuite) TestCreateRequiresAuth() {
	_, err := s.service.Create(requestcontext.WithTime(context.Background(), s.now), CreateInput{
		Type:    models.TypeBarangayClearance,
		Payload: clearancePayload(),
		Files:   map[string]vault.Upload{"valid_id": pdfUpload()},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestCreateMissingRequiredFile() {
	_, err := s.service.Create(s.ctx(s.citizen), CreateInput{
		Type:    models.TypeBarangayClearance,
		Payload: clearancePayload(),
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	s.Zero(s.vault.Len())
}

func (s *ServiceSuite) TestCreateUnexpectedFileSlot() {
	_, err := s.service.Create(s.ctx(s.citizen), CreateInput{
		Type:    models.TypeCedula,
		Payload: cedulaPayload(),
		Files:   map[string]vault.Upload{"selfie": pdfUpload()},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestCreateRejectsBadFileType() {
	up := pdfUpload()
	up.Filename = "virus.exe"
	_, err := s.service.Create(s.ctx(s.citizen), CreateInput{
		Type:    models.TypeBarangayClearance,
		Payload: clearancePayload(),
		Files:   map[string]vault.Upload{"valid_id": up},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	s.Zero(s.vault.Len())
}

func (s *ServiceSuite) TestCreateInvalidPayload() {
	p := clearancePayload()
	delete(p, "purpose")
	_, err := s.service.Create(s.ctx(s.citizen), CreateInput{
		Type:    models.TypeBarangayClearance,
		Payload: p,
		Files:   map[string]vault.Upload{"valid_id": pdfUpload()},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestCreateAmbulanceEstimatesArrival() {
	app, err := s.service.Create(s.ctx(s.citizen), CreateInput{
		Type:    models.TypeAmbulanceRequest,
		Payload: ambulancePayload("cardiac"),
	})
	s.Require().NoError(err)

	eta, perr := time.Parse(time.RFC3339, app.Payload.Field("estimated_arrival"))
	s.Require().NoError(perr)
	s.Equal(s.now.Add(5*time.Minute), eta)

	slow, err := s.service.Create(s.ctx(s.citizen), CreateInput{
		Type:    models.TypeAmbulanceRequest,
		Payload: ambulancePayload("other"),
	})
	s.Require().NoError(err)
	eta, perr = time.Parse(time.RFC3339, slow.Payload.Field("estimated_arrival"))
	s.Require().NoError(perr)
	s.Equal(s.now.Add(15*time.Minute), eta)
}

// --- Transition ---

func (s *ServiceSuite) TestApproveIssuesClearanceNumber() {
	app := s.submitClearance()

	got, err := s.service.Transition(s.ctx(s.admin), app.ID, models.StatusApproved, models.Decision{})
	s.Require().NoError(err)

	s.Equal(models.StatusApproved, got.Status)
	s.Regexp(`^BC-[0-9A-F]{8}$`, got.IssuedNumber)
	s.Require().NotNil(got.ApprovedAt)
	s.Equal(s.now, *got.ApprovedAt)
	s.Require().NotNil(got.ExpiresAt)
	s.Equal(s.now.AddDate(0, 6, 0), *got.ExpiresAt)
	s.Equal(s.admin.ID, got.ProcessedBy)
}

func (s *ServiceSuite) TestReapprovalRegeneratesClearanceNumber() {
	app := s.submitClearance()

	first, err := s.service.Transition(s.ctx(s.admin), app.ID, models.StatusApproved, models.Decision{})
	s.Require().NoError(err)
	_, err = s.service.Transition(s.ctx(s.admin), app.ID, models.StatusProcessing, models.Decision{})
	s.Require().NoError(err)
	second, err := s.service.Transition(s.ctx(s.admin), app.ID, models.StatusApproved, models.Decision{})
	s.Require().NoError(err)

	s.NotEmpty(second.IssuedNumber)
	s.NotEqual(first.IssuedNumber, second.IssuedNumber)
}

func (s *ServiceSuite) TestRejectRequiresReason() {
	app := s.submitClearance()

	_, err := s.service.Transition(s.ctx(s.admin), app.ID, models.StatusRejected, models.Decision{})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestRejectClearsIssuance() {
	app := s.submitClearance()

	_, err := s.service.Transition(s.ctx(s.admin), app.ID, models.StatusApproved, models.Decision{})
	s.Require().NoError(err)

	got, err := s.service.Transition(s.ctx(s.admin), app.ID, models.StatusRejected,
		models.Decision{RejectionReason: "incomplete requirements"})
	s.Require().NoError(err)

	s.Empty(got.IssuedNumber)
	s.Nil(got.ApprovedAt)
	s.Nil(got.ExpiresAt)
	s.Require().NotNil(got.RejectedAt)
	s.Equal("incomplete requirements", got.RejectionReason)
}

func (s *ServiceSuite) TestLeavingRejectedClearsReason() {
	app := s.submitClearance()

	_, err := s.service.Transition(s.ctx(s.admin), app.ID, models.StatusRejected,
		models.Decision{RejectionReason: "blurry id photo"})
	s.Require().NoError(err)

	got, err := s.service.Transition(s.ctx(s.admin), app.ID, models.StatusPending, models.Decision{})
	s.Require().NoError(err)
	s.Empty(got.RejectionReason)
	s.Nil(got.RejectedAt)
}

func (s *ServiceSuite) TestBusinessPermitYearSequence() {
	submit := func() *models.Application {
		app, err := s.service.Create(s.ctx(s.citizen), CreateInput{
			Type: models.TypeBusinessPermit,
			Payload: models.Payload{
				"business_name":        "Aling Nena Store",
				"business_type":        "sole-proprietorship",
				"business_category":    "retail",
				"business_description": "sari-sari store",
				"owner_name":           "Nena Reyes",
				"owner_email":          "nena@example.com",
				"owner_phone":          "09180000001",
				"owner_address":        "45 Rizal Ave",
				"business_address":     "45 Rizal Ave",
				"barangay":             "Poblacion",
				"floor_area":           "24.5",
			},
		})
		s.Require().NoError(err)
		return app
	}

	first := submit()
	second := submit()

	a, err := s.service.Transition(s.ctx(s.admin), first.ID, models.StatusApproved, models.Decision{})
	s.Require().NoError(err)
	s.Equal("BP-2026-00001", a.IssuedNumber)

	b, err := s.service.Transition(s.ctx(s.admin), second.ID, models.StatusApproved, models.Decision{})
	s.Require().NoError(err)
	s.Equal("BP-2026-00002", b.IssuedNumber)

	s.Run("repeat approval keeps the number", func() {
		_, err := s.service.Transition(s.ctx(s.admin), a.ID, models.StatusProcessing, models.Decision{})
		s.Require().NoError(err)
		again, err := s.service.Transition(s.ctx(s.admin), a.ID, models.StatusApproved, models.Decision{})
		s.Require().NoError(err)
		s.Equal("BP-2026-00001", again.IssuedNumber)
	})
}

func (s *ServiceSuite) TestIllegalTransitionRefused() {
	app := s.submitClearance()

	_, err := s.service.Transition(s.ctx(s.admin), app.ID, models.StatusDispatched, models.Decision{})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *ServiceSuite) TestCitizenCannotProcess() {
	app := s.submitClearance()

	_, err := s.service.Transition(s.ctx(s.citizen), app.ID, models.StatusApproved, models.Decision{})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestForeignRecordReadsAsMissing() {
	app := s.submitClearance()

	_, err := s.service.Transition(s.ctx(s.other), app.ID, models.StatusApproved, models.Decision{})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestAmbulanceLifecycle() {
	app, err := s.service.Create(s.ctx(s.citizen), CreateInput{
		Type:    models.TypeAmbulanceRequest,
		Payload: ambulancePayload("accident"),
	})
	s.Require().NoError(err)

	dispatched, err := s.service.Transition(s.ctx(s.admin), app.ID, models.StatusDispatched, models.Decision{})
	s.Require().NoError(err)
	s.Require().NotNil(dispatched.DispatchedAt)

	arrived, err := s.service.Transition(s.ctx(s.admin), app.ID, models.StatusArrived, models.Decision{})
	s.Require().NoError(err)
	s.Require().NotNil(arrived.ArrivedAt)

	done, err := s.service.Transition(s.ctx(s.admin), app.ID, models.StatusCompleted, models.Decision{})
	s.Require().NoError(err)
	s.Require().NotNil(done.CompletedAt)

	s.Run("terminal request cannot move", func() {
		_, err := s.service.Transition(s.ctx(s.admin), app.ID, models.StatusEnRoute, models.Decision{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *ServiceSuite) TestOwnerCancelAmbulance() {
	app, err := s.service.Create(s.ctx(s.citizen), CreateInput{
		Type:    models.TypeAmbulanceRequest,
		Payload: ambulancePayload("medical"),
	})
	s.Require().NoError(err)

	got, err := s.service.Transition(s.ctx(s.citizen), app.ID, models.StatusCancelled, models.Decision{})
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, got.Status)
	s.Require().NotNil(got.CancelledAt)

	s.Run("cancelled is terminal even for the owner", func() {
		_, err := s.service.Transition(s.ctx(s.citizen), app.ID, models.StatusCancelled, models.Decision{})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
	})
}

func (s *ServiceSuite) TestOwnerCannotCancelClearance() {
	app := s.submitClearance()

	_, err := s.service.Transition(s.ctx(s.citizen), app.ID, models.StatusRejected,
		models.Decision{RejectionReason: "changed my mind"})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

// --- Read ---

func (s *ServiceSuite) TestGetVisibility() {
	app := s.submitClearance()

	s.Run("owner sees it", func() {
		got, err := s.service.Get(s.ctx(s.citizen), app.ID)
		s.Require().NoError(err)
		s.Equal(app.ID, got.ID)
	})

	s.Run("admin sees it", func() {
		_, err := s.service.Get(s.ctx(s.admin), app.ID)
		s.NoError(err)
	})

	s.Run("another citizen gets not found", func() {
		_, err := s.service.Get(s.ctx(s.other), app.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestGetByReference() {
	app := s.submitClearance()

	got, err := s.service.GetByReference(s.ctx(s.citizen), app.Type, app.ReferenceNumber)
	s.Require().NoError(err)
	s.Equal(app.ID, got.ID)

	_, err = s.service.GetByReference(s.ctx(s.citizen), app.Type, "BC-2026-FFFFFFFF")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestListScoping() {
	s.submitClearance()
	_, err := s.service.Create(s.ctx(s.other), CreateInput{
		Type:    models.TypeBarangayClearance,
		Payload: clearancePayload(),
		Files:   map[string]vault.Upload{"valid_id": pdfUpload()},
	})
	s.Require().NoError(err)

	s.Run("citizen sees only their own", func() {
		page, err := s.service.List(s.ctx(s.citizen), ListInput{Type: models.TypeBarangayClearance})
		s.Require().NoError(err)
		s.Equal(1, page.Total)
	})

	s.Run("admin sees everything", func() {
		page, err := s.service.List(s.ctx(s.admin), ListInput{Type: models.TypeBarangayClearance})
		s.Require().NoError(err)
		s.Equal(2, page.Total)
	})

	s.Run("status all means no filter", func() {
		page, err := s.service.List(s.ctx(s.admin), ListInput{
			Type: models.TypeBarangayClearance, Status: "all",
		})
		s.Require().NoError(err)
		s.Equal(2, page.Total)
	})

	s.Run("bad status filter rejected", func() {
		_, err := s.service.List(s.ctx(s.admin), ListInput{
			Type: models.TypeBarangayClearance, Status: "approved-ish",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

// --- Update ---

func (s *ServiceSuite) TestOwnerUpdatesPendingCedula() {
	app := s.submitCedula()

	p := cedulaPayload()
	p["occupation"] = "engineer"
	got, err := s.service.Update(s.ctx(s.citizen), app.ID, UpdateInput{Payload: p})
	s.Require().NoError(err)
	s.Equal("engineer", got.Payload.Field("occupation"))
}

func (s *ServiceSuite) TestUpdateIsOwnerOnly() {
	app := s.submitCedula()

	p := cedulaPayload()
	p["occupation"] = "engineer"
	_, err := s.service.Update(s.ctx(s.admin), app.ID, UpdateInput{Payload: p})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	got, err := s.service.Get(s.ctx(s.admin), app.ID)
	s.Require().NoError(err)
	s.Equal(app.Payload.Field("occupation"), got.Payload.Field("occupation"))
}

func (s *ServiceSuite) TestUpdateBlockedOutsideDraft() {
	app := s.submitCedula()
	_, err := s.service.Transition(s.ctx(s.admin), app.ID, models.StatusProcessing, models.Decision{})
	s.Require().NoError(err)

	_, err = s.service.Update(s.ctx(s.citizen), app.ID, UpdateInput{Payload: cedulaPayload()})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *ServiceSuite) TestUpdateForbiddenForClearance() {
	app := s.submitClearance()

	_, err := s.service.Update(s.ctx(s.citizen), app.ID, UpdateInput{Payload: clearancePayload()})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestUpdateReplacesAttachment() {
	app, err := s.service.Create(s.ctx(s.citizen), CreateInput{
		Type: models.TypeBuildingPermit,
		Payload: models.Payload{
			"project_type":        "two-storey house",
			"project_scope":       "residential",
			"project_description": "new construction",
			"number_of_floors":    "2",
			"estimated_cost":      "1500000",
			"owner_name":          "Juan Dela Cruz",
			"owner_email":         "juan@example.com",
			"owner_phone":         "09171234567",
			"owner_address":       "123 Mabini St",
			"property_address":    "Lot 4, Sitio Maligaya",
			"barangay":            "San Isidro",
		},
		Files: map[string]vault.Upload{
			"building_plans": pdfUpload(),
			"land_title":     pdfUpload(),
		},
	})
	s.Require().NoError(err)
	oldPath := app.Attachments["building_plans"]

	got, err := s.service.Update(s.ctx(s.citizen), app.ID, UpdateInput{
		Payload: app.Payload,
		Files:   map[string]vault.Upload{"building_plans": pdfUpload()},
	})
	s.Require().NoError(err)

	s.NotEqual(oldPath, got.Attachments["building_plans"])
	s.False(s.vault.Has(oldPath), "replaced file should be purged")
	s.True(s.vault.Has(got.Attachments["building_plans"]))
	s.True(s.vault.Has(got.Attachments["land_title"]), "untouched slot keeps its file")
}

// --- Delete ---

func (s *ServiceSuite) TestOwnerWithdrawsPending() {
	app := s.submitClearance()
	path := app.Attachments["valid_id"]

	s.Require().NoError(s.service.Delete(s.ctx(s.citizen), app.ID))
	_, err := s.store.FindByID(context.Background(), app.ID)
	s.Error(err)
	s.False(s.vault.Has(path), "attachments purged with the record")
}

func (s *ServiceSuite) TestOwnerCannotWithdrawProcessed() {
	app := s.submitClearance()
	_, err := s.service.Transition(s.ctx(s.admin), app.ID, models.StatusProcessing, models.Decision{})
	s.Require().NoError(err)

	err = s.service.Delete(s.ctx(s.citizen), app.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidTransition))
}

func (s *ServiceSuite) TestAdminDeletesAnyStatus() {
	app := s.submitClearance()
	_, err := s.service.Transition(s.ctx(s.admin), app.ID, models.StatusApproved, models.Decision{})
	s.Require().NoError(err)

	s.NoError(s.service.Delete(s.ctx(s.admin), app.ID))
}

func (s *ServiceSuite) TestDeleteForeignRecord() {
	app := s.submitClearance()
	err := s.service.Delete(s.ctx(s.other), app.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// --- Statistics ---

func (s *ServiceSuite) TestStatistics() {
	s.submitClearance()
	app := s.submitClearance()
	_, err := s.service.Transition(s.ctx(s.admin), app.ID, models.StatusApproved, models.Decision{})
	s.Require().NoError(err)

	stats, err := s.service.Statistics(s.ctx(s.admin))
	s.Require().NoError(err)

	bc := stats[models.TypeBarangayClearance]
	s.Equal(2, bc.Total)
	s.Equal(1, bc.ByStatus[models.StatusPending])
	s.Equal(1, bc.ByStatus[models.StatusApproved])

	s.Run("citizens are refused", func() {
		_, err := s.service.Statistics(s.ctx(s.citizen))
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
