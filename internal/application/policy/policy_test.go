package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"barangaylink/internal/application/models"
)

type PolicySuite struct {
	suite.Suite
}

func TestPolicySuite(t *testing.T) {
	suite.Run(t, new(PolicySuite))
}

func (s *PolicySuite) TestEveryTypeHasAPolicy() {
	for _, t := range models.AllDocumentTypes {
		p, err := For(t)
		s.Require().NoError(err, t)
		s.Equal(t, p.Type)
		s.NotEmpty(p.RefPrefix)
		s.NotEmpty(p.Initial)
		s.NotEmpty(p.SearchFields)
	}
}

func (s *PolicySuite) TestUnknownType() {
	_, err := For(models.DocumentType("passport"))
	s.Error(err)
}

func (s *PolicySuite) TestReviewTypesMoveFreely() {
	p := MustFor(models.TypeBarangayClearance)

	s.Run("any to any within the set", func() {
		s.True(p.CanTransition(models.StatusPending, models.StatusApproved))
		s.True(p.CanTransition(models.StatusApproved, models.StatusProcessing))
		s.True(p.CanTransition(models.StatusRejected, models.StatusPending))
	})

	s.Run("self transition refused", func() {
		s.False(p.CanTransition(models.StatusPending, models.StatusPending))
	})

	s.Run("foreign status refused", func() {
		s.False(p.CanTransition(models.StatusPending, models.StatusDispatched))
		s.False(p.CanTransition(models.StatusFiled, models.StatusApproved))
	})
}

func (s *PolicySuite) TestBlotterIsOrdered() {
	p := MustFor(models.TypeBarangayBlotter)

	s.True(p.CanTransition(models.StatusFiled, models.StatusUnderInvestigation))
	s.True(p.CanTransition(models.StatusUnderInvestigation, models.StatusResolved))
	s.True(p.CanTransition(models.StatusResolved, models.StatusClosed))

	s.False(p.CanTransition(models.StatusResolved, models.StatusFiled))
	s.False(p.CanTransition(models.StatusClosed, models.StatusResolved))
	s.True(p.IsTerminal(models.StatusClosed))
}

func (s *PolicySuite) TestAmbulanceDispatchFlow() {
	p := MustFor(models.TypeAmbulanceRequest)

	s.True(p.CanTransition(models.StatusPending, models.StatusDispatched))
	s.True(p.CanTransition(models.StatusDispatched, models.StatusEnRoute))
	s.True(p.CanTransition(models.StatusEnRoute, models.StatusArrived))
	s.True(p.CanTransition(models.StatusArrived, models.StatusCompleted))

	s.Run("cancellable while in flight", func() {
		for _, from := range []models.Status{
			models.StatusPending, models.StatusDispatched,
			models.StatusEnRoute, models.StatusArrived,
		} {
			s.True(p.CanTransition(from, models.StatusCancelled), from)
		}
	})

	s.Run("terminal states stay terminal", func() {
		s.True(p.IsTerminal(models.StatusCompleted))
		s.True(p.IsTerminal(models.StatusCancelled))
	})

	s.Equal(models.StatusCancelled, p.OwnerCancelTarget)
}

func (s *PolicySuite) TestIssuingRules() {
	s.Run("clearance regenerates on each approval", func() {
		p := MustFor(models.TypeBarangayClearance)
		s.Equal(IssueRandom, p.IssueMode)
		s.False(p.IssueIdempotent)
		s.Equal(6, p.ExpiryMonths)
	})

	s.Run("business permit issues once from a year sequence", func() {
		p := MustFor(models.TypeBusinessPermit)
		s.Equal(IssueYearSequence, p.IssueMode)
		s.True(p.IssueIdempotent)
		s.Equal(12, p.ExpiryMonths)
	})

	s.Run("certificates issue nothing", func() {
		p := MustFor(models.TypeGoodMoralCertificate)
		s.Equal(IssueNone, p.IssueMode)
		s.Nil(p.ExpiryFrom(time.Now()))
	})
}

func (s *PolicySuite) TestExpiryFrom() {
	p := MustFor(models.TypeCedula)
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	exp := p.ExpiryFrom(at)
	s.Require().NotNil(exp)
	s.Equal(time.Date(2027, 3, 10, 12, 0, 0, 0, time.UTC), *exp)
}

func (s *PolicySuite) TestSlots() {
	p := MustFor(models.TypeBuildingPermit)
	s.ElementsMatch([]string{"building_plans", "land_title"}, p.RequiredSlots())
	s.True(p.SlotNamed("land_title"))
	s.False(p.SlotNamed("valid_id"))

	gm := MustFor(models.TypeGoodMoralCertificate)
	s.Equal([]string{"valid_id"}, gm.RequiredSlots())
	s.True(gm.SlotNamed("proof_of_residency"))
}

func (s *PolicySuite) TestOwnerOperations() {
	s.Run("legitimacy requests are immutable for owners", func() {
		p := MustFor(models.TypeLegitimacyRequest)
		s.False(p.OwnerCanUpdate)
		s.False(p.OwnerCanDelete)
	})

	s.Run("blotter drafts in filed", func() {
		p := MustFor(models.TypeBarangayBlotter)
		s.Equal(models.StatusFiled, p.DraftStatus)
		s.True(p.OwnerCanUpdate)
		s.True(p.OwnerCanDelete)
	})
}
