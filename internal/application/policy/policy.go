// Package policy declares, per document type, everything that differs between
// otherwise identical application lifecycles: the legal status graph, how the
// office issues document numbers, which timestamps stick, what citizens may do
// to their own records, and which payload fields the search scans. The
// lifecycle engine stays generic; this package is the only place a new
// document type touches.
package policy

import (
	"time"

	"barangaylink/internal/application/models"
	dErrors "barangaylink/pkg/domain-errors"
)

// TimestampMode controls how status timestamps behave on repeat visits.
type TimestampMode int

const (
	// TimestampOverwrite re-stamps the slot every time the status is entered.
	TimestampOverwrite TimestampMode = iota
	// TimestampFirstReached stamps once and keeps the original on revisits.
	TimestampFirstReached
)

// IssueMode controls whether and how an official document number is issued
// when the application is approved.
type IssueMode int

const (
	// IssueNone issues no document number.
	IssueNone IssueMode = iota
	// IssueRandom issues prefix + random hex, e.g. BC-1A2B3C4D.
	IssueRandom
	// IssueYearSequence issues prefix-YYYY-NNNNN from a per-year counter.
	IssueYearSequence
)

// AttachmentSlot names one file a type accepts. Required slots must be
// present at submission.
type AttachmentSlot struct {
	Name     string
	Required bool
}

// Policy is the behavior descriptor for one document type.
type Policy struct {
	Type      models.DocumentType
	RefPrefix string
	Initial   models.Status

	// Transitions maps each status to the statuses it may move to. Absent
	// keys are terminal.
	Transitions map[models.Status][]models.Status

	TimestampMode TimestampMode

	IssueMode       IssueMode
	IssuePrefix     string
	IssueIdempotent bool
	ExpiryMonths    int

	// DraftStatus is the only status in which the owner may update or delete
	// the application. Zero means never.
	DraftStatus    models.Status
	OwnerCanUpdate bool
	OwnerCanDelete bool

	// OwnerCancelTarget, when set, lets the owner move a non-terminal
	// application to this status (ambulance cancellation).
	OwnerCancelTarget models.Status

	Slots        []AttachmentSlot
	SearchFields []string
}

// CanTransition reports whether the status graph permits from -> to.
// Self-transitions are never permitted.
func (p Policy) CanTransition(from, to models.Status) bool {
	if from == to {
		return false
	}
	for _, s := range p.Transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a status has no outgoing transitions.
func (p Policy) IsTerminal(s models.Status) bool { return len(p.Transitions[s]) == 0 }

// HasStatus reports whether the type uses the status at all.
func (p Policy) HasStatus(s models.Status) bool {
	if s == p.Initial {
		return true
	}
	if _, ok := p.Transitions[s]; ok {
		return true
	}
	for _, targets := range p.Transitions {
		for _, t := range targets {
			if t == s {
				return true
			}
		}
	}
	return false
}

// RequiredSlots returns the names of attachment slots that must be filled at
// submission.
func (p Policy) RequiredSlots() []string {
	var out []string
	for _, s := range p.Slots {
		if s.Required {
			out = append(out, s.Name)
		}
	}
	return out
}

// SlotNamed reports whether the type accepts a file under this slot name.
func (p Policy) SlotNamed(name string) bool {
	for _, s := range p.Slots {
		if s.Name == name {
			return true
		}
	}
	return false
}

// ExpiryFrom returns the validity deadline for a document approved at t, or
// nil when the type's documents do not expire.
func (p Policy) ExpiryFrom(t time.Time) *time.Time {
	if p.ExpiryMonths <= 0 {
		return nil
	}
	exp := t.AddDate(0, p.ExpiryMonths, 0)
	return &exp
}

// freeGraph builds a transition table where every listed status can move to
// every other. The review-desk types work this way: clerks reorder freely,
// including pulling an approved record back to processing.
func freeGraph(statuses ...models.Status) map[models.Status][]models.Status {
	g := make(map[models.Status][]models.Status, len(statuses))
	for _, from := range statuses {
		for _, to := range statuses {
			if from != to {
				g[from] = append(g[from], to)
			}
		}
	}
	return g
}

var policies = map[models.DocumentType]Policy{
	models.TypeBarangayClearance: {
		Type:      models.TypeBarangayClearance,
		RefPrefix: "BC",
		Initial:   models.StatusPending,
		Transitions: freeGraph(
			models.StatusPending, models.StatusProcessing,
			models.StatusApproved, models.StatusRejected,
		),
		TimestampMode:  TimestampOverwrite,
		IssueMode:      IssueRandom,
		IssuePrefix:    "BC-",
		ExpiryMonths:   6,
		DraftStatus:    models.StatusPending,
		OwnerCanDelete: true,
		Slots:          []AttachmentSlot{{Name: "valid_id", Required: true}},
		SearchFields:   []string{"full_name", "email", "phone", "barangay", "purpose"},
	},
	models.TypeBusinessPermit: {
		Type:      models.TypeBusinessPermit,
		RefPrefix: "BPT",
		Initial:   models.StatusPending,
		Transitions: freeGraph(
			models.StatusPending, models.StatusProcessing,
			models.StatusApproved, models.StatusRejected,
		),
		TimestampMode:   TimestampOverwrite,
		IssueMode:       IssueYearSequence,
		IssuePrefix:     "BP",
		IssueIdempotent: true,
		ExpiryMonths:    12,
		DraftStatus:     models.StatusPending,
		OwnerCanUpdate:  true,
		OwnerCanDelete:  true,
		SearchFields:    []string{"business_name", "owner_name", "owner_email", "barangay"},
	},
	models.TypeBuildingPermit: {
		Type:      models.TypeBuildingPermit,
		RefPrefix: "BLDG",
		Initial:   models.StatusPending,
		Transitions: freeGraph(
			models.StatusPending, models.StatusProcessing,
			models.StatusApproved, models.StatusRejected,
		),
		TimestampMode:   TimestampOverwrite,
		IssueMode:       IssueRandom,
		IssuePrefix:     "BLDG-",
		IssueIdempotent: true,
		ExpiryMonths:    12,
		DraftStatus:     models.StatusPending,
		OwnerCanUpdate:  true,
		OwnerCanDelete:  true,
		Slots: []AttachmentSlot{
			{Name: "building_plans", Required: true},
			{Name: "land_title", Required: true},
		},
		SearchFields: []string{
			"owner_name", "project_type", "project_scope",
			"barangay", "owner_email", "owner_phone",
		},
	},
	models.TypeCedula: {
		Type:      models.TypeCedula,
		RefPrefix: "CED",
		Initial:   models.StatusPending,
		Transitions: freeGraph(
			models.StatusPending, models.StatusProcessing,
			models.StatusApproved, models.StatusRejected,
		),
		TimestampMode:  TimestampOverwrite,
		IssueMode:      IssueRandom,
		IssuePrefix:    "CED-",
		ExpiryMonths:   12,
		DraftStatus:    models.StatusPending,
		OwnerCanUpdate: true,
		OwnerCanDelete: true,
		SearchFields:   []string{"full_name", "email", "phone", "occupation", "citizenship"},
	},
	models.TypeGoodMoralCertificate: {
		Type:      models.TypeGoodMoralCertificate,
		RefPrefix: "GMC",
		Initial:   models.StatusPending,
		Transitions: freeGraph(
			models.StatusPending, models.StatusApproved,
			models.StatusRejected, models.StatusReleased,
		),
		TimestampMode:  TimestampOverwrite,
		DraftStatus:    models.StatusPending,
		OwnerCanDelete: true,
		Slots: []AttachmentSlot{
			{Name: "valid_id", Required: true},
			{Name: "proof_of_residency"},
		},
		SearchFields: []string{"full_name", "email", "purpose"},
	},
	models.TypeResidencyCertificate: {
		Type:      models.TypeResidencyCertificate,
		RefPrefix: "RC",
		Initial:   models.StatusPending,
		Transitions: freeGraph(
			models.StatusPending, models.StatusApproved,
			models.StatusRejected, models.StatusReleased,
		),
		TimestampMode:  TimestampOverwrite,
		DraftStatus:    models.StatusPending,
		OwnerCanDelete: true,
		Slots: []AttachmentSlot{
			{Name: "valid_id", Required: true},
			{Name: "proof_of_residency"},
		},
		SearchFields: []string{"full_name", "email", "purpose"},
	},
	models.TypeIndigencyCertificate: {
		Type:      models.TypeIndigencyCertificate,
		RefPrefix: "IC",
		Initial:   models.StatusPending,
		Transitions: freeGraph(
			models.StatusPending, models.StatusApproved,
			models.StatusRejected, models.StatusReleased,
		),
		TimestampMode:  TimestampOverwrite,
		DraftStatus:    models.StatusPending,
		OwnerCanDelete: true,
		Slots: []AttachmentSlot{
			{Name: "valid_id", Required: true},
			{Name: "supporting_document"},
		},
		SearchFields: []string{"full_name", "email", "purpose"},
	},
	models.TypeHealthCertificate: {
		Type:      models.TypeHealthCertificate,
		RefPrefix: "HC",
		Initial:   models.StatusPending,
		Transitions: freeGraph(
			models.StatusPending, models.StatusUnderReview,
			models.StatusApproved, models.StatusRejected,
			models.StatusCompleted,
		),
		TimestampMode:  TimestampOverwrite,
		DraftStatus:    models.StatusPending,
		OwnerCanUpdate: true,
		OwnerCanDelete: true,
		SearchFields:   []string{"full_name", "email"},
	},
	models.TypeLegitimacyRequest: {
		Type:      models.TypeLegitimacyRequest,
		RefPrefix: "LR",
		Initial:   models.StatusPending,
		Transitions: freeGraph(
			models.StatusPending, models.StatusApproved, models.StatusRejected,
		),
		TimestampMode: TimestampOverwrite,
		SearchFields: []string{
			"full_name", "chapter", "position",
			"fraternity_number", "signatory_name",
		},
	},
	models.TypeBarangayBlotter: {
		Type:      models.TypeBarangayBlotter,
		RefPrefix: "BLT",
		Initial:   models.StatusFiled,
		Transitions: map[models.Status][]models.Status{
			models.StatusFiled: {
				models.StatusUnderInvestigation,
				models.StatusResolved, models.StatusClosed,
			},
			models.StatusUnderInvestigation: {models.StatusResolved, models.StatusClosed},
			models.StatusResolved:           {models.StatusClosed},
		},
		TimestampMode:  TimestampFirstReached,
		DraftStatus:    models.StatusFiled,
		OwnerCanUpdate: true,
		OwnerCanDelete: true,
		SearchFields: []string{
			"full_name", "email", "contact_number",
			"complaint_against", "narrative",
		},
	},
	models.TypeAmbulanceRequest: {
		Type:      models.TypeAmbulanceRequest,
		RefPrefix: "AMB",
		Initial:   models.StatusPending,
		Transitions: map[models.Status][]models.Status{
			models.StatusPending:    {models.StatusDispatched, models.StatusCancelled},
			models.StatusDispatched: {models.StatusEnRoute, models.StatusArrived, models.StatusCancelled},
			models.StatusEnRoute:    {models.StatusArrived, models.StatusCancelled},
			models.StatusArrived:    {models.StatusCompleted, models.StatusCancelled},
		},
		TimestampMode:     TimestampFirstReached,
		OwnerCancelTarget: models.StatusCancelled,
		SearchFields:      []string{"full_name", "phone", "address"},
	},
}

// For returns the policy for a document type.
func For(t models.DocumentType) (Policy, error) {
	p, ok := policies[t]
	if !ok {
		return Policy{}, dErrors.Newf(dErrors.CodeInvalidInput, "unsupported document type %q", t)
	}
	return p, nil
}

// MustFor is For for callers that already validated the type.
func MustFor(t models.DocumentType) Policy {
	p, err := For(t)
	if err != nil {
		panic(err)
	}
	return p
}
