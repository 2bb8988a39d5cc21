// internal/services/access_policy.go
package services

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/GabrielVictorica/inmogestor-backend/internal/models"
)

// AccessScope is the closed set of visibility decisions an actor can get.
// Every role check in the ledger and the billing manager goes through this
// one policy instead of per-handler conditionals.
type AccessScope int

const (
	// ScopeAll: unrestricted (platform admin).
	ScopeAll AccessScope = iota
	// ScopeOrganization: limited to the actor's own organization (broker).
	ScopeOrganization
	// ScopeSelf: limited to records the actor is the agent of.
	ScopeSelf
)

// ScopeFor resolves the visibility scope of an actor. Returns Forbidden for
// roles outside the closed set, and for organization-scoped roles with no
// organization attached.
func ScopeFor(actor models.Actor) (AccessScope, error) {
	switch actor.Role {
	case models.RoleGod:
		return ScopeAll, nil
	case models.RoleParent:
		if actor.OrganizationID == nil {
			return 0, NewForbiddenError("broker has no organization")
		}
		return ScopeOrganization, nil
	case models.RoleChild:
		return ScopeSelf, nil
	default:
		return 0, NewForbiddenError("unknown role %q", actor.Role)
	}
}

// CanTouchTransaction decides mutation rights over an existing transaction:
// owner agent over their own, broker within their organization, platform
// admin anywhere.
func CanTouchTransaction(actor models.Actor, tx *models.Transaction) error {
	scope, err := ScopeFor(actor)
	if err != nil {
		return err
	}

	switch scope {
	case ScopeAll:
		return nil
	case ScopeOrganization:
		if *actor.OrganizationID == tx.OrganizationID {
			return nil
		}
	case ScopeSelf:
		if actor.ID == tx.AgentID {
			return nil
		}
	}
	return NewForbiddenError("transaction belongs to another scope")
}

// CanAssignAgent decides whether the actor may create a transaction on
// behalf of the given agent within the given organization.
func CanAssignAgent(actor models.Actor, organizationID uuid.UUID, agent *models.Profile) error {
	scope, err := ScopeFor(actor)
	if err != nil {
		return err
	}

	switch scope {
	case ScopeAll:
		return nil
	case ScopeOrganization:
		if *actor.OrganizationID != organizationID {
			return NewForbiddenError("cannot create transactions for another organization")
		}
		if agent.OrganizationID == nil || *agent.OrganizationID != organizationID {
			return NewForbiddenError("agent belongs to another organization")
		}
		return nil
	case ScopeSelf:
		if actor.ID != agent.ID {
			return NewForbiddenError("agents may only register their own transactions")
		}
		return nil
	}
	return NewForbiddenError("transaction belongs to another scope")
}

// ApplyTransactionScope narrows a transactions query to what the actor may
// see. orgFilter is honored only for unrestricted actors.
func ApplyTransactionScope(q *gorm.DB, actor models.Actor, orgFilter *uuid.UUID) (*gorm.DB, error) {
	scope, err := ScopeFor(actor)
	if err != nil {
		return nil, err
	}

	switch scope {
	case ScopeAll:
		if orgFilter != nil {
			q = q.Where("organization_id = ?", *orgFilter)
		}
	case ScopeOrganization:
		q = q.Where("organization_id = ?", *actor.OrganizationID)
	case ScopeSelf:
		q = q.Where("agent_id = ?", actor.ID)
	}
	return q, nil
}

// RequireGod gates the billing manager and closing operations.
func RequireGod(actor models.Actor) error {
	if actor.Role != models.RoleGod {
		return NewForbiddenError("operation restricted to platform administrators")
	}
	return nil
}

// PrivilegedRepository is the capability that lets the closing scheduler
// operate across every organization without an actor. Only constructible
// inside this package; request-scoped handler code can never obtain one.
type PrivilegedRepository struct {
	db *gorm.DB
}

func newPrivilegedRepository(db *gorm.DB) PrivilegedRepository {
	return PrivilegedRepository{db: db}
}

// DB exposes the unscoped handle to the owning service.
func (r PrivilegedRepository) DB() *gorm.DB {
	return r.db
}
