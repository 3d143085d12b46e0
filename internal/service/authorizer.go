package service

import (
	"github.com/gatepass/gatepass-server/internal/models"
)

// creatorRoles is the single source of truth for who may create which
// role. Any (actor, target) pair not in this table is forbidden.
var creatorRoles = map[models.Role][]models.Role{
	models.RoleAdmin:        {models.RoleSuperAdmin},
	models.RoleEventManager: {models.RoleSuperAdmin, models.RoleAdmin},
	models.RoleOrganizer:    {models.RoleEventManager},
}

// viewableRoles lists the subordinate roles each role may list and manage.
// Event managers are further restricted to organizers they created; that
// filter is applied by the caller, not here.
var viewableRoles = map[models.Role][]models.Role{
	models.RoleSuperAdmin:   {models.RoleAdmin, models.RoleEventManager, models.RoleOrganizer},
	models.RoleAdmin:        {models.RoleEventManager, models.RoleOrganizer},
	models.RoleEventManager: {models.RoleOrganizer},
}

// canCreate reports whether an actor of the given role may create an
// account of the target role.
func canCreate(actor, target models.Role) bool {
	for _, allowed := range creatorRoles[target] {
		if actor == allowed {
			return true
		}
	}
	return false
}

// canView reports whether an actor of the given role may see accounts of
// the target role at all.
func canView(actor, target models.Role) bool {
	for _, allowed := range viewableRoles[actor] {
		if target == allowed {
			return true
		}
	}
	return false
}

// canManage reports whether the actor may mutate the target account:
// its direct creator always may, and so may any role above the target
// with visibility over it (an event manager only ever reaches organizers
// it created, via the creator branch).
func canManage(actor, target *models.Account) bool {
	if target.CreatedBy != nil && *target.CreatedBy == actor.ID {
		return true
	}
	if actor.Role == models.RoleSuperAdmin || actor.Role == models.RoleAdmin {
		return canView(actor.Role, target.Role)
	}
	return false
}
