package service

import (
	"sort"

	"github.com/noah-isme/school-records-api/internal/models"
)

// Permission names are "<resource>:<action>".
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

var crudResources = []string{"user", "role", "student", "class", "enrollment", "grade"}

var rolePermissions = buildRolePermissions()

func buildRolePermissions() map[string]map[string]struct{} {
	admin := map[string]struct{}{"profile:read": {}, "profile:update": {}}
	for _, resource := range crudResources {
		for _, action := range []string{ActionCreate, ActionRead, ActionUpdate, ActionDelete} {
			admin[resource+":"+action] = struct{}{}
		}
	}
	teacher := map[string]struct{}{
		"user:read":       {},
		"profile:read":    {},
		"profile:update":  {},
		"student:read":    {},
		"class:read":      {},
		"enrollment:read": {},
		"grade:read":      {},
	}
	return map[string]map[string]struct{}{models.RoleAdmin: admin, models.RoleTeacher: teacher}
}

// HasPermission reports whether role grants permission.
func HasPermission(role, permission string) bool {
	_, ok := rolePermissions[role][permission]
	return ok
}

// PermissionsFor lists the permissions of role in sorted order.
func PermissionsFor(role string) []string {
	set := rolePermissions[role]
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
