// README: Users, worker roles, and the users-grouped-by-stage-role view.
package account

import "atelier/internal/types"

type User struct {
	ID          types.ID `json:"id"`
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email"`
	FCMToken    *string  `json:"fcm_token,omitempty"`
	Roles       []string `json:"roles,omitempty"`
}

type Role struct {
	Name        string `json:"name"` // slug, referenced by stage_roles.role_type
	DisplayName string `json:"display_name"`
}

// StageRoleGroup is one row of the composite view: the users holding a role
// required by a stage. The view spans users, roles, and stages, which is why
// its cache entry is registered under all three tags.
type StageRoleGroup struct {
	StageID   types.ID `json:"stage_id"`
	StageName string   `json:"stage_name"`
	RoleType  string   `json:"role_type"`
	Users     []User   `json:"users"`
}
