package models

type Role string

const (
	RoleSuperAdmin     Role = "super_admin"
	RoleContentManager Role = "content_manager"
	RoleFinanceAdmin   Role = "finance_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleContentManager, RoleFinanceAdmin:
		return true
	}
	return false
}
