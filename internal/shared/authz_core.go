package shared

// Core console permissions.
const (
	PermUsersView = "users.view"
	PermUsersEdit = "users.edit"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermPermissionsView = "permissions.view"

	PermStoresView = "stores.view"
	PermStoresEdit = "stores.edit"

	PermHierarchyView = "hierarchy.view"
	PermHierarchyEdit = "hierarchy.edit"

	PermRulesView = "rules.view"
	PermRulesEdit = "rules.edit"

	PermAssignmentsView = "assignments.view"
	PermAssignmentsEdit = "assignments.edit"
)

// CoreScopes lists all permissions related to the console platform.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersEdit,
		PermRolesView,
		PermRolesEdit,
		PermPermissionsView,
		PermStoresView,
		PermStoresEdit,
		PermHierarchyView,
		PermHierarchyEdit,
		PermRulesView,
		PermRulesEdit,
		PermAssignmentsView,
		PermAssignmentsEdit,
	}
}
