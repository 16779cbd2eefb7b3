package auth

import (
	"retail-ops-api/internal/models"
)

// Action is a capability string checked before every mutating operation.
type Action string

const (
	ActionManageProducts      Action = "manage_products"
	ActionReceiveStock        Action = "receive_stock"
	ActionManageUsers         Action = "manage_users"
	ActionManageSettings      Action = "manage_settings"
	ActionCreateOrder         Action = "create_order"
	ActionRecordPayment       Action = "record_payment"
	ActionProcessReturn       Action = "process_return"
	ActionUpdateOrderStatus   Action = "update_order_status"
	ActionManageDemandNotices Action = "manage_demand_notices"
	ActionManageQuotations    Action = "manage_quotations"
	ActionViewReports         Action = "view_reports"
	ActionExportReports       Action = "export_reports"
)

// builtinCapabilities maps each non-admin, non-manager role to its fixed
// capability set. Admins implicitly hold everything; managers hold their
// explicit permission grants on top of a small built-in set.
var builtinCapabilities = map[models.UserRole][]Action{
	models.RoleSalesperson: {
		ActionCreateOrder,
		ActionManageDemandNotices,
		ActionManageQuotations,
	},
	models.RoleStorekeeper: {
		ActionReceiveStock,
		ActionManageProducts,
	},
	models.RoleCashier: {
		ActionRecordPayment,
		ActionProcessReturn,
		ActionViewReports,
	},
	models.RoleLogistics: {
		ActionUpdateOrderStatus,
	},
	models.RoleAuditor: {
		ActionViewReports,
		ActionExportReports,
	},
	models.RoleExpress: {
		ActionCreateOrder,
		ActionRecordPayment,
	},
	models.RoleManager: {
		ActionViewReports,
		ActionManageDemandNotices,
	},
}

// Can reports whether the user may perform the action. Admins may do
// anything; managers combine their built-ins with explicit permission
// grants; every other role is limited to its built-in set.
func Can(user *models.User, action Action) bool {
	if user == nil {
		return false
	}

	if user.Role == models.RoleAdmin {
		return true
	}

	for _, a := range builtinCapabilities[user.Role] {
		if a == action {
			return true
		}
	}

	if user.Role == models.RoleManager {
		return user.HasExplicitPermission(string(action))
	}

	return false
}
