package auth

import "slices"

// Role is the coarse role carried in the token
type Role string

// Roles known to the settlement service
const (
	RoleAdmin   Role = "ADMIN"
	RoleSales   Role = "SALES"
	RoleStock   Role = "STOCK"
	RoleFinance Role = "FINANCE"
	RoleViewer  Role = "VIEWER"
)

// Capabilities checked by the HTTP layer
const (
	CapStockRead      = "stock:read"
	CapStockWrite     = "stock:write"
	CapStockAllocate  = "stock:allocate"
	CapSalesRead      = "sales:read"
	CapSalesCreate    = "sales:create"
	CapSalesCancel    = "sales:cancel"
	CapSalesDelete    = "sales:delete"
	CapReceivablesPay = "receivables:pay"
	CapKitsRead       = "kits:read"
	CapKitsWrite      = "kits:write"
	CapProjectsRead   = "projects:read"
	CapProjectsWrite  = "projects:write"
	CapDocumentsRead  = "documents:read"
	CapDocumentsWrite = "documents:write"
)

var readOnly = []string{
	CapStockRead, CapSalesRead, CapKitsRead, CapProjectsRead, CapDocumentsRead,
}

var roleCapabilities = map[Role][]string{
	RoleAdmin: append(slices.Clone(readOnly),
		CapStockWrite, CapStockAllocate,
		CapSalesCreate, CapSalesCancel, CapSalesDelete,
		CapReceivablesPay, CapKitsWrite, CapProjectsWrite, CapDocumentsWrite),
	RoleSales: append(slices.Clone(readOnly),
		CapSalesCreate, CapSalesCancel, CapKitsWrite, CapProjectsWrite, CapDocumentsWrite),
	RoleStock: append(slices.Clone(readOnly),
		CapStockWrite, CapStockAllocate, CapKitsWrite),
	RoleFinance: append(slices.Clone(readOnly),
		CapReceivablesPay, CapSalesCancel, CapSalesDelete, CapDocumentsWrite),
	RoleViewer: slices.Clone(readOnly),
}

// IsValid reports whether the role is known
func (r Role) IsValid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Capabilities returns a copy of the role's capability set, nil for an
// unknown role
func Capabilities(r Role) []string {
	caps, ok := roleCapabilities[r]
	if !ok {
		return nil
	}
	out := slices.Clone(caps)
	slices.Sort(out)
	return out
}

// Can reports whether the role grants the capability
func Can(r Role, capability string) bool {
	return slices.Contains(roleCapabilities[r], capability)
}
