package auth

// Well-known roles.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleCustomer = "customer"
)

// Capabilities gate individual operations. Admins implicitly hold all of
// them; other roles map to a fixed subset.
const (
	CapProductWrite   = "product:write"
	CapVoucherWrite   = "voucher:write"
	CapVoucherApprove = "voucher:approve"
	CapOrderManage    = "order:manage"
	CapStockRead      = "stock:read"
	CapFinanceRead    = "finance:read"
	CapFinanceWrite   = "finance:write"
)

// roleCapabilities maps each role to the capabilities it grants.
var roleCapabilities = map[string][]string{
	RoleManager: {
		CapProductWrite,
		CapVoucherWrite,
		CapVoucherApprove,
		CapOrderManage,
		CapStockRead,
		CapFinanceRead,
	},
	RoleCustomer: {},
}

// CapabilitiesFor flattens the capabilities granted by a set of roles.
func CapabilitiesFor(roles []string) []string {
	seen := make(map[string]struct{})
	var caps []string
	for _, r := range roles {
		for _, c := range roleCapabilities[r] {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			caps = append(caps, c)
		}
	}
	return caps
}
