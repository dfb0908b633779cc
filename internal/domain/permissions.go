package domain

// Role levels. Lower is more privileged.
const (
	LevelAdmin   = 1
	LevelSpecial = 2
	LevelUser    = 3
)

// Capability is a single permission checked before a mutating operation.
type Capability int

const (
	ManageUsers Capability = iota + 1
	ManageProducts
	ManageCategories
	ViewReports
	ManageSettings
	DeleteRecords
)

func (c Capability) String() string {
	switch c {
	case ManageUsers:
		return "manage_users"
	case ManageProducts:
		return "manage_products"
	case ManageCategories:
		return "manage_categories"
	case ViewReports:
		return "view_reports"
	case ManageSettings:
		return "manage_settings"
	case DeleteRecords:
		return "delete_records"
	default:
		return "unknown"
	}
}

// Capabilities is the permission set of a role level.
type Capabilities struct {
	CanManageUsers      bool `json:"canManageUsers"`
	CanManageProducts   bool `json:"canManageProducts"`
	CanManageCategories bool `json:"canManageCategories"`
	CanViewReports      bool `json:"canViewReports"`
	CanManageSettings   bool `json:"canManageSettings"`
	CanDeleteRecords    bool `json:"canDeleteRecords"`
}

var (
	adminCapabilities = Capabilities{
		CanManageUsers:      true,
		CanManageProducts:   true,
		CanManageCategories: true,
		CanViewReports:      true,
		CanManageSettings:   true,
		CanDeleteRecords:    true,
	}
	specialCapabilities = Capabilities{
		CanManageProducts:   true,
		CanManageCategories: true,
		CanViewReports:      true,
		CanDeleteRecords:    true,
	}
	userCapabilities = Capabilities{
		CanManageProducts: true,
	}
)

// CapabilitiesFor maps a role level to its capability set. Unknown levels get
// the least privileged set.
func CapabilitiesFor(level int) Capabilities {
	switch level {
	case LevelAdmin:
		return adminCapabilities
	case LevelSpecial:
		return specialCapabilities
	default:
		return userCapabilities
	}
}

// Allows reports whether the set grants c.
func (c Capabilities) Allows(capability Capability) bool {
	switch capability {
	case ManageUsers:
		return c.CanManageUsers
	case ManageProducts:
		return c.CanManageProducts
	case ManageCategories:
		return c.CanManageCategories
	case ViewReports:
		return c.CanViewReports
	case ManageSettings:
		return c.CanManageSettings
	case DeleteRecords:
		return c.CanDeleteRecords
	default:
		return false
	}
}

// AllowsAll reports whether every capability is granted.
func (c Capabilities) AllowsAll(capabilities ...Capability) bool {
	for _, capability := range capabilities {
		if !c.Allows(capability) {
			return false
		}
	}
	return true
}
