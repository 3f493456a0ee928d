package channel

import (
	"sort"

	"github.com/channelsync/backend/internal/domain/catalog"
)

// EffectiveCatalog pairs a catalog with the pricing strategy that results
// from merging the catalog link's override into the catalog's base strategy.
type EffectiveCatalog struct {
	Catalog   *catalog.Catalog
	Link      *CatalogLink
	Effective catalog.PricingStrategy
}

// ResolveEffectiveCatalogs returns the channel's active catalogs in sync
// order: link priority descending, catalog name ascending on ties. Links to
// inactive or missing catalogs are skipped.
func ResolveEffectiveCatalogs(links []CatalogLink, catalogs map[string]*catalog.Catalog) []EffectiveCatalog {
	resolved := make([]EffectiveCatalog, 0, len(links))
	for i := range links {
		link := &links[i]
		if !link.IsActive {
			continue
		}
		c, ok := catalogs[link.CatalogID.String()]
		if !ok || !c.IsActive {
			continue
		}
		effective := c.PricingStrategy
		if link.StrategyOverride != nil {
			effective = link.StrategyOverride.ApplyTo(effective)
		}
		resolved = append(resolved, EffectiveCatalog{
			Catalog:   c,
			Link:      link,
			Effective: effective,
		})
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		if resolved[i].Link.Priority != resolved[j].Link.Priority {
			return resolved[i].Link.Priority > resolved[j].Link.Priority
		}
		return resolved[i].Catalog.Name < resolved[j].Catalog.Name
	})
	return resolved
}

// rolePermissions is the fixed role to default permission-set table
var rolePermissions = map[Role]Permissions{
	RoleOwner: {
		CanManageProducts: true,
		CanManageOrders:   true,
		CanManageSettings: true,
		CanViewReports:    true,
	},
	RoleManager: {
		CanManageProducts: true,
		CanManageOrders:   true,
		CanManageSettings: false,
		CanViewReports:    true,
	},
	RoleViewer: {
		CanViewReports: true,
	},
}

// ResolveEffectivePermissions derives the permission set for a tenant link.
// Role defaults apply first; fields explicitly set on the link override the
// defaults field by field.
func ResolveEffectivePermissions(link *TenantLink) Permissions {
	effective := rolePermissions[link.Role]
	if link.Permissions == nil {
		return effective
	}
	if link.Permissions.CanManageProducts != nil {
		effective.CanManageProducts = *link.Permissions.CanManageProducts
	}
	if link.Permissions.CanManageOrders != nil {
		effective.CanManageOrders = *link.Permissions.CanManageOrders
	}
	if link.Permissions.CanManageSettings != nil {
		effective.CanManageSettings = *link.Permissions.CanManageSettings
	}
	if link.Permissions.CanViewReports != nil {
		effective.CanViewReports = *link.Permissions.CanViewReports
	}
	return effective
}
