package models

// StorefrontItemGroup is one node of the storefront category menu.
type StorefrontItemGroup struct {
	Name      string                `json:"name"`
	Route     string                `json:"route"`
	Parent    string                `json:"parent_item_group,omitempty"`
	Subgroups []StorefrontItemGroup `json:"subgroups,omitempty"`
}
