package category_tree

import (
	"context"

	"github.com/Modeva-Ecommerce/modeva-webshop/models"
)

// Menu returns the groups shown on the website as a nested tree. A visible
// group whose parent is hidden is lifted to the top level.
func (s *Service) Menu(ctx context.Context) ([]models.StorefrontItemGroup, error) {
	groups, err := s.Groups(ctx)
	if err != nil {
		return nil, err
	}

	visible := make(map[string]bool, len(groups))
	for _, g := range groups {
		if g.ShowInWebsite {
			visible[g.Name] = true
		}
	}

	// groups come ordered by lft, so children keep their tree order
	var roots []models.ItemGroup
	children := make(map[string][]models.ItemGroup)
	for _, g := range groups {
		if !visible[g.Name] {
			continue
		}
		if g.ParentItemGroup != "" && visible[g.ParentItemGroup] {
			children[g.ParentItemGroup] = append(children[g.ParentItemGroup], g)
			continue
		}
		roots = append(roots, g)
	}

	var build func(g models.ItemGroup) models.StorefrontItemGroup
	build = func(g models.ItemGroup) models.StorefrontItemGroup {
		node := models.StorefrontItemGroup{Name: g.Name, Route: g.Route, Parent: g.ParentItemGroup}
		for _, child := range children[g.Name] {
			node.Subgroups = append(node.Subgroups, build(child))
		}
		return node
	}

	menu := make([]models.StorefrontItemGroup, 0, len(roots))
	for _, g := range roots {
		menu = append(menu, build(g))
	}
	return menu, nil
}
