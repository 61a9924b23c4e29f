// Package category_tree maintains the item group hierarchy: nested-interval
// bounds, descendant and ancestor lookups, breadcrumbs and the cache-clear
// signal sent when a group's membership changes.
package category_tree

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/apperrors"
	"github.com/Modeva-Ecommerce/modeva-webshop/cache/category_cache"
	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/models"
	"github.com/Modeva-Ecommerce/modeva-webshop/store"
)

// OptionsInvalidator drops cached filter options of item groups.
type OptionsInvalidator interface {
	InvalidateGroups(ctx context.Context, groups ...string) error
}

// Crumb is one breadcrumb link.
type Crumb struct {
	Name  string `json:"name"`
	Route string `json:"route"`
}

// Service reads the item group tree through a short-lived snapshot.
type Service struct {
	groups  store.Repository[models.ItemGroup]
	tree    *category_cache.Tree
	options OptionsInvalidator
}

// New creates the service. options may be nil.
func New(groups store.Repository[models.ItemGroup], tree *category_cache.Tree, options OptionsInvalidator) *Service {
	if tree == nil {
		tree = category_cache.New(0)
	}
	return &Service{groups: groups, tree: tree, options: options}
}

// Groups returns every item group ordered by lft.
func (s *Service) Groups(ctx context.Context) ([]models.ItemGroup, error) {
	if groups, ok := s.tree.Get(); ok {
		return groups, nil
	}
	groups, err := s.groups.Query(ctx, store.Query{})
	if err != nil {
		return nil, err
	}
	s.tree.Set(groups)
	return groups, nil
}

// Get returns one group; ok is false when it does not exist.
func (s *Service) Get(ctx context.Context, name string) (models.ItemGroup, bool, error) {
	if g, ok := s.tree.Lookup(name); ok {
		return g, true, nil
	}
	if _, err := s.Groups(ctx); err != nil {
		return models.ItemGroup{}, false, err
	}
	g, ok := s.tree.Lookup(name)
	return g, ok, nil
}

// Descendants returns the website-visible groups below name, ordered by name.
// With includeSelf the group itself is part of the result when visible.
func (s *Service) Descendants(ctx context.Context, name string, includeSelf bool) ([]string, error) {
	root, ok, err := s.Get(ctx, name)
	if err != nil || !ok {
		return nil, err
	}
	groups, err := s.Groups(ctx)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, g := range groups {
		if !g.ShowInWebsite {
			continue
		}
		inside := g.Lft > root.Lft && g.Rgt < root.Rgt
		if includeSelf {
			inside = g.Lft >= root.Lft && g.Rgt <= root.Rgt
		}
		if inside {
			out = append(out, g.Name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Ancestors returns the groups whose bounds contain name's bounds, the group
// itself included, ordered from the root down. With visibleOnly hidden groups
// are skipped.
func (s *Service) Ancestors(ctx context.Context, name string, visibleOnly bool) ([]models.ItemGroup, error) {
	leaf, ok, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.NotFound("category_tree.ancestors", fmt.Sprintf("Item Group %s not found", name))
	}
	groups, err := s.Groups(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.ItemGroup
	for _, g := range groups {
		if visibleOnly && !g.ShowInWebsite {
			continue
		}
		if g.Lft <= leaf.Lft && g.Rgt >= leaf.Rgt {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Lft < out[j].Lft })
	return out, nil
}

// Breadcrumbs returns Home, the catalog landing page and the visible ancestors
// of name. An empty name yields the first two only.
func (s *Service) Breadcrumbs(ctx context.Context, name string, settings models.WebshopSettings) ([]Crumb, error) {
	landing := Crumb{Name: "All Products", Route: "/all-products"}
	if settings.EnableFieldFilters {
		landing = Crumb{Name: "Shop by Category", Route: "/shop-by-category"}
	}
	crumbs := []Crumb{{Name: "Home", Route: "/"}, landing}
	if name == "" {
		return crumbs, nil
	}

	ancestors, err := s.Ancestors(ctx, name, true)
	if err != nil {
		return nil, err
	}
	for _, g := range ancestors {
		crumbs = append(crumbs, Crumb{Name: g.Name, Route: g.Route})
	}
	return crumbs, nil
}

// Rebuild recomputes lft/rgt for the whole tree with a depth-first walk,
// visiting siblings by name, and saves the groups whose bounds moved.
func (s *Service) Rebuild(ctx context.Context) error {
	groups, err := s.groups.Query(ctx, store.Query{OrderBy: []store.Order{{Field: "name"}}})
	if err != nil {
		return err
	}

	children := make(map[string][]int)
	known := make(map[string]bool, len(groups))
	for _, g := range groups {
		known[g.Name] = true
	}
	var roots []int
	for i, g := range groups {
		if g.ParentItemGroup == "" || !known[g.ParentItemGroup] {
			roots = append(roots, i)
			continue
		}
		children[g.ParentItemGroup] = append(children[g.ParentItemGroup], i)
	}

	bounds := make(map[string][2]int, len(groups))
	counter := 0
	var walk func(i int)
	walk = func(i int) {
		counter++
		lft := counter
		for _, c := range children[groups[i].Name] {
			walk(c)
		}
		counter++
		bounds[groups[i].Name] = [2]int{lft, counter}
	}
	for _, r := range roots {
		walk(r)
	}

	moved := 0
	for i := range groups {
		g := &groups[i]
		b, ok := bounds[g.Name]
		if !ok {
			// Unreachable from a root: a parent cycle slipped past validation.
			return apperrors.Validation("category_tree.rebuild",
				fmt.Sprintf("Item Group %s is part of a parent cycle", g.Name), nil)
		}
		if g.Lft == b[0] && g.Rgt == b[1] {
			continue
		}
		g.Lft, g.Rgt = b[0], b[1]
		if err := s.groups.Save(ctx, g); err != nil {
			return err
		}
		moved++
	}

	s.tree.Invalidate()
	logger.GetLogger().Debug("item group tree rebuilt",
		zap.Int("groups", len(groups)),
		zap.Int("moved", moved))
	return nil
}

// ValidateParent rejects a parent that does not exist or lies inside g.
func (s *Service) ValidateParent(ctx context.Context, g *models.ItemGroup) error {
	op := "category_tree.validate_parent"
	if g.ParentItemGroup == "" {
		return nil
	}
	if g.ParentItemGroup == g.Name {
		return apperrors.Validation(op, fmt.Sprintf("Item Group %s cannot be its own parent", g.Name), nil)
	}
	parent, err := s.groups.Get(ctx, g.ParentItemGroup)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.Validation(op, fmt.Sprintf("Parent Item Group %s does not exist", g.ParentItemGroup), err)
		}
		return err
	}
	if g.Rgt > g.Lft && parent.Lft > g.Lft && parent.Rgt < g.Rgt {
		return apperrors.Validation(op,
			fmt.Sprintf("Item Group %s cannot move under its descendant %s", g.Name, parent.Name), nil)
	}
	return nil
}

// HasChildren reports whether any group has name as its parent.
func (s *Service) HasChildren(ctx context.Context, name string) (bool, error) {
	n, err := s.groups.Count(ctx, store.Filter(store.Where("parent_item_group", store.OpEq, name)))
	return n > 0, err
}

// InvalidateFor sends the cache-clear signal for groups and all their
// ancestors. Unknown groups are passed through as-is.
func (s *Service) InvalidateFor(ctx context.Context, groups ...string) error {
	s.tree.Invalidate()
	if s.options == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, name := range groups {
		if name == "" {
			continue
		}
		chain, err := s.Ancestors(ctx, name, false)
		if err != nil && !apperrors.IsNotFound(err) {
			return err
		}
		if len(chain) == 0 {
			chain = []models.ItemGroup{{Name: name}}
		}
		for _, g := range chain {
			if !seen[g.Name] {
				seen[g.Name] = true
				names = append(names, g.Name)
			}
		}
	}
	return s.options.InvalidateGroups(ctx, names...)
}
