package evaluation

import "fmt"

// Catalog is the read-only criteria catalog for one role, grouped by theme.
// It is fetched once per workflow instance and never mutated afterwards.
type Catalog struct {
	groups       []CriteriaGroup
	items        []CriteriaItem
	groupNames   map[int64]string
	itemsByGroup map[int64][]CriteriaItem
}

func NewCatalog(groups []CriteriaGroup, items []CriteriaItem) *Catalog {
	c := &Catalog{
		groups:       append([]CriteriaGroup(nil), groups...),
		groupNames:   make(map[int64]string, len(groups)),
		itemsByGroup: make(map[int64][]CriteriaItem, len(groups)),
	}
	for _, group := range groups {
		c.groupNames[group.ID] = group.Name
	}
	c.items = make([]CriteriaItem, 0, len(items))
	for _, item := range items {
		item.GroupName = c.ResolveGroupName(item.GroupID)
		c.items = append(c.items, item)
		c.itemsByGroup[item.GroupID] = append(c.itemsByGroup[item.GroupID], item)
	}
	return c
}

// ResolveGroupName returns the display name for a group id, falling back to a
// synthesized name when the id is not in the fetched group list. An item with
// an unresolvable group is a data error handled by this fallback, not rejected.
func (c *Catalog) ResolveGroupName(id int64) string {
	if name, ok := c.groupNames[id]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("Group %d", id)
}

func (c *Catalog) Groups() []CriteriaGroup {
	return c.groups
}

func (c *Catalog) Items() []CriteriaItem {
	return c.items
}

func (c *Catalog) ItemsForGroup(groupID int64) []CriteriaItem {
	return c.itemsByGroup[groupID]
}

// GroupIDs returns group ids in catalog order; this order defines lateral
// navigation and the "first group" used for selector error flagging.
func (c *Catalog) GroupIDs() []int64 {
	ids := make([]int64, 0, len(c.groups))
	for _, group := range c.groups {
		ids = append(ids, group.ID)
	}
	return ids
}

func (c *Catalog) FirstGroupID() (int64, bool) {
	if len(c.groups) == 0 {
		return 0, false
	}
	return c.groups[0].ID, true
}

// IndexOfGroup returns the position of a group in catalog order, or -1.
func (c *Catalog) IndexOfGroup(groupID int64) int {
	for i, group := range c.groups {
		if group.ID == groupID {
			return i
		}
	}
	return -1
}

func (c *Catalog) HasGroup(groupID int64) bool {
	return c.IndexOfGroup(groupID) >= 0
}
