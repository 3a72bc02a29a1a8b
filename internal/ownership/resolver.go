package ownership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/groundwork-re/groundwork/internal/entity"
	"github.com/groundwork-re/groundwork/internal/shared"
)

// EntityDirectory resolves entity records for tree annotation.
type EntityDirectory interface {
	Get(ctx context.Context, id int64) (entity.Entity, error)
}

// RelationshipSource is the read-only slice of the store the resolver needs.
type RelationshipSource interface {
	ListByEntity(ctx context.Context, entityID int64, filters ListFilters) ([]Relationship, error)
}

// Resolver walks the ownership graph. Traversals are depth-first with a
// per-path visited set: a repeated entity id truncates that branch instead of
// recursing, so even a malformed cyclic graph terminates in O(E) edge visits.
type Resolver struct {
	rels     RelationshipSource
	entities EntityDirectory
	logger   *slog.Logger
}

func NewResolver(rels RelationshipSource, entities EntityDirectory, logger *slog.Logger) *Resolver {
	return &Resolver{rels: rels, entities: entities, logger: logger}
}

// SubsidiaryTree expands every active ownership edge outward from the root.
// The root carries 100% effective ownership; each child multiplies its direct
// percentage by the parent's effective percentage. Warnings name entities
// that could not be read; their branches are skipped, not fatal.
func (r *Resolver) SubsidiaryTree(ctx context.Context, rootID int64) (*Node, []string, error) {
	root, err := r.entities.Get(ctx, rootID)
	if err != nil {
		return nil, nil, err
	}
	node := &Node{
		EntityID:           root.ID,
		Name:               root.Name,
		DirectOwnership:    100,
		EffectiveOwnership: 100,
	}
	var warnings []string
	if err := r.expand(ctx, node, map[int64]struct{}{rootID: {}}, &warnings); err != nil {
		return nil, warnings, err
	}
	return node, warnings, nil
}

func (r *Resolver) expand(ctx context.Context, parent *Node, visited map[int64]struct{}, warnings *[]string) error {
	edges, err := r.rels.ListByEntity(ctx, parent.EntityID, ListFilters{AsParent: true, ActiveOnly: true})
	if err != nil {
		return err
	}
	for _, edge := range edges {
		if edge.Type != RelationshipOwnership {
			continue
		}
		child := &Node{
			EntityID:           edge.ChildID,
			DirectOwnership:    edge.Percentage,
			EffectiveOwnership: edge.Percentage * parent.EffectiveOwnership / 100,
			Depth:              parent.Depth + 1,
		}
		if _, seen := visited[edge.ChildID]; seen {
			// Back-edge: keep the node so reviewers can see the offending
			// branch, but never recurse into it.
			child.Truncated = true
			*warnings = append(*warnings, fmt.Sprintf("ownership cycle: entity %d already on the path from entity %d, branch truncated", edge.ChildID, parent.EntityID))
			r.log().Warn("ownership cycle truncated",
				slog.Int64("parent_id", parent.EntityID),
				slog.Int64("child_id", edge.ChildID))
			parent.Children = append(parent.Children, child)
			continue
		}
		ent, err := r.entities.Get(ctx, edge.ChildID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				*warnings = append(*warnings, fmt.Sprintf("entity %d unreachable: %v", edge.ChildID, err))
				continue
			}
			return err
		}
		child.Name = ent.Name
		branch := cloneVisited(visited)
		branch[edge.ChildID] = struct{}{}
		if err := r.expand(ctx, child, branch, warnings); err != nil {
			return err
		}
		parent.Children = append(parent.Children, child)
	}
	return nil
}

// OwnershipChain is the upward dual of SubsidiaryTree: it walks active
// inbound edges toward ultimate owners, with the same cycle guard.
func (r *Resolver) OwnershipChain(ctx context.Context, entityID int64) ([]ChainLink, error) {
	if _, err := r.entities.Get(ctx, entityID); err != nil {
		return nil, err
	}
	var chain []ChainLink
	err := r.climb(ctx, entityID, 1, map[int64]struct{}{entityID: {}}, &chain)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(chain, func(i, j int) bool {
		if chain[i].Depth != chain[j].Depth {
			return chain[i].Depth < chain[j].Depth
		}
		return chain[i].Name < chain[j].Name
	})
	return chain, nil
}

func (r *Resolver) climb(ctx context.Context, entityID int64, depth int, visited map[int64]struct{}, chain *[]ChainLink) error {
	edges, err := r.rels.ListByEntity(ctx, entityID, ListFilters{AsChild: true, ActiveOnly: true})
	if err != nil {
		return err
	}
	for _, edge := range edges {
		if edge.Type != RelationshipOwnership {
			continue
		}
		link := ChainLink{EntityID: edge.ParentID, Percentage: edge.Percentage, Depth: depth}
		if _, seen := visited[edge.ParentID]; seen {
			link.Truncated = true
			*chain = append(*chain, link)
			continue
		}
		ent, err := r.entities.Get(ctx, edge.ParentID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				continue
			}
			return err
		}
		link.Name = ent.Name
		*chain = append(*chain, link)
		branch := cloneVisited(visited)
		branch[edge.ParentID] = struct{}{}
		if err := r.climb(ctx, edge.ParentID, depth+1, branch, chain); err != nil {
			return err
		}
	}
	return nil
}

// FlattenGroup reduces a subsidiary tree to one row per entity. Diamond
// ownership (one entity reachable through two paths) sums the effective
// percentages path by path; depth and direct ownership come from the
// shallowest occurrence.
func FlattenGroup(root *Node) []GroupMember {
	if root == nil {
		return nil
	}
	byID := make(map[int64]*GroupMember)
	var walk func(n *Node)
	walk = func(n *Node) {
		if m, ok := byID[n.EntityID]; ok {
			m.EffectiveOwnership += n.EffectiveOwnership
			if n.Depth < m.Depth {
				m.Depth = n.Depth
				m.DirectOwnership = n.DirectOwnership
				if n.Name != "" {
					m.Name = n.Name
				}
			}
		} else {
			byID[n.EntityID] = &GroupMember{
				EntityID:           n.EntityID,
				Name:               n.Name,
				DirectOwnership:    n.DirectOwnership,
				EffectiveOwnership: n.EffectiveOwnership,
				Depth:              n.Depth,
			}
		}
		for _, child := range n.Children {
			if child.Truncated {
				continue
			}
			walk(child)
		}
	}
	walk(root)

	members := make([]GroupMember, 0, len(byID))
	for _, m := range byID {
		members = append(members, *m)
	}
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Depth != members[j].Depth {
			return members[i].Depth < members[j].Depth
		}
		return members[i].Name < members[j].Name
	})
	return members
}

func cloneVisited(visited map[int64]struct{}) map[int64]struct{} {
	clone := make(map[int64]struct{}, len(visited)+1)
	for id := range visited {
		clone[id] = struct{}{}
	}
	return clone
}

func (r *Resolver) log() *slog.Logger {
	if r != nil && r.logger != nil {
		return r.logger.With(slog.String("component", "ownership_resolver"))
	}
	return slog.Default().With(slog.String("component", "ownership_resolver"))
}
