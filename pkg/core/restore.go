package core

import (
	"fmt"

	"github.com/namuan/whiteboard/pkg/geom"
)

// Restore operations insert fully-formed entities while keeping their
// identifiers. The session codec uses them to rebuild a scene from disk and
// the history stack uses them to bring deleted entities back. They validate
// referential integrity the same way the Create operations do but never mint
// new ids or timestamps.

// AddNote inserts an existing note. The id must be unused.
func (s *Scene) AddNote(n *Note) error {
	if n.ID == "" {
		return fmt.Errorf("add note: empty id")
	}
	if s.kindOf(n.ID) != "" {
		return fmt.Errorf("add note: id %s already in use", n.ID)
	}
	n.Size = clampSize(n.Size, n.MinSize())
	s.insertNote(n)
	s.expandBounds()
	s.emit(EventCreated, KindNote, n.ID)
	return nil
}

// AddImage inserts an existing image. The id must be unused. The image bytes
// are trusted to have been validated when the entity was first created.
func (s *Scene) AddImage(im *Image) error {
	if im.ID == "" {
		return fmt.Errorf("add image: empty id")
	}
	if s.kindOf(im.ID) != "" {
		return fmt.Errorf("add image: id %s already in use", im.ID)
	}
	im.Rotation = geom.NormalizeDegrees(im.Rotation)
	im.Opacity = geom.Clamp(im.Opacity, 0, 1)
	s.insertImage(im)
	s.expandBounds()
	s.emit(EventCreated, KindImage, im.ID)
	return nil
}

// AddConnection inserts an existing connection. Both endpoints must be live
// and distinct, and no identical directed connection may exist. The path is
// recomputed unless the connection already carries one.
func (s *Scene) AddConnection(c *Connection) error {
	if c.ID == "" {
		return fmt.Errorf("add connection: empty id")
	}
	if s.kindOf(c.ID) != "" {
		return fmt.Errorf("add connection: id %s already in use", c.ID)
	}
	if c.Start == c.End {
		return fmt.Errorf("add connection: endpoints must be distinct: %s", c.Start)
	}
	if _, err := s.endpoint(c.Start); err != nil {
		return fmt.Errorf("add connection: %w", err)
	}
	if _, err := s.endpoint(c.End); err != nil {
		return fmt.Errorf("add connection: %w", err)
	}
	for _, cid := range s.connsByEndpoint[c.Start] {
		existing := s.connections[cid]
		if existing.Start == c.Start && existing.End == c.End {
			return &DuplicateConnectionError{Start: c.Start, End: c.End}
		}
	}
	s.insertConnection(c)
	if len(c.Path) < 2 {
		s.routeBase(c)
	}
	s.distributeEndpoints(c.Start, c.End)
	s.emit(EventCreated, KindConnection, c.ID)
	return nil
}

// AddGroup inserts an existing group. All members must be live notes or
// images; the derived bounds are recomputed.
func (s *Scene) AddGroup(g *Group) error {
	if g.ID == "" {
		return fmt.Errorf("add group: empty id")
	}
	if s.kindOf(g.ID) != "" {
		return fmt.Errorf("add group: id %s already in use", g.ID)
	}
	if len(g.Members) == 0 {
		return &EmptySelectionError{Got: 0, Min: 1}
	}
	g.Members = dedupIDs(g.Members)
	for _, m := range g.Members {
		if _, err := s.endpoint(m); err != nil {
			return fmt.Errorf("add group: %w", err)
		}
	}
	s.recomputeGroup(g)
	s.insertGroup(g)
	s.expandBounds()
	s.emit(EventCreated, KindGroup, g.ID)
	return nil
}

// SetBounds restores a persisted scene rectangle, keeping at least the
// initial extent. Used by the session codec; bounds stay monotonic because
// the union can only grow the default rectangle.
func (s *Scene) SetBounds(r geom.Rect) {
	s.bounds = s.bounds.Union(r)
}
