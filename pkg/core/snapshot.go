package core

import "github.com/namuan/whiteboard/pkg/geom"

// Snapshot is a read-only, point-in-time copy of a scene's state. It shares
// nothing mutable with the live scene, so a save or render running on another
// goroutine never observes edits made after the snapshot was taken.
type Snapshot struct {
	Notes       []*Note
	Images      []*Image
	Connections []*Connection
	Groups      []*Group

	Bounds geom.Rect
	Zoom   float64
	Pan    geom.Point
}

// Snapshot copies the scene's entities, bounds, and view state. Entities are
// listed in creation order. Must be called on the scene's mutation goroutine.
func (s *Scene) Snapshot() *Snapshot {
	snap := &Snapshot{
		Notes:       make([]*Note, 0, len(s.noteOrder)),
		Images:      make([]*Image, 0, len(s.imageOrder)),
		Connections: make([]*Connection, 0, len(s.connOrder)),
		Groups:      make([]*Group, 0, len(s.groupOrder)),
		Bounds:      s.bounds,
		Zoom:        s.viewport.Zoom(),
		Pan:         s.viewport.Pan(),
	}
	for _, id := range s.noteOrder {
		snap.Notes = append(snap.Notes, s.notes[id].Clone())
	}
	for _, id := range s.imageOrder {
		snap.Images = append(snap.Images, s.images[id].Clone())
	}
	for _, id := range s.connOrder {
		snap.Connections = append(snap.Connections, s.connections[id].Clone())
	}
	for _, id := range s.groupOrder {
		snap.Groups = append(snap.Groups, s.groups[id].Clone())
	}
	return snap
}

// EntityCount returns the total number of entities in the snapshot.
func (sn *Snapshot) EntityCount() int {
	return len(sn.Notes) + len(sn.Images) + len(sn.Connections) + len(sn.Groups)
}

// ContentBounds returns the minimal rectangle enclosing the snapshot's
// positioned entities.
func (sn *Snapshot) ContentBounds() geom.Rect {
	var b geom.Rect
	for _, n := range sn.Notes {
		b = b.Union(n.Bounds())
	}
	for _, im := range sn.Images {
		b = b.Union(im.Bounds())
	}
	for _, g := range sn.Groups {
		b = b.Union(g.Bounds)
	}
	return b
}
