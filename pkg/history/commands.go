package history

import (
	"github.com/namuan/whiteboard/pkg/core"
	"github.com/namuan/whiteboard/pkg/geom"
)

// CreateNote creates a note on first apply and re-inserts the same entity,
// id included, on redo.
type CreateNote struct {
	Pos  geom.Point
	Text string

	note *core.Note
}

func (c *CreateNote) Apply(s *core.Scene) error {
	if c.note == nil {
		c.note = s.CreateNote(c.Pos, c.Text).Clone()
		return nil
	}
	return s.AddNote(c.note.Clone())
}

func (c *CreateNote) Revert(s *core.Scene) error {
	s.DeleteEntity(c.note.ID)
	return nil
}

func (c *CreateNote) Description() string { return "add note" }

// CreateImage places an image on first apply and re-inserts it on redo. The
// bytes are decoded once, at first apply; redo trusts the captured entity.
type CreateImage struct {
	Data     []byte
	MIMEType string
	Filename string
	Pos      geom.Point

	image *core.Image
}

func (c *CreateImage) Apply(s *core.Scene) error {
	if c.image == nil {
		im, err := s.CreateImage(c.Data, c.MIMEType, c.Filename, c.Pos)
		if err != nil {
			return err
		}
		c.image = im.Clone()
		return nil
	}
	return s.AddImage(c.image.Clone())
}

func (c *CreateImage) Revert(s *core.Scene) error {
	s.DeleteEntity(c.image.ID)
	return nil
}

func (c *CreateImage) Description() string { return "add image" }

// Connect links two entities on first apply and restores the connection,
// routed path included, on redo.
type Connect struct {
	Start core.EntityID
	End   core.EntityID

	conn *core.Connection
}

func (c *Connect) Apply(s *core.Scene) error {
	if c.conn == nil {
		conn, err := s.Connect(c.Start, c.End)
		if err != nil {
			return err
		}
		c.conn = conn.Clone()
		return nil
	}
	return s.AddConnection(c.conn.Clone())
}

func (c *Connect) Revert(s *core.Scene) error {
	s.DeleteEntity(c.conn.ID)
	return nil
}

func (c *Connect) Description() string { return "connect" }

// CreateGroup groups a selection on first apply and re-inserts the same
// group on redo.
type CreateGroup struct {
	Members []core.EntityID

	group *core.Group
}

func (c *CreateGroup) Apply(s *core.Scene) error {
	if c.group == nil {
		g, err := s.CreateGroup(c.Members)
		if err != nil {
			return err
		}
		c.group = g.Clone()
		return nil
	}
	return s.AddGroup(c.group.Clone())
}

func (c *CreateGroup) Revert(s *core.Scene) error {
	s.DeleteEntity(c.group.ID)
	return nil
}

func (c *CreateGroup) Description() string { return "group items" }

// Move repositions an entity. The caller records the position before the
// drag so the command can take it back.
type Move struct {
	ID   core.EntityID
	From geom.Point
	To   geom.Point
}

func (c *Move) Apply(s *core.Scene) error  { return s.MoveEntity(c.ID, c.To) }
func (c *Move) Revert(s *core.Scene) error { return s.MoveEntity(c.ID, c.From) }
func (c *Move) Description() string        { return "move" }

// Resize changes an entity's footprint. The revert restores the exact prior
// size, so aspect correction only runs on the forward edit.
type Resize struct {
	ID             core.EntityID
	From           geom.Size
	To             geom.Size
	MaintainAspect bool
}

func (c *Resize) Apply(s *core.Scene) error {
	return s.ResizeEntity(c.ID, c.To, c.MaintainAspect)
}

func (c *Resize) Revert(s *core.Scene) error {
	return s.ResizeEntity(c.ID, c.From, false)
}

func (c *Resize) Description() string { return "resize" }

// Rotate turns an image by a relative number of degrees.
type Rotate struct {
	ID      core.EntityID
	Degrees float64
}

func (c *Rotate) Apply(s *core.Scene) error  { return s.RotateImage(c.ID, c.Degrees) }
func (c *Rotate) Revert(s *core.Scene) error { return s.RotateImage(c.ID, -c.Degrees) }
func (c *Rotate) Description() string        { return "rotate image" }

// SetText replaces a note's text.
type SetText struct {
	ID   core.EntityID
	From string
	To   string
}

func (c *SetText) Apply(s *core.Scene) error  { return s.SetNoteText(c.ID, c.To) }
func (c *SetText) Revert(s *core.Scene) error { return s.SetNoteText(c.ID, c.From) }
func (c *SetText) Description() string        { return "edit text" }

// SetStyle replaces an entity's style record.
type SetStyle struct {
	ID   core.EntityID
	From core.Style
	To   core.Style
}

func (c *SetStyle) Apply(s *core.Scene) error  { return s.SetStyle(c.ID, c.To) }
func (c *SetStyle) Revert(s *core.Scene) error { return s.SetStyle(c.ID, c.From) }
func (c *SetStyle) Description() string        { return "set style" }

// Delete removes a selection of entities. Before the first apply it records
// everything the cascade will take with it: attached connections, groups
// left empty, and memberships in groups that survive. The revert rebuilds
// all of it with the original identifiers.
type Delete struct {
	IDs []core.EntityID

	captured    bool
	targets     []core.EntityID
	notes       []*core.Note
	images      []*core.Image
	conns       []*core.Connection
	groups      []*core.Group
	memberships []membership
}

// membership records members removed from a group that outlives the delete.
type membership struct {
	groupID core.EntityID
	members []core.EntityID
}

func (c *Delete) Apply(s *core.Scene) error {
	if !c.captured {
		c.capture(s)
		c.captured = true
	}
	for _, id := range c.targets {
		s.DeleteEntity(id)
	}
	return nil
}

func (c *Delete) Revert(s *core.Scene) error {
	for _, n := range c.notes {
		if err := s.AddNote(n.Clone()); err != nil {
			return err
		}
	}
	for _, im := range c.images {
		if err := s.AddImage(im.Clone()); err != nil {
			return err
		}
	}
	for _, conn := range c.conns {
		if err := s.AddConnection(conn.Clone()); err != nil {
			return err
		}
	}
	for _, g := range c.groups {
		if err := s.AddGroup(g.Clone()); err != nil {
			return err
		}
	}
	for _, m := range c.memberships {
		for _, member := range m.members {
			if err := s.AddToGroup(m.groupID, member); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Delete) Description() string { return "delete items" }

func (c *Delete) capture(s *core.Scene) {
	targetSet := make(map[core.EntityID]bool, len(c.IDs))
	var endpoints []core.EntityID
	for _, id := range c.IDs {
		if targetSet[id] {
			continue
		}
		if n, ok := s.Note(id); ok {
			c.notes = append(c.notes, n.Clone())
			endpoints = append(endpoints, id)
		} else if im, ok := s.Image(id); ok {
			c.images = append(c.images, im.Clone())
			endpoints = append(endpoints, id)
		} else if conn, ok := s.Connection(id); ok {
			c.conns = append(c.conns, conn.Clone())
		} else if g, ok := s.Group(id); ok {
			c.groups = append(c.groups, g.Clone())
		} else {
			// Already gone; deleting it is a no-op either way.
			continue
		}
		targetSet[id] = true
		c.targets = append(c.targets, id)
	}

	// Connections and groups the cascade will drop alongside a note or
	// image target.
	capturedConns := make(map[core.EntityID]bool)
	capturedGroups := make(map[core.EntityID]bool)
	removedBy := make(map[core.EntityID][]core.EntityID)
	var touchedGroups []core.EntityID
	for _, id := range endpoints {
		for _, conn := range s.ConnectionsFor(id) {
			if targetSet[conn.ID] || capturedConns[conn.ID] {
				continue
			}
			capturedConns[conn.ID] = true
			c.conns = append(c.conns, conn.Clone())
		}
		for _, g := range s.GroupsFor(id) {
			if targetSet[g.ID] || capturedGroups[g.ID] {
				continue
			}
			if emptiedBy(g, targetSet) {
				capturedGroups[g.ID] = true
				c.groups = append(c.groups, g.Clone())
				continue
			}
			if removedBy[g.ID] == nil {
				touchedGroups = append(touchedGroups, g.ID)
			}
			removedBy[g.ID] = append(removedBy[g.ID], id)
		}
	}
	for _, gid := range touchedGroups {
		c.memberships = append(c.memberships, membership{groupID: gid, members: removedBy[gid]})
	}
}

// emptiedBy reports whether deleting every target leaves the group with no
// members, which makes the cascade dissolve it.
func emptiedBy(g *core.Group, targets map[core.EntityID]bool) bool {
	for _, m := range g.Members {
		if !targets[m] {
			return false
		}
	}
	return true
}

