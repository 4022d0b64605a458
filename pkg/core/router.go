package core

import (
	"sort"

	"github.com/namuan/whiteboard/pkg/geom"
)

// The router keeps every connection's path consistent with its endpoints.
// Each path starts as the closest pair among the two entities' perimeter
// connection points; when several connections share a side of one entity,
// their attachment points are spread evenly along that side.

// routeBase recomputes a connection's path as the closest perimeter point
// pair between its endpoints.
func (s *Scene) routeBase(c *Connection) {
	start, err := s.endpoint(c.Start)
	if err != nil {
		return
	}
	end, err := s.endpoint(c.End)
	if err != nil {
		return
	}
	sp := start.ConnectionPoints()
	ep := end.ConnectionPoints()
	si, ei := geom.ClosestPair(sp[:], ep[:])
	c.Path = []geom.Point{sp[si], ep[ei]}
}

// rerouteFor recomputes the paths of every connection touching the given
// entity, then redistributes shared sides on the entity and on every far
// endpoint involved.
func (s *Scene) rerouteFor(id EntityID) {
	ids := s.connsByEndpoint[id]
	if len(ids) == 0 {
		return
	}
	fars := make([]EntityID, 0, len(ids))
	for _, cid := range ids {
		c := s.connections[cid]
		s.routeBase(c)
		if c.Start == id {
			fars = append(fars, c.End)
		} else {
			fars = append(fars, c.Start)
		}
	}
	s.distributeEndpoint(id)
	s.distributeEndpoints(fars...)
}

// RerouteAll recomputes every connection path from scratch. Used after a
// bulk restore.
func (s *Scene) RerouteAll() {
	for _, cid := range s.connOrder {
		s.routeBase(s.connections[cid])
	}
	for _, id := range s.noteOrder {
		s.distributeEndpoint(id)
	}
	for _, id := range s.imageOrder {
		s.distributeEndpoint(id)
	}
}

// rerouteEach runs a full re-route for each unique id given. Used after a
// connection disappears so its former siblings snap back from distributed
// attachment points to their base routes.
func (s *Scene) rerouteEach(ids ...EntityID) {
	seen := make(map[EntityID]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		s.rerouteFor(id)
	}
}

// distributeEndpoints runs side distribution for each unique id given.
func (s *Scene) distributeEndpoints(ids ...EntityID) {
	seen := make(map[EntityID]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		s.distributeEndpoint(id)
	}
}

// distributeEndpoint spreads the attachment points of an entity's
// connections along each side shared by two or more of them. Sides are
// chosen by the direction toward the far endpoint; a side's connections are
// ordered by the far endpoint's position along the side axis so that
// segments do not cross.
func (s *Scene) distributeEndpoint(id EntityID) {
	conns := s.connsByEndpoint[id]
	if len(conns) < 2 {
		return
	}
	e, err := s.endpoint(id)
	if err != nil {
		return
	}
	bounds := e.Bounds()

	type attachment struct {
		conn *Connection
		far  geom.Point
	}
	bySide := make(map[geom.Side][]attachment)
	for _, cid := range conns {
		c := s.connections[cid]
		farID := c.End
		if farID == id {
			farID = c.Start
		}
		far, err := s.endpoint(farID)
		if err != nil {
			continue
		}
		center := far.Bounds().Center()
		side := geom.SideToward(bounds, center)
		bySide[side] = append(bySide[side], attachment{conn: c, far: center})
	}

	for side, list := range bySide {
		if len(list) < 2 {
			continue
		}
		horizontal := side == geom.SideTop || side == geom.SideBottom
		sort.SliceStable(list, func(i, j int) bool {
			if horizontal {
				if list[i].far.X != list[j].far.X {
					return list[i].far.X < list[j].far.X
				}
			} else {
				if list[i].far.Y != list[j].far.Y {
					return list[i].far.Y < list[j].far.Y
				}
			}
			return list[i].conn.ID < list[j].conn.ID
		})
		for i, a := range list {
			t := float64(i+1) / float64(len(list)+1)
			p := geom.PointAlongSide(bounds, side, t)
			if a.conn.Start == id {
				a.conn.Path[0] = p
			} else {
				a.conn.Path[len(a.conn.Path)-1] = p
			}
		}
	}
}
