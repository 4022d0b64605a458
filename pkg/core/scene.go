package core

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/namuan/whiteboard/pkg/geom"
	"github.com/namuan/whiteboard/pkg/imaging"
)

// Scene bounds tuning. The canvas starts as a fixed square centered on the
// origin and grows by expansionAmount whenever content comes within
// expansionThreshold of an edge. Bounds never shrink.
const (
	initialSceneExtent = 10000.0
	expansionThreshold = 1000.0
	expansionAmount    = 5000.0
)

// DefaultGroupMinSize is the minimum member count for a new group unless
// configured otherwise.
const DefaultGroupMinSize = 1

// SceneConfig configures a new Scene. Zero values select defaults.
type SceneConfig struct {
	Logger       *slog.Logger
	Styles       *StyleLibrary
	GroupMinSize int
	Now          func() time.Time
	NewID        func() EntityID
}

// Scene owns every entity of one whiteboard document and enforces their
// referential integrity. It is not safe for concurrent mutation; all
// operations must run on a single goroutine. Use Snapshot for work that
// leaves that goroutine.
type Scene struct {
	logger       *slog.Logger
	styles       *StyleLibrary
	groupMinSize int
	now          func() time.Time
	newID        func() EntityID

	notes       map[EntityID]*Note
	images      map[EntityID]*Image
	connections map[EntityID]*Connection
	groups      map[EntityID]*Group

	noteOrder  []EntityID
	imageOrder []EntityID
	connOrder  []EntityID
	groupOrder []EntityID

	connsByEndpoint map[EntityID][]EntityID
	groupsByMember  map[EntityID][]EntityID

	bounds   geom.Rect
	viewport *Viewport

	observers []func(Event)
}

// NewScene creates an empty scene with the initial canvas extent centered on
// the origin.
func NewScene(cfg SceneConfig) *Scene {
	if cfg.Styles == nil {
		cfg.Styles = NewStyleLibrary()
	}
	if cfg.GroupMinSize <= 0 {
		cfg.GroupMinSize = DefaultGroupMinSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = NewEntityID
	}
	s := &Scene{
		logger:          cfg.Logger,
		styles:          cfg.Styles,
		groupMinSize:    cfg.GroupMinSize,
		now:             cfg.Now,
		newID:           cfg.NewID,
		notes:           make(map[EntityID]*Note),
		images:          make(map[EntityID]*Image),
		connections:     make(map[EntityID]*Connection),
		groups:          make(map[EntityID]*Group),
		connsByEndpoint: make(map[EntityID][]EntityID),
		groupsByMember:  make(map[EntityID][]EntityID),
		bounds: geom.R(-initialSceneExtent/2, -initialSceneExtent/2,
			initialSceneExtent, initialSceneExtent),
	}
	s.viewport = newViewport(func() { s.emit(EventViewChanged, "", "") })
	return s
}

// Bounds returns the current authoritative scene rectangle.
func (s *Scene) Bounds() geom.Rect { return s.bounds }

// Viewport returns the transform controller owned by this scene.
func (s *Scene) Viewport() *Viewport { return s.viewport }

// Styles returns the style library used for new notes and templates.
func (s *Scene) Styles() *StyleLibrary { return s.styles }

// --- Creation ---

// CreateNote places a new note at the given scene position. It always
// succeeds: the note receives a fresh identifier, the library default style,
// and the style's minimum size.
func (s *Scene) CreateNote(pos geom.Point, text string) *Note {
	now := s.now()
	n := &Note{
		ID:         s.newID(),
		Text:       text,
		Position:   pos,
		Style:      s.styles.DefaultStyle(),
		CreatedAt:  now,
		ModifiedAt: now,
	}
	n.Size = n.MinSize()
	s.insertNote(n)
	s.expandBounds()
	if s.logger != nil {
		s.logger.Debug("note created", "id", n.ID, "position", pos)
	}
	s.emit(EventCreated, KindNote, n.ID)
	return n
}

// CreateImage decodes and validates the given bytes and places the image at
// the given scene position. It fails with imaging.UnsupportedFormatError,
// imaging.OversizedError, or imaging.CorruptDataError; on failure the scene
// is unchanged.
func (s *Scene) CreateImage(data []byte, mimeType, filename string, pos geom.Point) (*Image, error) {
	info, err := imaging.Decode(data, mimeType)
	if err != nil {
		return nil, err
	}
	now := s.now()
	im := &Image{
		ID:          s.newID(),
		Data:        append([]byte(nil), data...),
		MIMEType:    mimeType,
		Filename:    filename,
		Position:    pos,
		Size:        geom.Sz(float64(info.Width), float64(info.Height)),
		NaturalSize: geom.Sz(float64(info.Width), float64(info.Height)),
		Rotation:    0,
		Opacity:     1.0,
		Style:       Style{},
		CreatedAt:   now,
		ModifiedAt:  now,
	}
	s.insertImage(im)
	s.expandBounds()
	if s.logger != nil {
		s.logger.Debug("image created", "id", im.ID, "mime", mimeType,
			"size", im.NaturalSize)
	}
	s.emit(EventCreated, KindImage, im.ID)
	return im, nil
}

// Connect creates a directional connection from start to end. Both must be
// live notes or images and distinct; a connection identical in start, end,
// and direction to an existing one is rejected with
// DuplicateConnectionError.
func (s *Scene) Connect(start, end EntityID) (*Connection, error) {
	if start == end {
		return nil, fmt.Errorf("connection endpoints must be distinct: %s", start)
	}
	if _, err := s.endpoint(start); err != nil {
		return nil, err
	}
	if _, err := s.endpoint(end); err != nil {
		return nil, err
	}
	for _, cid := range s.connsByEndpoint[start] {
		c := s.connections[cid]
		if c.Start == start && c.End == end {
			return nil, &DuplicateConnectionError{Start: start, End: end}
		}
	}
	now := s.now()
	c := &Connection{
		ID:         s.newID(),
		Start:      start,
		End:        end,
		Style:      DefaultConnectionStyle(),
		CreatedAt:  now,
		ModifiedAt: now,
	}
	s.insertConnection(c)
	s.routeBase(c)
	s.distributeEndpoints(start, end)
	if s.logger != nil {
		s.logger.Debug("connection created", "id", c.ID, "start", start, "end", end)
	}
	s.emit(EventCreated, KindConnection, c.ID)
	return c, nil
}

// CreateGroup groups the given member entities. Members must be live notes
// or images; requests below the configured minimum size fail with
// EmptySelectionError.
func (s *Scene) CreateGroup(memberIDs []EntityID) (*Group, error) {
	members := dedupIDs(memberIDs)
	if len(members) < s.groupMinSize {
		return nil, &EmptySelectionError{Got: len(members), Min: s.groupMinSize}
	}
	for _, id := range members {
		if _, err := s.endpoint(id); err != nil {
			return nil, err
		}
	}
	now := s.now()
	g := &Group{
		ID:         s.newID(),
		Members:    members,
		Style:      DefaultGroupStyle(),
		CreatedAt:  now,
		ModifiedAt: now,
	}
	s.recomputeGroup(g)
	s.insertGroup(g)
	s.expandBounds()
	if s.logger != nil {
		s.logger.Debug("group created", "id", g.ID, "members", len(members))
	}
	s.emit(EventCreated, KindGroup, g.ID)
	return g, nil
}

// --- Mutation ---

// MoveEntity moves a note or image to a new position, re-routing every
// connection that touches it and recomputing any group containing it.
func (s *Scene) MoveEntity(id EntityID, pos geom.Point) error {
	now := s.now()
	switch {
	case s.notes[id] != nil:
		n := s.notes[id]
		n.Position = pos
		n.ModifiedAt = now
	case s.images[id] != nil:
		im := s.images[id]
		im.Position = pos
		im.ModifiedAt = now
	default:
		return fmt.Errorf("move %s: %w", id, ErrNotFound)
	}
	s.afterGeometryChange(id)
	s.emit(EventMoved, s.kindOf(id), id)
	return nil
}

// ResizeEntity resizes a note or image. Sizes below the minimum footprint
// are clamped, never rejected. For images with maintainAspect set, the
// requested size is treated as a fitting box and the decoded aspect ratio
// decides the final dimensions.
func (s *Scene) ResizeEntity(id EntityID, size geom.Size, maintainAspect bool) error {
	now := s.now()
	switch {
	case s.notes[id] != nil:
		n := s.notes[id]
		n.Size = clampSize(size, n.MinSize())
		n.ModifiedAt = now
	case s.images[id] != nil:
		im := s.images[id]
		im.Size = imageResize(im, size, maintainAspect)
		im.ModifiedAt = now
	default:
		return fmt.Errorf("resize %s: %w", id, ErrNotFound)
	}
	s.afterGeometryChange(id)
	s.emit(EventResized, s.kindOf(id), id)
	return nil
}

// RotateImage rotates an image by the given number of degrees. The stored
// rotation is normalized to [0, 360).
func (s *Scene) RotateImage(id EntityID, degrees float64) error {
	im := s.images[id]
	if im == nil {
		return fmt.Errorf("rotate %s: %w", id, ErrNotFound)
	}
	im.Rotation = geom.NormalizeDegrees(im.Rotation + degrees)
	im.ModifiedAt = s.now()
	s.afterGeometryChange(id)
	s.emit(EventRotated, KindImage, id)
	return nil
}

// SetImageOpacity sets an image's opacity, clamped to [0, 1].
func (s *Scene) SetImageOpacity(id EntityID, opacity float64) error {
	im := s.images[id]
	if im == nil {
		return fmt.Errorf("set opacity %s: %w", id, ErrNotFound)
	}
	im.Opacity = geom.Clamp(opacity, 0, 1)
	im.ModifiedAt = s.now()
	s.emit(EventStyleChanged, KindImage, id)
	return nil
}

// SetNoteText replaces a note's text content.
func (s *Scene) SetNoteText(id EntityID, text string) error {
	n := s.notes[id]
	if n == nil {
		return fmt.Errorf("set text %s: %w", id, ErrNotFound)
	}
	n.Text = text
	n.ModifiedAt = s.now()
	s.emit(EventTextChanged, KindNote, id)
	return nil
}

// SetStyle replaces an entity's style record. For notes, the size is
// re-clamped against the new style's minimum footprint.
func (s *Scene) SetStyle(id EntityID, style Style) error {
	now := s.now()
	switch {
	case s.notes[id] != nil:
		n := s.notes[id]
		n.Style = style.Clone()
		n.Size = clampSize(n.Size, n.MinSize())
		n.ModifiedAt = now
		s.afterGeometryChange(id)
	case s.images[id] != nil:
		im := s.images[id]
		im.Style = style.Clone()
		im.ModifiedAt = now
	case s.connections[id] != nil:
		c := s.connections[id]
		c.Style = style.Clone()
		c.ModifiedAt = now
	case s.groups[id] != nil:
		g := s.groups[id]
		g.Style = style.Clone()
		g.ModifiedAt = now
	default:
		return fmt.Errorf("set style %s: %w", id, ErrNotFound)
	}
	s.emit(EventStyleChanged, s.kindOf(id), id)
	return nil
}

// ApplyTemplate applies a named style template to an entity.
func (s *Scene) ApplyTemplate(id EntityID, templateName string) error {
	style, ok := s.styles.Template(templateName)
	if !ok {
		return fmt.Errorf("style template %q does not exist", templateName)
	}
	return s.SetStyle(id, style)
}

// AddToGroup adds a live note or image to an existing group. Adding a
// member the group already has is a no-op.
func (s *Scene) AddToGroup(groupID, memberID EntityID) error {
	g := s.groups[groupID]
	if g == nil {
		return fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	if g.Contains(memberID) {
		return nil
	}
	if _, err := s.endpoint(memberID); err != nil {
		return err
	}
	g.Members = append(g.Members, memberID)
	s.groupsByMember[memberID] = append(s.groupsByMember[memberID], groupID)
	g.ModifiedAt = s.now()
	s.recomputeGroup(g)
	s.expandBounds()
	return nil
}

// RemoveFromGroup removes one member from a group. Removing the last member
// dissolves the group.
func (s *Scene) RemoveFromGroup(groupID, memberID EntityID) error {
	g := s.groups[groupID]
	if g == nil {
		return fmt.Errorf("group %s: %w", groupID, ErrNotFound)
	}
	if !g.Contains(memberID) {
		return fmt.Errorf("entity %s is not a member of group %s", memberID, groupID)
	}
	g.Members = removeID(g.Members, memberID)
	s.groupsByMember[memberID] = removeID(s.groupsByMember[memberID], groupID)
	if len(s.groupsByMember[memberID]) == 0 {
		delete(s.groupsByMember, memberID)
	}
	if len(g.Members) == 0 {
		s.dropGroup(groupID)
		s.emit(EventDeleted, KindGroup, groupID)
		return nil
	}
	g.ModifiedAt = s.now()
	s.recomputeGroup(g)
	s.expandBounds()
	return nil
}

// DeleteEntity removes an entity and everything that refers to it:
// connections lose their endpoint and are destroyed, groups lose the member
// and dissolve when emptied. Deleting an absent id is a no-op.
func (s *Scene) DeleteEntity(id EntityID) {
	switch {
	case s.notes[id] != nil, s.images[id] != nil:
		var fars []EntityID
		for _, cid := range append([]EntityID(nil), s.connsByEndpoint[id]...) {
			c := s.connections[cid]
			if c.Start == id {
				fars = append(fars, c.End)
			} else {
				fars = append(fars, c.Start)
			}
			s.dropConnection(cid)
			s.emit(EventDeleted, KindConnection, cid)
		}
		s.rerouteEach(fars...)
		for _, gid := range append([]EntityID(nil), s.groupsByMember[id]...) {
			g := s.groups[gid]
			g.Members = removeID(g.Members, id)
			if len(g.Members) == 0 {
				s.dropGroup(gid)
				s.emit(EventDeleted, KindGroup, gid)
			} else {
				g.ModifiedAt = s.now()
				s.recomputeGroup(g)
			}
		}
		delete(s.groupsByMember, id)
		kind := s.kindOf(id)
		if s.notes[id] != nil {
			delete(s.notes, id)
			s.noteOrder = removeID(s.noteOrder, id)
		} else {
			delete(s.images, id)
			s.imageOrder = removeID(s.imageOrder, id)
		}
		if s.logger != nil {
			s.logger.Debug("entity deleted", "id", id, "kind", kind)
		}
		s.emit(EventDeleted, kind, id)
	case s.connections[id] != nil:
		start, end := s.connections[id].Start, s.connections[id].End
		s.dropConnection(id)
		s.rerouteEach(start, end)
		s.emit(EventDeleted, KindConnection, id)
	case s.groups[id] != nil:
		s.dropGroup(id)
		s.emit(EventDeleted, KindGroup, id)
	}
}

// --- Lookup ---

// Note returns the note with the given id.
func (s *Scene) Note(id EntityID) (*Note, bool) {
	n, ok := s.notes[id]
	return n, ok
}

// Image returns the image with the given id.
func (s *Scene) Image(id EntityID) (*Image, bool) {
	im, ok := s.images[id]
	return im, ok
}

// Connection returns the connection with the given id.
func (s *Scene) Connection(id EntityID) (*Connection, bool) {
	c, ok := s.connections[id]
	return c, ok
}

// Group returns the group with the given id.
func (s *Scene) Group(id EntityID) (*Group, bool) {
	g, ok := s.groups[id]
	return g, ok
}

// Notes returns all notes in creation order.
func (s *Scene) Notes() []*Note {
	out := make([]*Note, 0, len(s.noteOrder))
	for _, id := range s.noteOrder {
		out = append(out, s.notes[id])
	}
	return out
}

// Images returns all images in creation order.
func (s *Scene) Images() []*Image {
	out := make([]*Image, 0, len(s.imageOrder))
	for _, id := range s.imageOrder {
		out = append(out, s.images[id])
	}
	return out
}

// Connections returns all connections in creation order.
func (s *Scene) Connections() []*Connection {
	out := make([]*Connection, 0, len(s.connOrder))
	for _, id := range s.connOrder {
		out = append(out, s.connections[id])
	}
	return out
}

// Groups returns all groups in creation order.
func (s *Scene) Groups() []*Group {
	out := make([]*Group, 0, len(s.groupOrder))
	for _, id := range s.groupOrder {
		out = append(out, s.groups[id])
	}
	return out
}

// ConnectionsFor returns the connections touching the given endpoint.
func (s *Scene) ConnectionsFor(id EntityID) []*Connection {
	ids := s.connsByEndpoint[id]
	out := make([]*Connection, 0, len(ids))
	for _, cid := range ids {
		out = append(out, s.connections[cid])
	}
	return out
}

// GroupsFor returns the groups containing the given member.
func (s *Scene) GroupsFor(id EntityID) []*Group {
	ids := s.groupsByMember[id]
	out := make([]*Group, 0, len(ids))
	for _, gid := range ids {
		out = append(out, s.groups[gid])
	}
	return out
}

// EntityCount returns the total number of entities of all four kinds.
func (s *Scene) EntityCount() int {
	return len(s.notes) + len(s.images) + len(s.connections) + len(s.groups)
}

// --- Internals ---

// endpoint resolves an id to a connectable entity.
func (s *Scene) endpoint(id EntityID) (Endpoint, error) {
	if n, ok := s.notes[id]; ok {
		return n, nil
	}
	if im, ok := s.images[id]; ok {
		return im, nil
	}
	if _, ok := s.connections[id]; ok {
		return nil, fmt.Errorf("entity %s cannot be a connection endpoint or group member", id)
	}
	if _, ok := s.groups[id]; ok {
		return nil, fmt.Errorf("entity %s cannot be a connection endpoint or group member", id)
	}
	return nil, fmt.Errorf("endpoint %s: %w", id, ErrNotFound)
}

func (s *Scene) kindOf(id EntityID) Kind {
	switch {
	case s.notes[id] != nil:
		return KindNote
	case s.images[id] != nil:
		return KindImage
	case s.connections[id] != nil:
		return KindConnection
	case s.groups[id] != nil:
		return KindGroup
	}
	return ""
}

func (s *Scene) insertNote(n *Note) {
	s.notes[n.ID] = n
	s.noteOrder = append(s.noteOrder, n.ID)
}

func (s *Scene) insertImage(im *Image) {
	s.images[im.ID] = im
	s.imageOrder = append(s.imageOrder, im.ID)
}

func (s *Scene) insertConnection(c *Connection) {
	s.connections[c.ID] = c
	s.connOrder = append(s.connOrder, c.ID)
	s.connsByEndpoint[c.Start] = append(s.connsByEndpoint[c.Start], c.ID)
	s.connsByEndpoint[c.End] = append(s.connsByEndpoint[c.End], c.ID)
}

func (s *Scene) insertGroup(g *Group) {
	s.groups[g.ID] = g
	s.groupOrder = append(s.groupOrder, g.ID)
	for _, m := range g.Members {
		s.groupsByMember[m] = append(s.groupsByMember[m], g.ID)
	}
}

func (s *Scene) dropConnection(id EntityID) {
	c := s.connections[id]
	if c == nil {
		return
	}
	s.connsByEndpoint[c.Start] = removeID(s.connsByEndpoint[c.Start], id)
	if len(s.connsByEndpoint[c.Start]) == 0 {
		delete(s.connsByEndpoint, c.Start)
	}
	s.connsByEndpoint[c.End] = removeID(s.connsByEndpoint[c.End], id)
	if len(s.connsByEndpoint[c.End]) == 0 {
		delete(s.connsByEndpoint, c.End)
	}
	delete(s.connections, id)
	s.connOrder = removeID(s.connOrder, id)
}

func (s *Scene) dropGroup(id EntityID) {
	g := s.groups[id]
	if g == nil {
		return
	}
	for _, m := range g.Members {
		s.groupsByMember[m] = removeID(s.groupsByMember[m], id)
		if len(s.groupsByMember[m]) == 0 {
			delete(s.groupsByMember, m)
		}
	}
	delete(s.groups, id)
	s.groupOrder = removeID(s.groupOrder, id)
}

// afterGeometryChange re-routes connections, recomputes containing groups,
// and checks scene bounds after an entity's geometry changed.
func (s *Scene) afterGeometryChange(id EntityID) {
	s.rerouteFor(id)
	for _, gid := range s.groupsByMember[id] {
		g := s.groups[gid]
		s.recomputeGroup(g)
		g.ModifiedAt = s.now()
	}
	s.expandBounds()
}

// recomputeGroup rebuilds a group's derived bounds from its members.
func (s *Scene) recomputeGroup(g *Group) {
	var b geom.Rect
	for _, m := range g.Members {
		if e, err := s.endpoint(m); err == nil {
			b = b.Union(e.Bounds())
		}
	}
	g.Bounds = b.Inflate(groupMargin)
}

// contentBounds returns the minimal rectangle enclosing all positioned
// entities. Connection paths always lie inside the union of their endpoint
// bounds and need no separate accounting.
func (s *Scene) contentBounds() geom.Rect {
	var b geom.Rect
	for _, id := range s.noteOrder {
		b = b.Union(s.notes[id].Bounds())
	}
	for _, id := range s.imageOrder {
		b = b.Union(s.images[id].Bounds())
	}
	for _, id := range s.groupOrder {
		b = b.Union(s.groups[id].Bounds)
	}
	return b
}

// expandBounds grows the scene rectangle on any side where content comes
// within expansionThreshold of the edge. Growth is monotonic.
func (s *Scene) expandBounds() {
	content := s.contentBounds()
	if content.IsEmpty() {
		return
	}
	left, top := s.bounds.Left(), s.bounds.Top()
	right, bottom := s.bounds.Right(), s.bounds.Bottom()
	changed := false

	if content.Left()-left < expansionThreshold {
		left = content.Left() - expansionAmount
		changed = true
	}
	if right-content.Right() < expansionThreshold {
		right = content.Right() + expansionAmount
		changed = true
	}
	if content.Top()-top < expansionThreshold {
		top = content.Top() - expansionAmount
		changed = true
	}
	if bottom-content.Bottom() < expansionThreshold {
		bottom = content.Bottom() + expansionAmount
		changed = true
	}
	if !changed {
		return
	}
	s.bounds = geom.R(left, top, right-left, bottom-top)
	if s.logger != nil {
		s.logger.Debug("scene bounds expanded", "bounds", s.bounds)
	}
	s.emit(EventBoundsChanged, "", "")
}

// clampSize raises size to at least min in each dimension.
func clampSize(size, min geom.Size) geom.Size {
	if size.Width < min.Width {
		size.Width = min.Width
	}
	if size.Height < min.Height {
		size.Height = min.Height
	}
	return size
}

// imageResize computes an image's new display size. With maintainAspect the
// requested size acts as a fitting box: the dominant dimension wins and the
// other follows the decoded aspect ratio.
func imageResize(im *Image, size geom.Size, maintainAspect bool) geom.Size {
	if !maintainAspect {
		return clampSize(size, geom.Sz(minImageWidth, minImageHeight))
	}
	nat := im.NaturalSize
	if nat.IsEmpty() {
		return clampSize(size, geom.Sz(minImageWidth, minImageHeight))
	}
	scale := size.Width / nat.Width
	if h := size.Height / nat.Height; h < scale {
		scale = h
	}
	fitted := geom.Sz(nat.Width*scale, nat.Height*scale)
	if fitted.Width < minImageWidth || fitted.Height < minImageHeight {
		up := minImageWidth / nat.Width
		if v := minImageHeight / nat.Height; v > up {
			up = v
		}
		fitted = geom.Sz(nat.Width*up, nat.Height*up)
	}
	return fitted
}

func removeID(ids []EntityID, id EntityID) []EntityID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

func dedupIDs(ids []EntityID) []EntityID {
	seen := make(map[EntityID]bool, len(ids))
	out := make([]EntityID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
