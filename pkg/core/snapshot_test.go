package core

import (
	"testing"

	"github.com/namuan/whiteboard/pkg/geom"
)

func TestSnapshotIsolation(t *testing.T) {
	s := newTestScene(t)
	a := s.CreateNote(geom.Pt(0, 0), "a")
	b := s.CreateNote(geom.Pt(300, 0), "b")
	c, err := s.Connect(a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateGroup([]EntityID{a.ID, b.ID}); err != nil {
		t.Fatal(err)
	}

	snap := s.Snapshot()

	// Edits after the snapshot must not show through.
	if err := s.SetNoteText(a.ID, "changed"); err != nil {
		t.Fatal(err)
	}
	if err := s.MoveEntity(b.ID, geom.Pt(900, 900)); err != nil {
		t.Fatal(err)
	}
	a.Style["background_color"] = "#000000"

	if snap.Notes[0].Text != "a" {
		t.Errorf("snapshot text = %q, want %q", snap.Notes[0].Text, "a")
	}
	if snap.Notes[1].Position != geom.Pt(300, 0) {
		t.Errorf("snapshot position = %v, want (300,0)", snap.Notes[1].Position)
	}
	if snap.Notes[0].Style.String("background_color", "") == "#000000" {
		t.Error("snapshot style shares storage with live note")
	}

	// Deleting the connection does not touch the snapshot.
	s.DeleteEntity(c.ID)
	if len(snap.Connections) != 1 {
		t.Errorf("snapshot connections = %d, want 1", len(snap.Connections))
	}
}

func TestSnapshotCarriesViewState(t *testing.T) {
	s := newTestScene(t)
	s.Viewport().SetState(2.5, geom.Pt(-10, 45))

	snap := s.Snapshot()
	if snap.Zoom != 2.5 || snap.Pan != geom.Pt(-10, 45) {
		t.Errorf("view state = zoom %v pan %v", snap.Zoom, snap.Pan)
	}
	if snap.Bounds != s.Bounds() {
		t.Errorf("bounds = %v, want %v", snap.Bounds, s.Bounds())
	}
}

func TestSnapshotContentBounds(t *testing.T) {
	s := newTestScene(t)
	s.CreateNote(geom.Pt(0, 0), "a")
	s.CreateNote(geom.Pt(400, 200), "b")

	snap := s.Snapshot()
	want := geom.R(0, 0, 500, 260) // two 100x60 notes
	if snap.ContentBounds() != want {
		t.Errorf("content bounds = %v, want %v", snap.ContentBounds(), want)
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	s := newTestScene(t)
	a := s.CreateNote(geom.Pt(0, 0), "a")
	b := s.CreateNote(geom.Pt(300, 0), "b")
	conn, err := s.Connect(a.ID, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	grp, err := s.CreateGroup([]EntityID{a.ID, b.ID})
	if err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()

	// Rebuild a fresh scene from the snapshot's entities.
	restored := newTestScene(t)
	for _, n := range snap.Notes {
		if err := restored.AddNote(n.Clone()); err != nil {
			t.Fatal(err)
		}
	}
	for _, c := range snap.Connections {
		if err := restored.AddConnection(c.Clone()); err != nil {
			t.Fatal(err)
		}
	}
	for _, g := range snap.Groups {
		if err := restored.AddGroup(g.Clone()); err != nil {
			t.Fatal(err)
		}
	}

	got, ok := restored.Connection(conn.ID)
	if !ok {
		t.Fatal("connection not restored")
	}
	if got.Start != a.ID || got.End != b.ID {
		t.Errorf("restored refs = %s -> %s", got.Start, got.End)
	}
	if g, ok := restored.Group(grp.ID); !ok || !g.Contains(a.ID) || !g.Contains(b.ID) {
		t.Error("restored group membership broken")
	}
}

func TestAddConnectionValidation(t *testing.T) {
	s := newTestScene(t)
	a := s.CreateNote(geom.Pt(0, 0), "a")

	err := s.AddConnection(&Connection{ID: "c1", Start: a.ID, End: "ghost"})
	if err == nil {
		t.Error("connection to missing endpoint accepted")
	}
	err = s.AddConnection(&Connection{ID: "c2", Start: a.ID, End: a.ID})
	if err == nil {
		t.Error("self connection accepted")
	}
}

func TestAddRejectsDuplicateID(t *testing.T) {
	s := newTestScene(t)
	a := s.CreateNote(geom.Pt(0, 0), "a")

	err := s.AddNote(&Note{ID: a.ID, Position: geom.Pt(1, 1)})
	if err == nil {
		t.Error("duplicate id accepted")
	}
}
