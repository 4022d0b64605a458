// Package whiteboard is the composition root for the whiteboard engine.
//
// It wires the core scene model (pkg/core) to the session persistence
// layer (pkg/session), the undo history (pkg/history), and the PNG
// exporter (pkg/export), behind one application handle.
//
// Philosophy:
//
// A whiteboard document is an infinite canvas holding sticky notes,
// images, connections, and groups. The scene enforces referential
// integrity and grows its bounds monotonically as content spreads; the
// session layer persists it as versioned JSON with atomic writes,
// debounced auto-save, and format migrations. Everything renders
// headlessly, so the engine works the same under a GUI, a CLI, or a
// server.
//
// Features:
//
//   - **Scene model**: notes, images, connections, groups with cascade
//     deletes and monotonic bounds expansion.
//   - **Undo history**: command stack with cascade-aware restore.
//   - **Sessions**: versioned JSON format, migrations, atomic writes,
//     debounced auto-save, external-change watching.
//   - **Viewport**: zoom-about-a-point, panning, minimap models with
//     level-of-detail culling.
//   - **Export**: headless PNG rendering of any snapshot.
//
// Usage:
//
//	app, err := whiteboard.New(
//		whiteboard.WithLogger(logger),
//		whiteboard.WithAutosaveInterval(10*time.Second),
//	)
//
//	// Add a note undoably
//	err = app.Do(&history.CreateNote{Pos: geom.Pt(120, 80), Text: "hello"})
//
//	// Bind to a file; edits auto-save from here on
//	err = app.SaveAs(ctx, "board.json")
package whiteboard
