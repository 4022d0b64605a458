package reactivity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namuan/whiteboard"
	"github.com/namuan/whiteboard/pkg/core"
	"github.com/namuan/whiteboard/pkg/geom"
	"github.com/namuan/whiteboard/pkg/history"
	"github.com/namuan/whiteboard/pkg/session"
)

// TestReconcile_ReloadAfterExternalChange walks the full loop an editor
// runs when another process rewrites the open file: change notification,
// reload, continue editing on the adopted state.
func TestReconcile_ReloadAfterExternalChange(t *testing.T) {
	ctx := context.Background()
	app, path := openWatched(t)

	// 1. Another process replaces the file.
	require.NoError(t, session.WriteFileAtomic(path, []byte(externalDoc), 0644))

	// 2. The change surfaces.
	select {
	case change := <-app.Changes():
		require.Equal(t, session.ChangeModified, change.Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the external change")
	}

	// 3. Reload adopts the on-disk document and resets local history.
	require.NoError(t, app.Reload(ctx))
	assert.False(t, app.CanUndo(), "history should reset on reload")

	var texts []string
	app.View(func(s *core.Scene) {
		for _, n := range s.Notes() {
			texts = append(texts, n.Text)
		}
	})
	require.Equal(t, []string{"external"}, texts)

	// 4. Editing continues on the adopted state and saves cleanly.
	require.NoError(t, app.Do(&history.CreateNote{Pos: geom.Pt(200, 40), Text: "after reload"}))
	require.NoError(t, app.Save())

	info := session.Summarize(path)
	require.NoError(t, info.Err)
	assert.Equal(t, 2, info.Notes)
}
