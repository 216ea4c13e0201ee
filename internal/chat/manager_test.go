package chat

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManager(t.TempDir(), 50, true)
	require.NoError(t, err)
	return mgr
}

func TestManager_SaveLoad(t *testing.T) {
	mgr := newTestManager(t)

	conv := mgr.Create(Coach)
	conv.Append(UserTurn("I want to get better at running"))
	conv.Append(AssistantTurn("What does your current week look like?", &Metrics{TokensGenerated: 12}))

	path, err := mgr.Save(conv)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(mgr.Dir(), conv.ID()+".json"), path)

	loaded, err := mgr.Load(conv.ID())
	require.NoError(t, err)

	assert.Equal(t, conv.ID(), loaded.ID())
	assert.Equal(t, "coach", loaded.Style().Label())
	assert.Equal(t, conv.TurnCount(), loaded.TurnCount())

	var orig, back []Turn
	for tn := range conv.History(0) {
		orig = append(orig, tn)
	}
	for tn := range loaded.History(0) {
		back = append(back, tn)
	}
	assert.Equal(t, orig, back)
}

func TestManager_LoadMissing(t *testing.T) {
	mgr := newTestManager(t)

	_, err := mgr.Load("no-such-session")
	require.Error(t, err)
	var nfe *NotFoundError
	assert.ErrorAs(t, err, &nfe)
	assert.Equal(t, "no-such-session", nfe.ID)
}

func TestManager_LoadCorrupt(t *testing.T) {
	mgr := newTestManager(t)
	require.NoError(t, os.WriteFile(filepath.Join(mgr.Dir(), "bad.json"), []byte(`{"id": 42}`), 0644))

	_, err := mgr.Load("bad")
	require.Error(t, err)
	var fe *FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestManager_DeleteIdempotent(t *testing.T) {
	mgr := newTestManager(t)

	conv := mgr.Create(Friend)
	_, err := mgr.Save(conv)
	require.NoError(t, err)

	require.NoError(t, mgr.Delete(conv.ID()))
	_, err = mgr.Load(conv.ID())
	assert.Error(t, err)

	// Deleting again is a no-op, not an error.
	assert.NoError(t, mgr.Delete(conv.ID()))
}

func TestManager_ListNewestFirst(t *testing.T) {
	mgr := newTestManager(t)

	var ids []string
	for i := 0; i < 3; i++ {
		conv := mgr.Create(Friend)
		conv.Append(UserTurn(fmt.Sprintf("hello %d", i)))
		_, err := mgr.Save(conv)
		require.NoError(t, err)
		ids = append(ids, conv.ID())
		time.Sleep(5 * time.Millisecond) // distinct updated_at
	}

	var got []string
	for s := range mgr.List() {
		got = append(got, s.ID)
		assert.Equal(t, 1, s.Turns)
	}
	require.Len(t, got, 3)
	assert.Equal(t, ids[2], got[0], "most recently updated first")
	assert.Equal(t, ids[0], got[2])
}

func TestManager_ListSkipsJunk(t *testing.T) {
	mgr := newTestManager(t)

	conv := mgr.Create(Assistant)
	_, err := mgr.Save(conv)
	require.NoError(t, err)

	// In-flight temp files, foreign files, and broken records are all
	// invisible to List.
	require.NoError(t, os.WriteFile(filepath.Join(mgr.Dir(), "x.json.tmp"), []byte("{"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(mgr.Dir(), "notes.txt"), []byte("hi"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(mgr.Dir(), "broken.json"), []byte("{"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(mgr.Dir(), "sub.json"), 0755))

	count := 0
	for s := range mgr.List() {
		count++
		assert.Equal(t, conv.ID(), s.ID)
	}
	assert.Equal(t, 1, count)
}

func TestManager_ListRestartable(t *testing.T) {
	mgr := newTestManager(t)
	_, err := mgr.Save(mgr.Create(Friend))
	require.NoError(t, err)

	seq := mgr.List()
	first, second := 0, 0
	for range seq {
		first++
	}
	// A session saved between iterations shows up on the re-walk.
	_, err = mgr.Save(mgr.Create(Coach))
	require.NoError(t, err)
	for range seq {
		second++
	}
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestManager_LoadAppliesBound(t *testing.T) {
	dir := t.TempDir()
	big, err := NewManager(dir, 200, true)
	require.NoError(t, err)

	conv := big.Create(Friend)
	for i := 0; i < 120; i++ {
		conv.Append(UserTurn(fmt.Sprintf("m%d", i)))
	}
	_, err = big.Save(conv)
	require.NoError(t, err)

	small, err := NewManager(dir, 50, true)
	require.NoError(t, err)
	loaded, err := small.Load(conv.ID())
	require.NoError(t, err)
	assert.Equal(t, 50, loaded.TurnCount())
}

func TestManager_AutoSaveDisabled(t *testing.T) {
	mgr, err := NewManager(t.TempDir(), 50, false)
	require.NoError(t, err)

	conv := mgr.Create(Friend)
	conv.Append(UserTurn("hello"))
	require.NoError(t, mgr.AutoSave(conv))

	_, err = os.Stat(filepath.Join(mgr.Dir(), conv.ID()+".json"))
	assert.True(t, os.IsNotExist(err), "auto-save wrote a file while disabled")
}

func TestManager_SaveLeavesNoTemp(t *testing.T) {
	mgr := newTestManager(t)
	conv := mgr.Create(Friend)
	path, err := mgr.Save(conv)
	require.NoError(t, err)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file left behind after save")
}
