package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTranscriptWatcherNotifiesOnWrite(t *testing.T) {
	root := t.TempDir()

	changes := make(chan struct{}, 1)
	w, err := NewTranscriptWatcher(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}, root)
	require.NoError(t, err)

	go w.Start()
	defer w.Stop()
	time.Sleep(200 * time.Millisecond) // let the watch registration land

	require.NoError(t, os.WriteFile(filepath.Join(root, "session.jsonl"), []byte("{}\n"), 0o644))

	select {
	case <-changes:
	case <-time.After(3 * time.Second):
		t.Fatal("no change notification after transcript write")
	}
}

func TestTranscriptWatcherIgnoresUnrelatedFiles(t *testing.T) {
	root := t.TempDir()

	changes := make(chan struct{}, 4)
	w, err := NewTranscriptWatcher(func() { changes <- struct{}{} }, root)
	require.NoError(t, err)

	go w.Start()
	defer w.Stop()
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	select {
	case <-changes:
		t.Fatal("unexpected notification for non-transcript file")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestIsTranscriptFile(t *testing.T) {
	require.True(t, isTranscriptFile("/x/session.jsonl"))
	require.True(t, isTranscriptFile("/x/ses_abc.json"))
	require.False(t, isTranscriptFile("/x/notes.txt"))
	require.False(t, isTranscriptFile("/x/data.jsonl.bak"))
}
