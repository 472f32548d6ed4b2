package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShowReplacesSameKey(t *testing.T) {
	s := NewStore()
	s.Show(Notification{Key: "login", Text: "first", Variant: Danger})
	s.Show(Notification{Key: "other", Text: "keep"})
	s.Show(Notification{Key: "login", Text: "second", Variant: Danger})

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "keep", list[0].Text)
	assert.Equal(t, "second", list[1].Text)
	assert.Equal(t, Info, list[0].Variant, "empty variant defaults to info")
}

func TestShowWithoutKeyNeverDedups(t *testing.T) {
	s := NewStore()
	s.Show(Notification{Text: "a"})
	s.Show(Notification{Text: "b"})
	assert.Len(t, s.List(), 2)
}

func TestDismiss(t *testing.T) {
	s := NewStore()
	s.Show(Notification{Key: "a"})
	s.Show(Notification{Key: "b"})
	s.Show(Notification{Key: "c"})

	s.Dismiss(1)
	s.Dismiss(10)
	s.Dismiss(-1)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Key)
	assert.Equal(t, "c", list[1].Key)
}

func TestDismissByKeyAndResourceID(t *testing.T) {
	s := NewStore()
	s.Show(Notification{Key: "volumes", Text: "fetch failed", Region: "us-east-1"})
	s.Show(Notification{Key: "create-1", ResourceID: "vol-1"})
	s.Show(Notification{Key: "create-2", ResourceID: "vol-1"})
	s.Show(Notification{Key: "create-3", ResourceID: "vol-2"})

	s.DismissByResourceID("vol-1")
	assert.Len(t, s.List(), 2)

	s.DismissByResourceID("")
	assert.Len(t, s.List(), 2, "empty resource id matches nothing")

	s.DismissByKey("volumes")
	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "vol-2", list[0].ResourceID)

	_, ok := s.Find("volumes")
	assert.False(t, ok)
	n, ok := s.Find("create-3")
	assert.True(t, ok)
	assert.Equal(t, "vol-2", n.ResourceID)
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	s := NewStore()
	var seen [][]Notification
	s.Subscribe(func(list []Notification) { seen = append(seen, list) })

	s.Show(Notification{Key: "a"})
	s.DismissByKey("a")

	require.Len(t, seen, 2)
	assert.Len(t, seen[0], 1)
	assert.Empty(t, seen[1])
}
