package chat

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresence_RegisterLookup(t *testing.T) {
	p := NewPresence(nil)

	s := p.Register("c1", Identity{Username: "alice", Email: "a@example.com", Role: "admin", Avatar: "a.png"})
	assert.Equal(t, PrivilegeElevated, s.Privilege)

	got, ok := p.Lookup("c1")
	require.True(t, ok)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "a.png", got.Avatar)

	_, ok = p.Lookup("c2")
	assert.False(t, ok)
}

func TestPresence_ReRegisterKeepsRoom(t *testing.T) {
	p := NewPresence(nil)
	p.Register("c1", Identity{Username: "alice"})
	p.SetRoom("c1", "Global")

	p.Register("c1", Identity{Username: "alice2"})

	got, _ := p.Lookup("c1")
	assert.Equal(t, "alice2", got.Username)
	assert.Equal(t, "Global", got.Room)
	assert.Equal(t, 1, p.Len())
}

func TestPresence_EnrichAfterRemoveIsNoop(t *testing.T) {
	var published int
	p := NewPresence(func([]SessionView) { published++ })

	p.Register("c1", Identity{Username: "alice"})
	_, ok := p.Remove("c1")
	require.True(t, ok)
	require.Equal(t, 2, published)

	assert.False(t, p.Enrich("c1", "late.png"))
	assert.Equal(t, 2, published)
	_, ok = p.Lookup("c1")
	assert.False(t, ok)
}

func TestPresence_LookupByNameReturnsEverySession(t *testing.T) {
	p := NewPresence(nil)
	p.Register("c2", Identity{Username: "dave"})
	p.Register("c1", Identity{Username: "dave"})
	p.Register("c3", Identity{Username: "carol"})

	got := p.LookupByName("dave")
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ConnID)
	assert.Equal(t, "c2", got[1].ConnID)
	assert.Empty(t, p.LookupByName("nobody"))
}

func TestPresence_ClearRoomOnlyMatchingRoom(t *testing.T) {
	p := NewPresence(nil)
	p.Register("c1", Identity{Username: "alice"})
	p.SetRoom("c1", "Global")

	p.ClearRoom("c1", "Other")
	got, _ := p.Lookup("c1")
	assert.Equal(t, "Global", got.Room)

	p.ClearRoom("c1", "Global")
	got, _ = p.Lookup("c1")
	assert.Empty(t, got.Room)
}

// Every publish must equal the registry contents at that moment, whatever
// the sequence of operations.
func TestPresence_PublishedListMatchesRegistry(t *testing.T) {
	var last []SessionView
	p := NewPresence(func(v []SessionView) { last = v })
	model := map[string]string{} // conn -> avatar

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		conn := fmt.Sprintf("c%d", rng.Intn(12))
		switch rng.Intn(3) {
		case 0:
			p.Register(conn, Identity{Username: "user-" + conn})
			model[conn] = ""
		case 1:
			avatar := fmt.Sprintf("a%d.png", i)
			if p.Enrich(conn, avatar) {
				model[conn] = avatar
			} else {
				assert.NotContains(t, model, conn)
			}
		case 2:
			_, ok := p.Remove(conn)
			_, existed := model[conn]
			assert.Equal(t, existed, ok)
			delete(model, conn)
		}

		if last == nil {
			continue
		}
		require.Len(t, last, len(model))
		seen := map[string]bool{}
		for _, v := range last {
			require.False(t, seen[v.ID], "duplicate entry %s", v.ID)
			seen[v.ID] = true
			avatar, ok := model[v.ID]
			require.True(t, ok, "stale entry %s", v.ID)
			require.Equal(t, avatar, v.Avatar)
		}
	}
}

func TestPrivilegeOf(t *testing.T) {
	assert.Equal(t, PrivilegeElevated, privilegeOf("admin"))
	assert.Equal(t, PrivilegeElevated, privilegeOf(" Elevated "))
	assert.Equal(t, PrivilegeStandard, privilegeOf("user"))
	assert.Equal(t, PrivilegeStandard, privilegeOf(""))
}
