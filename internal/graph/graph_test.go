package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testBundle() *Bundle {
	b := &Bundle{
		City:    "testville",
		NodeIDs: []int64{100, 200, 300},
		Coords:  [][2]float64{{0, 0}, {0, 1}, {1, 1}},
		index:   map[int64]int{100: 0, 200: 1, 300: 2},
	}
	b.Adjacent = make([][]Edge, len(b.NodeIDs))
	b.Adjacent[0] = []Edge{{To: 1, Length: 100, TravelTime: 10}}
	b.Adjacent[1] = []Edge{{To: 2, Length: 100, TravelTime: 10}}
	return b
}

func TestBundleIndexOf(t *testing.T) {
	b := testBundle()

	t.Run("known osmid", func(t *testing.T) {
		assert.Equal(t, 1, b.IndexOf(200))
	})

	t.Run("unknown osmid returns -1", func(t *testing.T) {
		assert.Equal(t, -1, b.IndexOf(999))
	})
}

func TestStoreGetCachesBundle(t *testing.T) {
	s := &Store{bundles: make(map[string]*Bundle)}
	b := testBundle()
	s.bundles["testville"] = b

	got, err := s.Get(nil, "testville")
	assert.NoError(t, err)
	assert.Same(t, b, got)
}
