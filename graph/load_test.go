package graph

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadHeadered(t *testing.T) {
	in := `#Nodes: 4
#Edges: 3
#Directed
# a comment line
0 1
1 2
2 3
`
	g, err := Load(strings.NewReader(in))
	require.NoError(t, err)
	require.EqualValues(t, 4, g.VertexCount())
	require.EqualValues(t, 3, g.EdgeCount())
	require.True(t, g.Directed())
	require.False(t, g.Weighted())
	require.Equal(t, []uint32{1}, g.Neighbors(0))
}

func TestLoadUndirectedWeighted(t *testing.T) {
	in := `#Undirected
0 1 0.5
1 2 2.0
`
	g, err := Load(strings.NewReader(in))
	require.NoError(t, err)
	require.False(t, g.Directed())
	require.True(t, g.Weighted())
	require.EqualValues(t, 4, g.EdgeCount())
	require.Equal(t, []float64{0.5, 2.0}, g.OutWeights(1))
}

func TestLoadPlainEdgeListInfersCount(t *testing.T) {
	g, err := Load(strings.NewReader("0 5\n5 2\n"))
	require.NoError(t, err)
	require.EqualValues(t, 6, g.VertexCount())
	require.True(t, g.Directed())
}

func TestLoadDeclaredCountBindsIds(t *testing.T) {
	in := `#Nodes: 3
0 1
1 7
`
	_, err := Load(strings.NewReader(in))
	require.ErrorIs(t, err, ErrFormat)
}

func TestLoadRejectsJunk(t *testing.T) {
	for _, in := range []string{
		"0\n",
		"0 1 2 3\n",
		"a b\n",
		"0 -1\n",
		"0 1 heavy\n",
	} {
		_, err := Load(strings.NewReader(in))
		require.ErrorIs(t, err, ErrFormat, "input %q", in)
	}
}

func TestLoadEmptyInput(t *testing.T) {
	g, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	require.EqualValues(t, 0, g.VertexCount())
}

func TestLoadFileUndirectedOverridesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiny.txt")
	require.NoError(t, os.WriteFile(path, []byte("#Directed\n0 1\n1 2\n"), 0o644))

	g, err := LoadFile(path)
	require.NoError(t, err)
	require.True(t, g.Directed())
	require.EqualValues(t, 2, g.EdgeCount())

	u, err := LoadFileUndirected(path)
	require.NoError(t, err)
	require.False(t, u.Directed())
	require.EqualValues(t, 4, u.EdgeCount())
	require.Equal(t, []uint32{0, 2}, u.Neighbors(1))
}
