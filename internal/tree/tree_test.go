package tree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/pscale/internal/coord"
)

func at(addr string) coord.Coordinate { return coord.Parse(addr, "") }

func mustWrite(t *testing.T, tr *Tree, addr, text, ch string) {
	t.Helper()
	require.NoError(t, tr.Write(at(addr), text, ch))
}

func TestWrite_ReadRoundTrip(t *testing.T) {
	tr := New(1)
	mustWrite(t, tr, "S:0.12", "deep", "")

	got, ok := tr.Read(at("S:0.12"), "")
	require.True(t, ok)
	assert.Equal(t, "deep", got)

	_, ok = tr.Read(at("S:0.1"), "")
	assert.False(t, ok, "intermediate branches carry no text")
}

func TestWrite_PromotesLeafOnChildWrite(t *testing.T) {
	tr := New(0)
	mustWrite(t, tr, "M:1", "first", "")
	mustWrite(t, tr, "M:10", "summary", "")

	got, ok := tr.Read(at("M:1"), "")
	require.True(t, ok)
	assert.Equal(t, "first", got)

	got, ok = tr.Read(at("M:10"), "")
	require.True(t, ok)
	assert.Equal(t, "summary", got)

	b, isBranch := tr.Node(at("M:1")).(*Branch)
	require.True(t, isBranch)
	assert.Equal(t, "first", b.Channels[DefaultChannel])
}

func TestWrite_PromotesLeafOnChannelWrite(t *testing.T) {
	tr := New(1)
	mustWrite(t, tr, "S:0.2", "text", "")
	mustWrite(t, tr, "S:0.2", "v3", "v")

	got, _ := tr.Read(at("S:0.2"), "")
	assert.Equal(t, "text", got)
	got, _ = tr.Read(at("S:0.2"), "_v")
	assert.Equal(t, "v3", got)
	assert.Equal(t, []string{"_", "_v"}, tr.Dimensions(at("S:0.2")))
}

func TestWrite_OverwritesLeaf(t *testing.T) {
	tr := New(0)
	mustWrite(t, tr, "M:3", "old", "")
	mustWrite(t, tr, "M:3", "new", "")

	_, isLeaf := tr.Node(at("M:3")).(Leaf)
	assert.True(t, isLeaf)
	got, _ := tr.Read(at("M:3"), "")
	assert.Equal(t, "new", got)
}

func TestWrite_ChannelOnMissingNode(t *testing.T) {
	tr := New(0)
	mustWrite(t, tr, "M:4", "note", "_x")

	_, ok := tr.Read(at("M:4"), "")
	assert.False(t, ok)
	got, ok := tr.Read(at("M:4"), "x")
	require.True(t, ok)
	assert.Equal(t, "note", got)
}

func TestWrite_RootChannel(t *testing.T) {
	tr := New(0)
	mustWrite(t, tr, "M:", "transcript", "_conv")

	got, ok := tr.Read(at("M:"), "_conv")
	require.True(t, ok)
	assert.Equal(t, "transcript", got)
}

func TestWrite_RejectsSpecial(t *testing.T) {
	tr := New(0)
	assert.ErrorIs(t, tr.Write(at("M:conv"), "x", ""), ErrNotAddressable)
}

func TestRead_ThroughLeafIsAbsent(t *testing.T) {
	tr := New(0)
	mustWrite(t, tr, "M:5", "leaf", "")

	_, ok := tr.Read(at("M:54"), "")
	assert.False(t, ok)
	_, ok = tr.Read(at("M:5"), "_v")
	assert.False(t, ok, "a leaf has only the default channel")
}

func TestDelete_LeafRemovesNodeAndPrunes(t *testing.T) {
	tr := New(1)
	mustWrite(t, tr, "S:0.123", "x", "")

	require.True(t, tr.Delete(at("S:0.123"), ""))
	assert.Nil(t, tr.Node(at("S:0")), "empty ancestors are pruned")
	assert.True(t, tr.Root.Empty())
}

func TestDelete_LeafOtherChannelIsNoop(t *testing.T) {
	tr := New(0)
	mustWrite(t, tr, "M:1", "x", "")
	assert.False(t, tr.Delete(at("M:1"), "_v"))
	got, _ := tr.Read(at("M:1"), "")
	assert.Equal(t, "x", got)
}

func TestDelete_BranchChannelKeepsChildren(t *testing.T) {
	tr := New(0)
	mustWrite(t, tr, "M:1", "parent", "")
	mustWrite(t, tr, "M:12", "child", "")

	require.True(t, tr.Delete(at("M:1"), ""))
	_, ok := tr.Read(at("M:1"), "")
	assert.False(t, ok)
	got, _ := tr.Read(at("M:12"), "")
	assert.Equal(t, "child", got)
}

func TestDelete_PruneStopsAtPopulatedAncestor(t *testing.T) {
	tr := New(0)
	mustWrite(t, tr, "M:1", "keep", "")
	mustWrite(t, tr, "M:123", "gone", "")

	require.True(t, tr.Delete(at("M:123"), ""))
	assert.Nil(t, tr.Node(at("M:12")))
	got, ok := tr.Read(at("M:1"), "")
	require.True(t, ok)
	assert.Equal(t, "keep", got)
	assert.Empty(t, tr.Children(at("M:1")))
}

func TestDelete_Missing(t *testing.T) {
	tr := New(0)
	assert.False(t, tr.Delete(at("M:9"), ""))
	assert.False(t, tr.Delete(at("M:conv"), ""))
}

func TestClone_IsDeep(t *testing.T) {
	tr := New(0)
	mustWrite(t, tr, "M:12", "a", "")
	cp := tr.Clone()
	mustWrite(t, cp, "M:12", "b", "")

	got, _ := tr.Read(at("M:12"), "")
	assert.Equal(t, "a", got)
}

func TestCodec_RoundTrip(t *testing.T) {
	tr := New(1)
	mustWrite(t, tr, "S:0", "root text", "")
	mustWrite(t, tr, "S:0.1", "one", "")
	mustWrite(t, tr, "S:0.2", "two", "")
	mustWrite(t, tr, "S:0.2", "v1", "_v")

	raw, err := json.Marshal(tr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"place":1,"tree":{"0":{"_":"root text","1":"one","2":{"_":"two","_v":"v1"}}}}`, string(raw))

	var back Tree
	require.NoError(t, json.Unmarshal(raw, &back))
	again, err := json.Marshal(&back)
	require.NoError(t, err)
	assert.Equal(t, string(raw), string(again))
}

func TestCodec_RejectsUnknownKeys(t *testing.T) {
	var b Branch
	assert.Error(t, json.Unmarshal([]byte(`{"x":"nope"}`), &b))
	assert.Error(t, json.Unmarshal([]byte(`{"1":42}`), &b))
}

func TestCodec_DropsEmptyBranches(t *testing.T) {
	var b Branch
	require.NoError(t, json.Unmarshal([]byte(`{"1":{},"2":"x"}`), &b))
	assert.Nil(t, b.Children[1])
	assert.Equal(t, Leaf("x"), b.Children[2])
}

func TestNormalizeChannel(t *testing.T) {
	assert.Equal(t, "_", NormalizeChannel(""))
	assert.Equal(t, "_", NormalizeChannel("_"))
	assert.Equal(t, "_v", NormalizeChannel("v"))
	assert.Equal(t, "_conv", NormalizeChannel("_conv"))
}
