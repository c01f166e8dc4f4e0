package isy

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isyhub/internal/xmldict"
)

func decodeRecord(t *testing.T, xml, root string) *xmldict.Node {
	t.Helper()
	doc, err := xmldict.DecodeBytes([]byte(xml))
	require.NoError(t, err)
	rec := doc.Get(root)
	require.NotNil(t, rec)
	return rec
}

func TestNormalizeNode(t *testing.T) {
	rec := decodeRecord(t, `<node flag="128">
		<address>11 22 33 1</address>
		<name>Front Porch</name>
		<type>1.32.65.0</type>
		<enabled>true</enabled>
		<wattage>60</wattage>
		<property id="ST" value="255" formatted=" On " uom="on/off"/>
	</node>`, "node")

	require.NoError(t, NormalizeNode(rec))

	assert.Equal(t, xmldict.KindInt, rec.Get("flag").Kind)
	assert.Equal(t, int64(128), rec.Get("flag").Int)

	// Identifiers survive untouched even when they look numeric.
	assert.Equal(t, xmldict.KindString, rec.Get("address").Kind)
	assert.Equal(t, "11 22 33 1", rec.Get("address").Text())

	// "1.32.65.0" contains a dot but is not a float; parse failure keeps
	// the string.
	assert.Equal(t, "1.32.65.0", rec.Get("type").Text())

	assert.Equal(t, xmldict.KindBool, rec.Get("enabled").Kind)
	assert.True(t, rec.Get("enabled").Bool)

	assert.Equal(t, int64(60), rec.Get("wattage").Int)

	assert.Nil(t, rec.Get("property"))
	properties := rec.Get("properties")
	require.NotNil(t, properties)
	require.Equal(t, xmldict.KindList, properties.Kind)
	require.Len(t, properties.List, 1)

	prop := properties.List[0]
	assert.Equal(t, "ST", prop.Get("id").Text())
	assert.Equal(t, "State", prop.Get("name").Text())
	assert.Equal(t, "On", prop.Get("value").Text())

	// The raw payload keeps its original string form.
	require.NotNil(t, prop.Get("rawvalue"))
	assert.Equal(t, xmldict.KindString, prop.Get("rawvalue").Kind)
	assert.Equal(t, "255", prop.Get("rawvalue").Text())

	assert.Nil(t, prop.Get("formatted"))
	assert.Equal(t, "on/off", prop.Get("uom").Text())
}

func TestNormalizeNodeWithoutProperties(t *testing.T) {
	rec := decodeRecord(t, `<node><address>11 22 33 1</address><name>Bare</name></node>`, "node")

	require.NoError(t, NormalizeNode(rec))

	properties := rec.Get("properties")
	require.NotNil(t, properties)
	assert.Equal(t, xmldict.KindList, properties.Kind)
	assert.Len(t, properties.List, 0)
}

func TestNormalizeNodePropertyEdges(t *testing.T) {
	rec := decodeRecord(t, `<node>
		<address>AA BB CC 1</address>
		<property id=" OL " formatted=""/>
	</node>`, "node")

	require.NoError(t, NormalizeNode(rec))

	properties := rec.Get("properties")
	require.Len(t, properties.List, 1)
	prop := properties.List[0]

	// Absent raw payload and empty formatted value both become nulls.
	assert.True(t, prop.Get("rawvalue").IsNull())
	assert.True(t, prop.Get("value").IsNull())

	// The name is the trimmed id; the id itself is untouched.
	assert.Equal(t, "OL", prop.Get("name").Text())
	assert.Equal(t, " OL ", prop.Get("id").Text())
}

func TestNormalizeNodeCoercionFailureIsFatal(t *testing.T) {
	rec := decodeRecord(t, `<node>
		<address>11 22 33 1</address>
		<wattage>0060</wattage>
	</node>`, "node")

	err := NormalizeNode(rec)
	require.Error(t, err)

	var coerceErr *xmldict.CoerceError
	require.ErrorAs(t, err, &coerceErr)
	assert.Equal(t, "0060", coerceErr.Value)
	assert.Contains(t, err.Error(), "wattage")
	assert.Contains(t, err.Error(), "11 22 33 1")
}

func TestNormalizeNodeIdempotent(t *testing.T) {
	rec := decodeRecord(t, `<node flag="128">
		<address>11 22 33 1</address>
		<property id="ST" value="255" formatted="On"/>
	</node>`, "node")

	require.NoError(t, NormalizeNode(rec))
	want := rec.String()

	require.NoError(t, NormalizeNode(rec))
	assert.Equal(t, want, rec.String())
}

func TestNormalizeGroupSingleLink(t *testing.T) {
	rec := decodeRecord(t, `<group flag="132">
		<address>22822</address>
		<name>Evening Scene</name>
		<members>
			<link type="16">AA BB CC 1</link>
		</members>
	</group>`, "group")

	require.NoError(t, NormalizeGroup(rec))

	assert.Equal(t, int64(132), rec.Get("flag").Int)

	// Group addresses are identifiers even when purely numeric.
	assert.Equal(t, xmldict.KindString, rec.Get("address").Kind)
	assert.Equal(t, "22822", rec.Get("address").Text())

	members := rec.Get("members")
	require.NotNil(t, members)
	require.Equal(t, xmldict.KindList, members.Kind)
	require.Len(t, members.List, 1)

	link := members.List[0]
	assert.Equal(t, int64(16), link.Get("type").Int)
	assert.Equal(t, "AA BB CC 1", link.Get("address").Text())
	assert.Nil(t, link.Get("#text"))
}

func TestNormalizeGroupBareLinks(t *testing.T) {
	rec := decodeRecord(t, `<group>
		<address>1001</address>
		<members>
			<link>AA BB CC 1</link>
			<link>DD EE FF 1</link>
		</members>
	</group>`, "group")

	require.NoError(t, NormalizeGroup(rec))

	members := rec.Get("members")
	require.Len(t, members.List, 2)
	assert.Equal(t, "AA BB CC 1", members.List[0].Get("address").Text())
	assert.Equal(t, "DD EE FF 1", members.List[1].Get("address").Text())
}

func TestNormalizeGroupWithoutMembers(t *testing.T) {
	rec := decodeRecord(t, `<group><address>1002</address><name>Empty</name></group>`, "group")

	require.NoError(t, NormalizeGroup(rec))

	members := rec.Get("members")
	require.NotNil(t, members)
	assert.Equal(t, xmldict.KindList, members.Kind)
	assert.Len(t, members.List, 0)
}

func TestNormalizeProgram(t *testing.T) {
	rec := decodeRecord(t, `<program id="0012" parentId="0001" status="true" folder="false">
		<name>Night Mode</name>
		<enabled>true</enabled>
		<lastRunTime>2024/06/01 09:05:03 PM</lastRunTime>
		<lastFinishTime>2024/06/01  9:05:04 PM</lastFinishTime>
		<nextScheduledRunTime></nextScheduledRunTime>
	</program>`, "program")

	require.NoError(t, NormalizeProgram(rec))

	// Program identifiers are zero-padded hex; coercion must skip them.
	assert.Equal(t, "0012", rec.Get("id").Text())
	assert.Equal(t, "0001", rec.Get("parentId").Text())

	assert.True(t, rec.Get("status").Bool)
	assert.False(t, rec.Get("folder").Bool)
	assert.True(t, rec.Get("enabled").Bool)

	lastRun := rec.Get("lastRunTime")
	require.Equal(t, xmldict.KindTime, lastRun.Kind)
	assert.Equal(t, time.Date(2024, 6, 1, 21, 5, 3, 0, time.UTC), lastRun.Time)

	// The controller drops the leading zero on single-digit hours.
	lastFinish := rec.Get("lastFinishTime")
	require.Equal(t, xmldict.KindTime, lastFinish.Kind)
	assert.Equal(t, time.Date(2024, 6, 1, 21, 5, 4, 0, time.UTC), lastFinish.Time)

	// A program that never ran reports an empty timestamp.
	assert.True(t, rec.Get("nextScheduledRunTime").IsNull())
}

func TestNormalizeProgramBadTimestampIsFatal(t *testing.T) {
	rec := decodeRecord(t, `<program id="0099">
		<lastRunTime>yesterday</lastRunTime>
	</program>`, "program")

	err := NormalizeProgram(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lastRunTime")
	assert.Contains(t, err.Error(), "0099")
}

func TestNormalizeProgramAbsentTimestampStaysAbsent(t *testing.T) {
	rec := decodeRecord(t, `<program id="0003"><name>Minimal</name></program>`, "program")

	require.NoError(t, NormalizeProgram(rec))

	assert.Nil(t, rec.Get("lastRunTime"))
	assert.Nil(t, rec.Get("nextScheduledRunTime"))
}

func TestNormalizeInventory(t *testing.T) {
	doc, err := xmldict.DecodeBytes([]byte(`<nodes>
		<root><folder><name>Lights</name><address>12345</address></folder></root>
		<node flag="128">
			<address>11 22 33 1</address>
			<name>Lamp</name>
			<property id="ST" value="255" formatted="On"/>
		</node>
		<group flag="132">
			<address>22822</address>
			<name>Scene</name>
			<members><link type="16">11 22 33 1</link></members>
		</group>
	</nodes>`))
	require.NoError(t, err)
	xmldict.UnwrapAttrs(doc)

	inv, err := normalizeInventory(doc)
	require.NoError(t, err)

	// Folder metadata is dropped, single records still come back as lists.
	assert.Nil(t, doc.Get("nodes").Get("root"))
	require.Len(t, inv.Nodes, 1)
	require.Len(t, inv.Groups, 1)

	assert.Equal(t, "Lamp", inv.Nodes[0].Get("name").Text())
	assert.Equal(t, "255", inv.Nodes[0].Get("properties").List[0].Get("rawvalue").Text())
	assert.Equal(t, "11 22 33 1", inv.Groups[0].Get("members").List[0].Get("address").Text())
}

func TestNormalizeInventoryEmpty(t *testing.T) {
	doc, err := xmldict.DecodeBytes([]byte(`<nodes><root><name>Lights</name></root></nodes>`))
	require.NoError(t, err)

	inv, err := normalizeInventory(doc)
	require.NoError(t, err)
	assert.NotNil(t, inv.Nodes)
	assert.NotNil(t, inv.Groups)
	assert.Len(t, inv.Nodes, 0)
	assert.Len(t, inv.Groups, 0)
}

func TestNormalizeInventoryRejectsWrongDocument(t *testing.T) {
	doc, err := xmldict.DecodeBytes([]byte(`<RestResponse succeeded="true"><status>200</status></RestResponse>`))
	require.NoError(t, err)

	_, err = normalizeInventory(doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected document shape")
}

func TestNormalizePrograms(t *testing.T) {
	doc, err := xmldict.DecodeBytes([]byte(`<programs>
		<program id="0001" status="false" folder="true">
			<name>My Programs</name>
		</program>
	</programs>`))
	require.NoError(t, err)
	xmldict.UnwrapAttrs(doc)

	programs, err := normalizePrograms(doc)
	require.NoError(t, err)
	require.Len(t, programs, 1)
	assert.Equal(t, "0001", programs[0].Get("id").Text())
	assert.True(t, programs[0].Get("folder").Bool)
}
