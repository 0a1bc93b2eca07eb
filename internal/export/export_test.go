package export

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dshills/listview/internal/column"
)

type stubTable struct {
	cols []column.ID
	rows [][]*string
	err  error
}

func str(s string) *string { return &s }

func (s stubTable) Name() string         { return "stub" }
func (s stubTable) Columns() []column.ID { return s.cols }
func (s stubTable) RowCount() int        { return len(s.rows) }

func (s stubTable) Column(p, c int) (string, bool, error) {
	if s.err != nil && p == len(s.rows)-1 {
		return "", false, s.err
	}
	v := s.rows[p][c]
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

var sample = stubTable{
	cols: []column.ID{column.Address, column.References, column.Symbol},
	rows: [][]*string{
		{str("00401000"), str("0"), str("app::main()")},
		{str("00402000"), str("2"), nil},
		{str("00402020"), str("1"), str("日本語")},
	},
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sample))

	out := buf.String()
	require.True(t, gjson.Valid(out), out)
	assert.Equal(t, "stub", gjson.Get(out, "view").String())
	assert.Equal(t, `["address","refs","symbol"]`, gjson.Get(out, "columns").Raw)
	assert.EqualValues(t, 3, gjson.Get(out, "count").Int())
	assert.Equal(t, "app::main()", gjson.Get(out, "rows.0.symbol").String())
	assert.Equal(t, gjson.Null, gjson.Get(out, "rows.1.symbol").Type)
	assert.Equal(t, []string{"00401000", "00402000", "00402020"}, toStrings(gjson.Get(out, "rows.#.address").Array()))
	assert.Equal(t, "日本語", gjson.Get(out, "rows.2.symbol").String())
}

func TestJSONIndent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sample, WithIndent()))
	assert.True(t, gjson.Valid(buf.String()))
	assert.Contains(t, buf.String(), "\n  \"view\": \"stub\"")
}

func TestJSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, stubTable{cols: []column.ID{column.Address}}))
	assert.Equal(t, "[]", gjson.Get(buf.String(), "rows").Raw)
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Text(&buf, sample))
	assert.Equal(t, strings.Join([]string{
		"Address   R  Symbol",
		"00401000  0  app::main()",
		"00402000  2",
		"00402020  1  日本語",
		"",
	}, "\n"), buf.String())
}

func TestTextHeaderStyleAndTruncation(t *testing.T) {
	var buf bytes.Buffer
	err := Text(&buf, sample,
		WithHeaderStyle(func(s string) string { return "[" + s + "]" }),
		WithMaxCellWidth(5))
	require.NoError(t, err)
	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "[Address  R  Symbol]", lines[0])
	assert.Equal(t, "0040…    0  app:…", lines[1])
	assert.Equal(t, "0040…    1  日本…", lines[3])
}

func TestErrorsCarryRow(t *testing.T) {
	bad := sample
	bad.err = fmt.Errorf("boom")
	assert.ErrorContains(t, Text(&bytes.Buffer{}, bad), "row 2: boom")
	assert.ErrorContains(t, JSON(&bytes.Buffer{}, bad), "row 2: boom")
}

func TestTruncateAndPad(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 0))
	assert.Equal(t, "abc", Truncate("abc", 3))
	assert.Equal(t, "a…", Truncate("abc", 2))
	assert.Equal(t, "…", Truncate("日本", 1))
	assert.Equal(t, "日…", Truncate("日本語", 4))
	assert.Equal(t, "é…", Truncate("éxyz", 2))

	assert.Equal(t, "日本  ", Pad("日本", 6))
	assert.Equal(t, "long", Pad("long", 2))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("json")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "xml", fe.Name)
}

func toStrings(rs []gjson.Result) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.String()
	}
	return out
}
