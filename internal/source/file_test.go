package source

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T) []byte {
	t.Helper()
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()

	sheet := "Sheet1"
	require.NoError(t, wb.SetCellValue(sheet, "A1", "region"))
	require.NoError(t, wb.SetCellValue(sheet, "B1", "sales"))
	require.NoError(t, wb.SetCellValue(sheet, "C1", "note"))
	require.NoError(t, wb.SetCellValue(sheet, "A2", "north"))
	require.NoError(t, wb.SetCellValue(sheet, "B2", 100))
	require.NoError(t, wb.SetCellValue(sheet, "C2", "first, second"))
	require.NoError(t, wb.SetCellValue(sheet, "A3", "south"))
	require.NoError(t, wb.SetCellValue(sheet, "B3", 200.5))

	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("data.csv"))
	assert.True(t, Supported("/tmp/Report.XLSX"))
	assert.False(t, Supported("data.xls"))
	assert.False(t, Supported("notes.txt"))
	assert.False(t, Supported("csv"))
}

func TestFromBytes_UTF8(t *testing.T) {
	f := FromBytes("sales.csv", []byte("region,sales\nnorth,10\n"))

	text, err := f.Text()
	require.NoError(t, err)
	assert.Equal(t, "region,sales\nnorth,10\n", text)
	assert.True(t, f.HasText())
	assert.False(t, f.IsSpreadsheet())
	assert.Equal(t, 22, f.Size())

	raw, err := io.ReadAll(f.Reader())
	require.NoError(t, err)
	assert.Equal(t, f.Raw, raw)
}

func TestFromBytes_StripsBOM(t *testing.T) {
	f := FromBytes("bom.csv", append([]byte{0xEF, 0xBB, 0xBF}, "a,b\n1,2\n"...))

	text, err := f.Text()
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", text)
	assert.Equal(t, 0xEF, int(f.Raw[0]), "raw bytes are uploaded unchanged")
}

func TestFromBytes_Windows1252Fallback(t *testing.T) {
	f := FromBytes("legacy.csv", []byte("city,price\ncaf\xe9,\x805\n"))

	text, err := f.Text()
	require.NoError(t, err)
	assert.Equal(t, "city,price\ncafé,€5\n", text)
}

func TestFromBytes_Workbook(t *testing.T) {
	f := FromBytes("sales.xlsx", writeWorkbook(t))

	assert.True(t, f.IsSpreadsheet())
	text, err := f.Text()
	require.NoError(t, err)
	assert.Equal(t, "region,sales,note\nnorth,100,\"first, second\"\nsouth,200.5,\n", text)
}

func TestFromBytes_BrokenWorkbook(t *testing.T) {
	f := FromBytes("broken.xlsx", []byte("not a zip archive"))

	assert.False(t, f.HasText())
	_, err := f.Text()
	assert.Error(t, err)
	assert.Equal(t, "broken.xlsx", f.Name, "selection still succeeds")
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("x,y\n1,2\n"), 0o600))

	f, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "data.csv", f.Name)
	assert.Equal(t, path, f.Path)
	assert.True(t, f.HasText())
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "notes.txt"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Open(filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)

	sub := filepath.Join(dir, "folder.csv")
	require.NoError(t, os.Mkdir(sub, 0o750))
	_, err = Open(sub)
	assert.Error(t, err)
}

func TestText_NilFile(t *testing.T) {
	var f *File
	_, err := f.Text()
	assert.Error(t, err)
	assert.False(t, f.HasText())
}
