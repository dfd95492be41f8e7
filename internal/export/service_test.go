package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/partsynth/constants"
	"github.com/joseph-ayodele/partsynth/internal/entity"
)

func TestRecordsXLSX(t *testing.T) {
	recs := []entity.PartRecord{
		{
			PartNumber:       "6203-2RS",
			ProductName:      "SKF 6203-2RS Deep Groove Ball Bearing",
			CommonNameTH:     "ตลับลูกปืน",
			UOM:              "pcs",
			Tags:             []string{"bearing", "skf"},
			Sources:          []entity.SourceRef{{Name: "SKF", URL: "https://skf.example/6203"}, {Name: "Notes"}},
			Images:           []string{"https://img.example/a.png", "https://img.example/b.png"},
			SourceConfidence: constants.ConfidenceDerived,
			Tokens:           &entity.TokenUsage{Total: 42},
		},
		{PartNumber: "X-2", SourceConfidence: constants.ConfidenceNoSourceStrict},
	}

	b, err := NewService(nil).RecordsXLSX(recs)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetParts)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Part Number", rows[0][0])
	assert.Equal(t, len(partColumns), len(rows[0]))

	assert.Equal(t, "6203-2RS", rows[1][0])
	assert.Equal(t, "ตลับลูกปืน", rows[1][3])
	assert.Equal(t, "bearing, skf", rows[1][16])
	assert.Equal(t, "SKF (https://skf.example/6203); Notes", rows[1][17])
	assert.Equal(t, "https://img.example/a.png", rows[1][18])
	assert.Equal(t, "derived", rows[1][19])
	assert.Equal(t, "42", rows[1][20])

	assert.Equal(t, "X-2", rows[2][0])
}

func TestRecordsXLSX_Empty(t *testing.T) {
	b, err := NewService(nil).RecordsXLSX(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	rows, err := f.GetRows(SheetParts)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ตล…", truncate("ตลับลูกปืน", 3))
	assert.Equal(t, strings.Repeat("a", 9)+"…", truncate(strings.Repeat("a", 20), 10))
}
