package pipeline

import (
	"github.com/joseph-ayodele/partsynth/constants"
	"github.com/joseph-ayodele/partsynth/internal/entity"
)

// FallbackRecord is the minimal record returned when a part could not be synthesized.
// err is attached as the _error annotation only when debug is set.
func FallbackRecord(part string, err error, debug bool) entity.PartRecord {
	rec := entity.PartRecord{
		PartNumber:       part,
		ProductName:      part,
		CommonNameEN:     part,
		CommonNameTH:     part,
		UOM:              constants.FallbackUOM,
		MaterialEN:       constants.FallbackMaterialEN,
		MaterialTH:       constants.FallbackMaterialTH,
		FunctionEN:       constants.FallbackFunctionEN,
		FunctionTH:       constants.FallbackFunctionTH,
		WhereUsedEN:      constants.FallbackWhereUsedEN,
		WhereUsedTH:      constants.FallbackWhereUsedTH,
		Tags:             []string{"product", "part", part},
		Sources:          []entity.SourceRef{{Name: constants.FallbackSourceName, URL: ""}},
		Images:           []string{},
		SourceConfidence: constants.ConfidenceNoSourceStrict,
	}
	rec.LongEN = joinTwo(rec.FunctionEN, rec.MaterialEN)
	rec.LongTH = joinTwo(rec.FunctionTH, rec.WhereUsedTH)
	if debug && err != nil {
		rec.Error = err.Error()
	}
	return rec
}
