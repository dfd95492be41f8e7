package pipeline

import "github.com/joseph-ayodele/partsynth/internal/entity"

// Stage names used in diagnostics.
const (
	StageCompletion = "completion"
	StageItem       = "item"
)

// Diagnostic explains how a record was degraded. The zero value means a clean run.
type Diagnostic struct {
	Stage    string // stage that forced the fallback record, if any
	Err      error
	Degraded []string // best-effort steps that produced nothing, e.g. "translation", "guard:eccn"
}

// Result is the internal outcome of one item. The public API only exposes Record.
type Result struct {
	Record     entity.PartRecord
	Diagnostic Diagnostic
}

// Fallback reports whether Record is the minimal fallback record.
func (r Result) Fallback() bool {
	return r.Diagnostic.Err != nil
}
