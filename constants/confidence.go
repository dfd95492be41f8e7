package constants

// SourceConfidence labels how a part record was grounded.
type SourceConfidence string

// Stable values (emitted verbatim in the record JSON).
const (
	ConfidenceDerived        SourceConfidence = "derived"          // at least one real source document
	ConfidenceNoSourceStrict SourceConfidence = "no_source_strict" // model/domain prior only
)

const (
	// PlaceholderImageURL is returned when neither image step produced anything.
	PlaceholderImageURL = "https://via.placeholder.com/1024x768?text=Product+Image+1"

	// PlaceholderSourceName names the synthetic document used when no real sources exist.
	PlaceholderSourceName = "GPT Knowledge Base"

	// NoSourcesMarker is bundled into the prompt when the source list is empty.
	NoSourcesMarker = "NO_SOURCES_AVAILABLE"

	// FallbackSourceName is the single source entry of a fallback record.
	FallbackSourceName = "Fallback"
)

// Fallback field values used when the completion for a part could not be produced.
const (
	FallbackFunctionEN  = "Product information"
	FallbackFunctionTH  = "ข้อมูลผลิตภัณฑ์"
	FallbackWhereUsedEN = "Industrial use"
	FallbackWhereUsedTH = "ใช้งานอุตสาหกรรม"
	FallbackMaterialEN  = "Unknown"
	FallbackMaterialTH  = "ไม่ทราบ"
	FallbackUOM         = "piece"
)
