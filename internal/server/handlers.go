package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/partsynth/internal/common"
	"github.com/joseph-ayodele/partsynth/internal/entity"
	"github.com/joseph-ayodele/partsynth/internal/images"
	"github.com/joseph-ayodele/partsynth/internal/pipeline"
)

const maxBodyBytes = 1 << 20

type generateRequest struct {
	PartNumber  string   `json:"part_number"`
	PartNumbers []string `json:"part_numbers"`
	WithImage   *bool    `json:"with_image"`
	SourceURLs  []string `json:"source_urls"`
}

type batchResponse struct {
	Results  []entity.PartRecord   `json:"results"`
	Rejected []common.RejectedPart `json:"rejected,omitempty"`
}

// parsedParts is a validated generate request target.
type parsedParts struct {
	ids      []string
	rejected []common.RejectedPart
	batch    bool
}

// parts validates the identifiers and reports whether the request is a batch.
// part_numbers wins over part_number when both are present.
func (req generateRequest) parts() (parsedParts, error) {
	if req.PartNumbers != nil {
		ids, rejected, err := common.NormalizePartIdentifiers(req.PartNumbers)
		return parsedParts{ids: ids, rejected: rejected, batch: true}, err
	}
	part, err := common.ValidatePartIdentifier(req.PartNumber)
	if err != nil {
		return parsedParts{}, err
	}
	return parsedParts{ids: []string{part}}, nil
}

func (req generateRequest) options() pipeline.Options {
	return pipeline.Options{
		WithImage:  req.WithImage == nil || *req.WithImage,
		SourceURLs: req.SourceURLs,
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}
	p, err := req.parts()
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	s.logRejected(p.rejected)

	if p.batch {
		ctx, cancel := s.generationContext(r, len(p.ids), "batch-generate")
		defer cancel()
		recs := s.gen.GenerateBatch(ctx, p.ids, req.options())
		s.respondWithJSON(w, http.StatusOK, batchResponse{Results: recs, Rejected: p.rejected})
		return
	}
	ctx, cancel := s.generationContext(r, 1, "generate")
	defer cancel()
	rec := s.gen.Generate(ctx, p.ids[0], req.options())
	s.respondWithJSON(w, http.StatusOK, rec)
}

func (s *Server) logRejected(rejected []common.RejectedPart) {
	for _, rp := range rejected {
		s.logger.Warn("http.generate.rejected_part", "index", rp.Index, "part", rp.PartNumber, "reason", rp.Reason)
	}
}

func (s *Server) handleGenerateXLSX(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}
	p, err := req.parts()
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	s.logRejected(p.rejected)

	ctx, cancel := s.generationContext(r, len(p.ids), "batch-generate")
	defer cancel()
	recs := s.gen.GenerateBatch(ctx, p.ids, req.options())
	b, err := s.export.RecordsXLSX(recs)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "error", err)
		s.respondWithError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="parts.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

type imageRequest struct {
	PartNumber string `json:"part_number"`
	Fields     struct {
		ProductName  string   `json:"product_name"`
		CommonNameEN string   `json:"common_name_en"`
		MaterialEN   string   `json:"characteristics_of_material_en"`
		Candidates   []string `json:"image_candidates"`
	} `json:"fields"`
}

type imageResponse struct {
	URL    string   `json:"url"`
	Images []string `json:"images"`
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondWithError(w, err)
		return
	}
	part, err := common.ValidatePartIdentifier(req.PartNumber)
	if err != nil {
		s.respondWithError(w, err)
		return
	}

	h := images.Hints{
		DisplayName:    strings.TrimSpace(req.Fields.ProductName),
		CommonName:     strings.TrimSpace(req.Fields.CommonNameEN),
		Material:       strings.TrimSpace(req.Fields.MaterialEN),
		PageCandidates: req.Fields.Candidates,
	}
	urls := s.gen.Images(r.Context(), part, h)
	if len(urls) == 0 {
		s.respondWithError(w, common.NewAppError("IMAGE_ERROR", "no image produced", common.ErrImage))
		return
	}
	s.respondWithJSON(w, http.StatusOK, imageResponse{URL: urls[0], Images: urls})
}

type detailedSpecResponse struct {
	PartNumber string `json:"part_number"`
	Analysis   string `json:"analysis"`
}

func (s *Server) handleDetailedSpec(w http.ResponseWriter, r *http.Request) {
	var rec entity.PartRecord
	if err := decodeJSON(r, &rec); err != nil {
		s.respondWithError(w, err)
		return
	}
	report, err := s.gen.DetailedSpec(r.Context(), rec)
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, detailedSpecResponse{PartNumber: rec.PartNumber, Analysis: report})
}

// DefaultUsageWindow is the /usage lookback when neither since nor days is given.
const DefaultUsageWindow = 30 * 24 * time.Hour

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.usage == nil {
		s.respondWithError(w, common.ConfigurationError("usage tracking is disabled"))
		return
	}
	since, err := parseSince(r, time.Now().UTC())
	if err != nil {
		s.respondWithError(w, err)
		return
	}
	totals, err := s.usage.Totals(r.Context(), since)
	if err != nil {
		s.logger.Error("usage.totals.failed", "error", err)
		s.respondWithError(w, err)
		return
	}
	s.respondWithJSON(w, http.StatusOK, totals)
}

func parseSince(r *http.Request, now time.Time) (time.Time, error) {
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("since")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, common.NewAppError("INVALID_ARGUMENT", "since must be RFC3339", common.ErrInvalidInput)
		}
		return t, nil
	}
	if v := strings.TrimSpace(q.Get("days")); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			return time.Time{}, common.NewAppError("INVALID_ARGUMENT", "days must be a positive integer", common.ErrInvalidInput)
		}
		return now.Add(-time.Duration(days) * 24 * time.Hour), nil
	}
	return now.Add(-DefaultUsageWindow), nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	if s.db != nil {
		if err := s.db.HealthCheck(r.Context(), 2*time.Second); err != nil {
			s.logger.Error("health.database.failed", "error", err)
			status["status"] = "degraded"
			status["database"] = "unhealthy"
			code = http.StatusServiceUnavailable
		} else {
			status["database"] = "healthy"
		}
	}
	s.respondWithJSON(w, code, status)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return common.NewAppError("INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err), common.ErrInvalidInput)
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrConfiguration):
		return http.StatusServiceUnavailable
	case errors.Is(err, common.ErrCompletion), errors.Is(err, common.ErrImage):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) respondWithError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	s.respondWithJSON(w, code, errorResponse{Error: msg, Code: common.ErrorCode(err)})
}

func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("http.response.encode_failed", "error", err)
	}
}
