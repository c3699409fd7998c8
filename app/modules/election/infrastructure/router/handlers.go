package electionrouter

import (
	"bytes"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	authhandlers "github.com/MCCitiesNetwork/Elections-sub001/app/modules/auth/infrastructure/handlers"
	electionservice "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/application"
	electiondomain "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/domain"
	electionexport "github.com/MCCitiesNetwork/Elections-sub001/app/modules/election/infrastructure/export"
	"github.com/MCCitiesNetwork/Elections-sub001/pkg/observability/attr"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ElectionSummary is one row of the election list.
type ElectionSummary struct {
	ID               electiondomain.ElectionID   `json:"id"`
	Title            string                      `json:"title"`
	Status           electiondomain.Status       `json:"status"`
	System           electiondomain.VotingSystem `json:"system"`
	MinimumVotes     int                         `json:"minimumVotes"`
	Candidates       int                         `json:"candidates"`
	SubmittedBallots int                         `json:"submittedBallots"`
	ClosesAt         *time.Time                  `json:"closesAt,omitempty"`
}

// ElectionDetail is the single-election view: the public export plus the
// current tally.
type ElectionDetail struct {
	electionexport.Document
	Tally []electionexport.TallyRow `json:"tally"`
}

// Handlers serves read-only views over election snapshots.
type Handlers struct {
	reader  electionservice.Reader
	logger  *slog.Logger
	tracer  trace.Tracer
	palette electionexport.ChartPalette
}

// NewHandlers creates the HTTP handlers.
func NewHandlers(reader electionservice.Reader, logger *slog.Logger, tracer trace.Tracer) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("elections.http")
	}
	return &Handlers{
		reader:  reader,
		logger:  logger,
		tracer:  tracer,
		palette: electionexport.DefaultPalette,
	}
}

// HandleList lists every election.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	_, span := h.tracer.Start(r.Context(), "election.http.list")
	defer span.End()

	snaps := h.reader.Snapshots()
	out := make([]ElectionSummary, 0, len(snaps))
	for _, s := range snaps {
		summary := ElectionSummary{
			ID:               s.ID(),
			Title:            s.Title(),
			Status:           s.Status(),
			System:           s.System(),
			MinimumVotes:     s.MinimumVotes(),
			Candidates:       len(s.Candidates()),
			SubmittedBallots: s.SubmittedBallots(),
		}
		if closesAt, ok := s.ClosesAt(); ok {
			summary.ClosesAt = &closesAt
		}
		out = append(out, summary)
	}
	span.SetAttributes(attribute.Int("elections", len(out)))
	h.writeJSON(w, r, out)
}

// HandleGet returns one election with its tally.
func (h *Handlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	doc := electionexport.Build(snap, electionexport.Options{})
	h.writeJSON(w, r, ElectionDetail{Document: doc, Tally: electionexport.TallyDocument(doc)})
}

// HandleExport returns the public export document, which never lists voters.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	h.serveJSONExport(w, r, electionexport.Options{})
}

// HandleAdminExport returns the export document with voters. It is mounted
// behind RequireRole(RoleAdmin).
func (h *Handlers) HandleAdminExport(w http.ResponseWriter, r *http.Request) {
	h.logPrivileged(r)
	h.serveJSONExport(w, r, electionexport.Options{IncludeVoters: true})
}

// HandleExportXLSX returns the public export as a workbook.
func (h *Handlers) HandleExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.serveXLSXExport(w, r, electionexport.Options{})
}

// HandleAdminExportXLSX returns the workbook with the voters sheet.
func (h *Handlers) HandleAdminExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.logPrivileged(r)
	h.serveXLSXExport(w, r, electionexport.Options{IncludeVoters: true})
}

func (h *Handlers) serveJSONExport(w http.ResponseWriter, r *http.Request, opts electionexport.Options) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := electionexport.WriteJSON(w, electionexport.Build(snap, opts)); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to write export", attr.ElectionID(int64(snap.ID())), attr.Error(err))
	}
}

func (h *Handlers) serveXLSXExport(w http.ResponseWriter, r *http.Request, opts electionexport.Options) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := electionexport.WriteXLSX(&buf, electionexport.Build(snap, opts)); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render workbook", attr.ElectionID(int64(snap.ID())), attr.Error(err))
		http.Error(w, "Failed to render workbook", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename=\"election-"+strconv.FormatInt(int64(snap.ID()), 10)+".xlsx\"")
	_, _ = w.Write(buf.Bytes())
}

// HandleTallyChart returns the tally as a PNG bar chart.
func (h *Handlers) HandleTallyChart(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w, r)
	if !ok {
		return
	}

	img, err := electionexport.RenderTallyChart(electionexport.Build(snap, electionexport.Options{}), h.palette)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render tally chart", attr.ElectionID(int64(snap.ID())), attr.Error(err))
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(img)
}

func (h *Handlers) snapshot(w http.ResponseWriter, r *http.Request) (electionservice.ElectionSnapshot, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid election id", http.StatusBadRequest)
		return electionservice.ElectionSnapshot{}, false
	}
	snap, ok := h.reader.Snapshot(electiondomain.ElectionID(id))
	if !ok {
		http.Error(w, "Election not found", http.StatusNotFound)
		return electionservice.ElectionSnapshot{}, false
	}
	return snap, true
}

func (h *Handlers) logPrivileged(r *http.Request) {
	claims, ok := authhandlers.ClaimsFromContext(r.Context())
	if !ok {
		return
	}
	h.logger.InfoContext(r.Context(), "Privileged export served",
		attr.String("subject", claims.Subject),
		attr.String("token_id", claims.TokenID),
		attr.String("path", r.URL.Path),
	)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to encode response", attr.Error(err))
	}
}
