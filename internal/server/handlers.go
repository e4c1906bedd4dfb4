package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/Mikeolab/devops-real-app/internal/auth"
	"github.com/Mikeolab/devops-real-app/internal/domain"
	"github.com/Mikeolab/devops-real-app/internal/logging"
	"github.com/Mikeolab/devops-real-app/internal/quotes"
	"github.com/Mikeolab/devops-real-app/internal/service"
)

const defaultMaxBodyBytes = 64 << 10

// LeadHandlers exposes the lead submission and listing endpoints.
type LeadHandlers struct {
	logger       *slog.Logger
	service      *service.LeadService
	maxBodyBytes int64
}

// NewLeadHandlers constructs a LeadHandlers instance. maxBodyBytes <= 0 selects the default.
func NewLeadHandlers(logger *slog.Logger, svc *service.LeadService, maxBodyBytes int64) *LeadHandlers {
	if maxBodyBytes <= 0 {
		maxBodyBytes = defaultMaxBodyBytes
	}
	return &LeadHandlers{
		logger:       logging.Ensure(logger),
		service:      svc,
		maxBodyBytes: maxBodyBytes,
	}
}

type leadResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Service   string `json:"service"`
	Note      string `json:"note"`
	CreatedAt string `json:"createdAt"`
	Source    string `json:"_source,omitempty"`
}

func (h *LeadHandlers) createLead(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	payload, err := decodePayload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	lead, err := h.service.CreateLead(r.Context(), payload)
	if err != nil {
		var ve *service.ValidationError
		if errors.As(err, &ve) {
			h.logger.Debug("lead rejected", "field", ve.Field, "reason", ve.Err)
			writeError(w, http.StatusBadRequest, ve.Error())
			return
		}
		h.logger.Error("failed to save lead", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save lead")
		return
	}

	h.logger.Info("lead created", "id", lead.ID, "service", lead.Service)
	respondJSON(w, http.StatusCreated, toLeadResponse(lead))
}

func (h *LeadHandlers) listLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := h.service.ListLeads(r.Context())
	if err != nil {
		h.logger.Error("failed to read leads", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read leads")
		return
	}

	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		h.logger.Debug("leads listed", "subject", id.Subject, "count", len(leads))
	}

	resp := make([]leadResponse, 0, len(leads))
	for _, lead := range leads {
		resp = append(resp, toLeadResponse(lead))
	}
	respondJSON(w, http.StatusOK, resp)
}

// QuoteFetcher returns current prices.
type QuoteFetcher interface {
	Fetch(ctx context.Context) (quotes.Quote, error)
}

// QuoteHandlers proxies the price feed.
type QuoteHandlers struct {
	logger  *slog.Logger
	fetcher QuoteFetcher
}

// NewQuoteHandlers constructs a QuoteHandlers instance.
func NewQuoteHandlers(logger *slog.Logger, fetcher QuoteFetcher) *QuoteHandlers {
	return &QuoteHandlers{
		logger:  logging.Ensure(logger),
		fetcher: fetcher,
	}
}

type quoteResponse struct {
	BitcoinUSD  *float64 `json:"bitcoin_usd"`
	EthereumUSD *float64 `json:"ethereum_usd"`
}

func (h *QuoteHandlers) getQuotes(w http.ResponseWriter, r *http.Request) {
	q, err := h.fetcher.Fetch(r.Context())
	if err != nil {
		h.logger.Warn("price feed failed", "error", err)
		writeError(w, http.StatusBadGateway, quotes.ErrUpstreamUnavailable.Error())
		return
	}
	respondJSON(w, http.StatusOK, quoteResponse{
		BitcoinUSD:  q.BitcoinUSD,
		EthereumUSD: q.EthereumUSD,
	})
}

func toLeadResponse(lead domain.Lead) leadResponse {
	return leadResponse{
		ID:        lead.ID,
		Name:      lead.Name,
		Phone:     lead.Phone,
		Service:   string(lead.Service),
		Note:      lead.Note,
		CreatedAt: formatTime(lead.CreatedAt),
		Source:    lead.Source,
	}
}

// decodePayload reads a JSON object body. An empty body decodes to an empty payload
// so that validation, not parsing, reports the missing fields.
func decodePayload(r *http.Request) (service.Payload, error) {
	if r.Body == nil {
		return service.Payload{}, nil
	}
	defer r.Body.Close()

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return service.Payload{}, nil
	}

	var payload service.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	if payload == nil {
		payload = service.Payload{}
	}
	return payload, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}
