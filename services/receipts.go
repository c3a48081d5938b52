package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"budgetplanner/backend/models"
	"budgetplanner/backend/parsers"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TextRecognizer reads the text printed on a receipt image.
type TextRecognizer interface {
	Recognize(ctx context.Context, image []byte, mimeType string) (string, error)
}

// Archiver keeps the original image and returns a URI for it.
type Archiver interface {
	Store(ctx context.Context, image []byte, mimeType string) (string, error)
}

const defaultDraftTTL = time.Hour

// ReceiptService turns receipt photos into editable drafts and commits
// them as expenses. Drafts live in memory until committed or expired.
type ReceiptService struct {
	txs      *TransactionService
	rules    *RuleService
	ocr      TextRecognizer
	archive  Archiver
	loc      *time.Location
	ttl      time.Duration
	log      zerolog.Logger
	now      func() time.Time
	mu       sync.Mutex
	drafts   map[string]models.ReceiptDraft
	currency string
}

// NewReceiptService builds the service. recognizer and archiver may be nil.
func NewReceiptService(txs *TransactionService, rules *RuleService, recognizer TextRecognizer, archiver Archiver, loc *time.Location, ttl time.Duration, log zerolog.Logger) *ReceiptService {
	if ttl <= 0 {
		ttl = defaultDraftTTL
	}
	if loc == nil {
		loc = time.Local
	}
	return &ReceiptService{
		txs:      txs,
		rules:    rules,
		ocr:      recognizer,
		archive:  archiver,
		loc:      loc,
		ttl:      ttl,
		log:      log.With().Str("component", "receipts").Logger(),
		now:      time.Now,
		drafts:   make(map[string]models.ReceiptDraft),
		currency: txs.rates.Reference(),
	}
}

// Scan recognizes image, archives it when an archiver is configured and
// returns a new draft. Archive failures are logged and do not fail the scan.
func (s *ReceiptService) Scan(ctx context.Context, image []byte, mimeType string) (models.ReceiptDraft, error) {
	if s.ocr == nil {
		return models.ReceiptDraft{}, fmt.Errorf("%w: receipt recognition", ErrUnavailable)
	}
	if len(image) == 0 {
		return models.ReceiptDraft{}, fmt.Errorf("%w: empty image", ErrInvalidArgument)
	}

	text, err := s.ocr.Recognize(ctx, image, mimeType)
	if err != nil {
		return models.ReceiptDraft{}, fmt.Errorf("recognize receipt: %w", err)
	}

	var uri string
	if s.archive != nil {
		if uri, err = s.archive.Store(ctx, image, mimeType); err != nil {
			s.log.Warn().Err(err).Msg("archive receipt image")
			uri = ""
		}
	}
	return s.newDraft(ctx, text, uri)
}

// ScanText builds a draft from text recognized elsewhere.
func (s *ReceiptService) ScanText(ctx context.Context, text string) (models.ReceiptDraft, error) {
	if strings.TrimSpace(text) == "" {
		return models.ReceiptDraft{}, fmt.Errorf("%w: empty receipt text", ErrInvalidArgument)
	}
	return s.newDraft(ctx, text, "")
}

func (s *ReceiptService) newDraft(ctx context.Context, text, uri string) (models.ReceiptDraft, error) {
	p := parsers.ParseReceipt(text, s.loc)

	d := models.ReceiptDraft{
		ID:        uuid.NewString(),
		Vendor:    p.Vendor,
		Currency:  s.currency,
		Date:      p.Date,
		RawText:   p.RawText,
		ImageURI:  uri,
		CreatedAt: s.now(),
	}
	if p.Total != nil {
		total := p.Total.InexactFloat64()
		d.Total = &total
	}

	suggestions, err := s.rules.VendorSuggestions(ctx)
	if err != nil {
		return models.ReceiptDraft{}, err
	}
	d.VendorSuggestions = suggestions

	s.mu.Lock()
	s.purgeLocked()
	s.drafts[d.ID] = d
	s.mu.Unlock()
	return d, nil
}

func (s *ReceiptService) purgeLocked() {
	cutoff := s.now().Add(-s.ttl)
	for id, d := range s.drafts {
		if d.CreatedAt.Before(cutoff) {
			delete(s.drafts, id)
		}
	}
}

func (s *ReceiptService) GetDraft(id string) (models.ReceiptDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	d, ok := s.drafts[id]
	if !ok {
		return models.ReceiptDraft{}, ErrNotFound
	}
	return d, nil
}

// Commit applies edits to the draft and stores it as an expense. The draft
// is removed only when the transaction was created.
func (s *ReceiptService) Commit(ctx context.Context, id string, edits models.ReceiptEdits) (*models.Transaction, error) {
	d, err := s.GetDraft(id)
	if err != nil {
		return nil, err
	}

	if edits.Vendor != nil {
		d.Vendor = strings.TrimSpace(*edits.Vendor)
	}
	if edits.Total != nil {
		d.Total = edits.Total
	}
	if edits.Currency != nil {
		d.Currency = strings.ToUpper(strings.TrimSpace(*edits.Currency))
	}
	if edits.Date != nil {
		d.Date = edits.Date
	}
	if d.Total == nil || *d.Total == 0 {
		return nil, fmt.Errorf("%w: receipt total is required", ErrInvalidArgument)
	}

	t := &models.Transaction{
		Timestamp:        s.now(),
		OriginalAmount:   -math.Abs(*d.Total),
		OriginalCurrency: d.Currency,
		Merchant:         d.Vendor,
		Category:         models.CategoryOther,
		Source:           models.SourceReceipt,
	}
	if d.Date != nil {
		t.Timestamp = *d.Date
	}
	if edits.Category != nil {
		t.Category = *edits.Category
	}
	if edits.Note != nil {
		t.Note = *edits.Note
	}

	if err := s.txs.Create(ctx, t); err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.drafts, id)
	s.mu.Unlock()

	s.log.Info().Int64("transaction_id", t.ID).Str("vendor", t.Merchant).Msg("receipt committed")
	return t, nil
}
