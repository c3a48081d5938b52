package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"budgetplanner/backend/models"
	"budgetplanner/backend/services"

	"github.com/gorilla/mux"
)

const maxReceiptImage = 10 << 20

// CaptureHandler serves SMS import and receipt scanning.
type CaptureHandler struct {
	sms      *services.SMSService
	receipts *services.ReceiptService
}

func NewCaptureHandler(sms *services.SMSService, receipts *services.ReceiptService) *CaptureHandler {
	return &CaptureHandler{sms: sms, receipts: receipts}
}

// ImportSMS handles POST /sms/import with a JSON array of messages or
// {"messages": [...]}.
func (h *CaptureHandler) ImportSMS(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Messages []models.SMSMessage `json:"messages"`
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		badRequest(w, r, "read body: %v", err)
		return
	}
	if trimmed := strings.TrimSpace(string(raw)); strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(raw, &body.Messages)
	} else {
		err = json.Unmarshal(raw, &body)
	}
	if err != nil {
		badRequest(w, r, "invalid JSON body: %v", err)
		return
	}

	res, err := h.sms.Import(r.Context(), body.Messages)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *CaptureHandler) receiptsReady(w http.ResponseWriter, r *http.Request) bool {
	if h.receipts == nil {
		writeError(w, r, services.ErrUnavailable)
		return false
	}
	return true
}

// ScanReceipt handles POST /receipts/scan. The image is either the raw
// request body or the "image" field of a multipart form.
func (h *CaptureHandler) ScanReceipt(w http.ResponseWriter, r *http.Request) {
	if !h.receiptsReady(w, r) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptImage)

	var (
		image    []byte
		mimeType string
		err      error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, ferr := r.FormFile("image")
		if ferr != nil {
			badRequest(w, r, "missing image field: %v", ferr)
			return
		}
		defer file.Close()
		mimeType = header.Header.Get("Content-Type")
		image, err = io.ReadAll(file)
	} else {
		mimeType = r.Header.Get("Content-Type")
		image, err = io.ReadAll(r.Body)
	}
	if err != nil {
		badRequest(w, r, "read image: %v", err)
		return
	}
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}

	draft, err := h.receipts.Scan(r.Context(), image, mimeType)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

// ScanText handles POST /receipts/scan-text with {"text": "..."}.
func (h *CaptureHandler) ScanText(w http.ResponseWriter, r *http.Request) {
	if !h.receiptsReady(w, r) {
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	draft, err := h.receipts.ScanText(r.Context(), body.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

func (h *CaptureHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	if !h.receiptsReady(w, r) {
		return
	}
	draft, err := h.receipts.GetDraft(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// CommitDraft handles POST /receipts/drafts/{id}/commit with optional edits.
func (h *CaptureHandler) CommitDraft(w http.ResponseWriter, r *http.Request) {
	if !h.receiptsReady(w, r) {
		return
	}
	var edits models.ReceiptEdits
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &edits) {
			return
		}
	}
	t, err := h.receipts.Commit(r.Context(), mux.Vars(r)["id"], edits)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}
