package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

// amountValue decodes the amount from either a JSON number or a JSON string.
// Browser clients keep form state as strings and submit it unconverted.
type amountValue struct {
	text   string
	quoted bool
}

func (a *amountValue) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		a.quoted = true
		return json.Unmarshal(data, &a.text)
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	a.text = n.String()
	return nil
}

func (a amountValue) MarshalJSON() ([]byte, error) {
	if a.quoted {
		return json.Marshal(a.text)
	}
	if a.text == "" {
		return []byte("0"), nil
	}
	return []byte(a.text), nil
}

func (a amountValue) cents() (int64, error) {
	if a.quoted {
		return core.ParseDecimalToCents(a.text)
	}
	if a.text == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(a.text, 64)
	if err != nil {
		return 0, core.ErrInvalidAmount
	}
	return core.CentsFromFloat(f)
}

type transactionRequest struct {
	Amount      amountValue `json:"amount"`
	Type        string      `json:"type"`
	Category    string      `json:"category"`
	Date        string      `json:"date"`
	Description string      `json:"description"`
	Frequency   string      `json:"frequency"`
}

func (req transactionRequest) toDomain(ownerID string) (core.Transaction, error) {
	cents, err := req.Amount.cents()
	if err != nil {
		return core.Transaction{}, err
	}

	parsed, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid date %q: %w", req.Date, core.ErrZeroDate)
	}

	return core.Transaction{
		OwnerID:     ownerID,
		Amount:      core.Money{Cents: cents},
		Type:        core.TxType(req.Type),
		Category:    req.Category,
		Date:        core.DateOf(parsed),
		Description: req.Description,
		Frequency:   core.Frequency(req.Frequency),
	}, nil
}

type transactionResponse struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	Description string  `json:"description,omitempty"`
	Frequency   string  `json:"frequency"`
}

func toResponse(tx core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Amount:      tx.Amount.Units(),
		Type:        string(tx.Type),
		Category:    tx.Category,
		Date:        tx.Date.Key(),
		Description: tx.Description,
		Frequency:   string(tx.Frequency),
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.OwnerIDFromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	switch r.Method {
	case http.MethodGet:
		txs, err := s.transactions.List(r.Context(), ownerID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out := make([]transactionResponse, 0, len(txs))
		for _, tx := range txs {
			out = append(out, toResponse(tx))
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost:
		var req transactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		tx, err := req.toDomain(ownerID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		created, err := s.transactions.Create(r.Context(), tx)
		if err != nil {
			writeError(w, r, err)
			return
		}

		s.summaries.InvalidateOwner(ownerID)
		writeJSON(w, http.StatusCreated, toResponse(created))

	default:
		methodNotAllowed(w, "GET, POST")
	}
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	ownerID, err := auth.OwnerIDFromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "transaction not found"})
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req transactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}

		tx, err := req.toDomain(ownerID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		tx.ID = id

		updated, err := s.transactions.Update(r.Context(), tx)
		if err != nil {
			writeError(w, r, err)
			return
		}

		s.summaries.InvalidateOwner(ownerID)
		writeJSON(w, http.StatusOK, toResponse(updated))

	case http.MethodDelete:
		if err := s.transactions.Delete(r.Context(), ownerID, id); err != nil {
			writeError(w, r, err)
			return
		}

		s.summaries.InvalidateOwner(ownerID)
		w.WriteHeader(http.StatusNoContent)

	default:
		methodNotAllowed(w, "PUT, DELETE")
	}
}
