package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"lendtrack/internal/core"
	"lendtrack/internal/export"
)

// loanView is a loan annotated with its derived financials.
type loanView struct {
	core.Loan
	Totals core.LoanTotals `json:"totals"`
	Status core.LoanStatus `json:"status"`
}

// personView is a person annotated with aggregate financials; its
// loans are ordered by creation time.
type personView struct {
	core.Person
	Loans     []loanView           `json:"loans"`
	Aggregate core.PersonAggregate `json:"aggregate"`
	Status    core.LoanStatus      `json:"status"`
}

func (s *Server) routes(router *mux.Router) {
	router.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", handleReady).Methods(http.MethodGet)
	router.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)

	api.HandleFunc("/people", s.handleListPeople).Methods(http.MethodGet)
	api.HandleFunc("/people", s.handleAddPerson).Methods(http.MethodPost)
	api.HandleFunc("/people/{personID}", s.handleGetPerson).Methods(http.MethodGet)
	api.HandleFunc("/people/{personID}", s.handleEditPerson).Methods(http.MethodPut)
	api.HandleFunc("/people/{personID}", s.handleDeletePerson).Methods(http.MethodDelete)

	api.HandleFunc("/people/{personID}/loans", s.handleAddLoan).Methods(http.MethodPost)
	api.HandleFunc("/people/{personID}/loans/{loanID}", s.handleEditLoan).Methods(http.MethodPut)
	api.HandleFunc("/people/{personID}/loans/{loanID}", s.handleDeleteLoan).Methods(http.MethodDelete)
	api.HandleFunc("/people/{personID}/loans/{loanID}/receive", s.handleMarkReceived).Methods(http.MethodPost)

	api.HandleFunc("/people/{personID}/loans/{loanID}/transactions", s.handleAddTransaction).Methods(http.MethodPost)
	api.HandleFunc("/people/{personID}/loans/{loanID}/transactions/{txnID}", s.handleDeleteTransaction).Methods(http.MethodDelete)

	api.HandleFunc("/payment-modes", s.handleListPaymentModes).Methods(http.MethodGet)
	api.HandleFunc("/payment-modes", s.handleAddPaymentMode).Methods(http.MethodPost)
	api.HandleFunc("/payment-modes/{label}", s.handleDeletePaymentMode).Methods(http.MethodDelete)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) viewPerson(p core.Person) personView {
	now := s.tracker.Now()
	view := personView{
		Person:    p,
		Loans:     make([]loanView, 0, len(p.Loans)),
		Aggregate: p.Aggregate(now),
		Status:    p.Status(now),
	}
	for _, l := range p.SortedLoans() {
		view.Loans = append(view.Loans, loanView{
			Loan:   l,
			Totals: l.Totals(),
			Status: l.Status(now),
		})
	}
	return view
}

func (s *Server) handleListPeople(w http.ResponseWriter, r *http.Request) {
	people := s.tracker.People()
	views := make([]personView, 0, len(people))
	for _, p := range people {
		views = append(views, s.viewPerson(p))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	p, err := s.tracker.Person(mux.Vars(r)["personID"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewPerson(p))
}

// loanPayload carries the user-entered loan fields of a create
// request.
type loanPayload struct {
	Purpose  string          `json:"purpose"`
	Interest json.RawMessage `json:"interest"`
	DueDate  core.Date       `json:"dueDate"`
	Duration string          `json:"duration"`
}

func (p loanPayload) draft() (core.LoanDraft, error) {
	interest, err := parseAmount(p.Interest)
	if err != nil {
		return core.LoanDraft{}, err
	}
	return core.LoanDraft{
		Purpose:  sanitizeInput(p.Purpose),
		Interest: interest,
		DueDate:  p.DueDate,
		Duration: sanitizeInput(p.Duration),
	}, nil
}

func (s *Server) handleAddPerson(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string      `json:"name"`
		Loan loanPayload `json:"loan"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	draft, err := req.Loan.draft()
	if err != nil {
		writeError(w, r, err)
		return
	}

	p, err := s.tracker.AddPerson(r.Context(), sanitizeInput(req.Name), draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusCreated, s.viewPerson(p))
}

func (s *Server) handleEditPerson(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	personID := mux.Vars(r)["personID"]
	if err := s.tracker.EditPerson(r.Context(), personID, sanitizeInput(req.Name)); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateCaches()

	p, err := s.tracker.Person(personID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewPerson(p))
}

func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.DeletePerson(r.Context(), mux.Vars(r)["personID"]); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAddLoan(w http.ResponseWriter, r *http.Request) {
	var req loanPayload
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	draft, err := req.draft()
	if err != nil {
		writeError(w, r, err)
		return
	}

	l, err := s.tracker.AddLoan(r.Context(), mux.Vars(r)["personID"], draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusCreated, loanView{
		Loan:   l,
		Totals: l.Totals(),
		Status: l.Status(s.tracker.Now()),
	})
}

func (s *Server) handleEditLoan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Purpose  *string         `json:"purpose"`
		Interest json.RawMessage `json:"interest"`
		DueDate  *core.Date      `json:"dueDate"`
		Duration *string         `json:"duration"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	upd := core.LoanUpdate{DueDate: req.DueDate}
	if req.Purpose != nil {
		p := sanitizeInput(*req.Purpose)
		upd.Purpose = &p
	}
	if req.Duration != nil {
		d := sanitizeInput(*req.Duration)
		upd.Duration = &d
	}
	if len(req.Interest) > 0 {
		interest, err := parseAmount(req.Interest)
		if err != nil {
			writeError(w, r, err)
			return
		}
		upd.Interest = &interest
	}

	vars := mux.Vars(r)
	if err := s.tracker.EditLoan(r.Context(), vars["personID"], vars["loanID"], upd); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleDeleteLoan(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.tracker.DeleteLoan(r.Context(), vars["personID"], vars["loanID"]); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date   core.Date       `json:"date"`
		Amount json.RawMessage `json:"amount"`
		Mode   string          `json:"mode"`
		Note   string          `json:"note"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	vars := mux.Vars(r)
	txn, err := s.tracker.AddTransaction(r.Context(), vars["personID"], vars["loanID"], core.TransactionDraft{
		Date:   req.Date,
		Amount: amount,
		Mode:   sanitizeInput(req.Mode),
		Note:   sanitizeInput(req.Note),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusCreated, txn)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.tracker.DeleteTransaction(r.Context(), vars["personID"], vars["loanID"], vars["txnID"]); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateCaches()
	writeJSON(w, http.StatusNoContent, nil)
}

func (s *Server) handleMarkReceived(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount json.RawMessage `json:"amount"`
		Date   core.Date       `json:"date"`
		Mode   string          `json:"mode"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	vars := mux.Vars(r)
	if err := s.tracker.MarkLoanReceived(r.Context(), vars["personID"], vars["loanID"], amount, req.Date, sanitizeInput(req.Mode)); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateCaches()

	p, err := s.tracker.Person(vars["personID"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.viewPerson(p))
}

func (s *Server) handleListPaymentModes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"paymentModes": s.tracker.PaymentModes(),
	})
}

func (s *Server) handleAddPaymentMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	label := sanitizeInput(req.Label)
	if label == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "empty payment mode label"})
		return
	}

	added := s.tracker.AddPaymentMode(r.Context(), label)
	status := http.StatusCreated
	if !added {
		status = http.StatusOK
	}
	writeJSON(w, status, map[string][]string{
		"paymentModes": s.tracker.PaymentModes(),
	})
}

func (s *Server) handleDeletePaymentMode(w http.ResponseWriter, r *http.Request) {
	if !s.tracker.DeletePaymentMode(r.Context(), mux.Vars(r)["label"]) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "payment mode not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"paymentModes": s.tracker.PaymentModes(),
	})
}

const overviewCacheKey = "overview"

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if ov, ok := s.overviewCache.Get(overviewCacheKey); ok {
		writeJSON(w, http.StatusOK, ov)
		return
	}

	ov := s.tracker.Overview()
	s.overviewCache.Set(overviewCacheKey, ov)
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	now := s.tracker.Now()
	filename := export.Filename(now)

	body, ok := s.exportCache.Get(filename)
	if !ok {
		var buf bytes.Buffer
		if err := export.Write(&buf, s.tracker.Snapshot(), now); err != nil {
			writeError(w, r, err)
			return
		}
		body = buf.Bytes()
		s.exportCache.Set(filename, body)
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
