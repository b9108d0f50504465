package localstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/nimasrn/hacienda/pkg/logger"
)

const fechaLayout = "2006-01-02 15:04:05"

// ImportDataFromJSON inserts a batch in one DB transaction. Rows already present
// by natural key, and rows whose owner or transaction cannot be resolved, are
// skipped and counted.
func (s *Store) ImportDataFromJSON(ctx context.Context, batch model.ImportBatch) (model.ImportResult, error) {
	var res model.ImportResult
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		res = model.ImportResult{}
		imp := &importer{s: s, userIDs: map[string]int64{}}
		if err := imp.users(ctx, batch.Users, &res.Users); err != nil {
			return err
		}
		if err := imp.properties(ctx, batch.Properties, &res.Properties); err != nil {
			return err
		}
		if err := imp.transactions(ctx, batch.Transactions, &res.Transactions); err != nil {
			return err
		}
		return imp.payments(ctx, batch.Payments, &res.Payments)
	})
	if err != nil {
		return model.ImportResult{}, err
	}
	logger.Info("import finished",
		"users", res.Users.Imported, "properties", res.Properties.Imported,
		"transactions", res.Transactions.Imported, "payments", res.Payments.Imported)
	return res, nil
}

type importer struct {
	s *Store
	// cedula -> local id, 0 for unknown
	userIDs map[string]int64
}

func (imp *importer) userID(ctx context.Context, cedula string) (int64, error) {
	if id, ok := imp.userIDs[cedula]; ok {
		return id, nil
	}
	u, err := imp.s.users.GetByCedula(ctx, cedula, false)
	if errors.Is(err, repository.ErrUserNotFound) {
		imp.userIDs[cedula] = 0
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	imp.userIDs[cedula] = u.ID
	return u.ID, nil
}

func (imp *importer) users(ctx context.Context, records []model.UserRecord, count *model.ImportCount) error {
	for _, r := range records {
		if r.Cedula == "" {
			count.Skipped++
			continue
		}
		if id, err := imp.userID(ctx, r.Cedula); err != nil {
			return err
		} else if id != 0 {
			count.Skipped++
			continue
		}

		var hash string
		if r.Password != "" {
			h, err := imp.s.hasher.Hash(r.Password)
			if err != nil {
				return err
			}
			hash = h
		}
		fullName := r.FullName
		if fullName == "" {
			fullName = r.Name
		}
		name := r.Name
		if name == "" {
			name = fullName
		}
		created, err := imp.s.users.Create(ctx, &model.User{
			Cedula:   r.Cedula,
			Password: hash,
			Name:     name,
			FullName: fullName,
			Email:    optional(r.Email),
			Phone:    optional(r.Phone),
			IsActive: r.IsActive,
		})
		if err != nil {
			return fmt.Errorf("import user %s: %w", r.Cedula, err)
		}
		imp.userIDs[r.Cedula] = created.ID
		count.Imported++
	}
	return nil
}

func (imp *importer) properties(ctx context.Context, records []model.PropertyRecord, count *model.ImportCount) error {
	for _, r := range records {
		uid, err := imp.userID(ctx, r.UserCedula)
		if err != nil {
			return err
		}
		if uid == 0 || r.PropertyNumber == "" {
			count.Skipped++
			continue
		}
		exists, err := imp.s.properties.Exists(ctx, uid, r.PropertyNumber)
		if err != nil {
			return err
		}
		if exists {
			count.Skipped++
			continue
		}
		if _, err := imp.s.properties.Create(ctx, &model.Property{
			UserID:         uid,
			PropertyNumber: r.PropertyNumber,
			PropertyType:   r.PropertyType,
			Address:        r.Address,
			IsActive:       true,
		}); err != nil {
			return fmt.Errorf("import property %s: %w", r.PropertyNumber, err)
		}
		count.Imported++
	}
	return nil
}

func (imp *importer) transactions(ctx context.Context, records []model.TransactionRecord, count *model.ImportCount) error {
	for _, r := range records {
		uid, err := imp.userID(ctx, r.UserCedula)
		if err != nil {
			return err
		}
		estado, ok := model.ParseTransactionStatus(string(r.Estado))
		if uid == 0 || r.Referencia == "" || !ok {
			count.Skipped++
			continue
		}
		_, err = imp.s.transactions.GetByReference(ctx, uid, r.Referencia)
		if err == nil {
			count.Skipped++
			continue
		}
		if !errors.Is(err, repository.ErrTransactionNotFound) {
			return err
		}
		fecha := r.Fecha
		if fecha == "" {
			fecha = time.Now().Format(fechaLayout)
		}
		if _, err := imp.s.transactions.Create(ctx, &model.Transaction{
			UserID:     uid,
			Referencia: r.Referencia,
			Estado:     estado,
			Fecha:      fecha,
			Valor:      r.Valor,
			Concepto:   r.Concepto,
		}); err != nil {
			return fmt.Errorf("import transaction %s: %w", r.Referencia, err)
		}
		count.Imported++
	}
	return nil
}

func (imp *importer) payments(ctx context.Context, records []model.PaymentRecord, count *model.ImportCount) error {
	for _, r := range records {
		uid, err := imp.userID(ctx, r.UserCedula)
		if err != nil {
			return err
		}
		if uid == 0 {
			count.Skipped++
			continue
		}
		txn, err := imp.s.transactions.GetByReference(ctx, uid, r.TransactionReference)
		if errors.Is(err, repository.ErrTransactionNotFound) {
			count.Skipped++
			continue
		}
		if err != nil {
			return err
		}
		paid, err := imp.s.payments.ExistsForTransaction(ctx, txn.ID)
		if err != nil {
			return err
		}
		if paid {
			count.Skipped++
			continue
		}

		status := r.Status
		if status == "" {
			status = model.PaymentCompleted
		}
		if !status.Valid() {
			count.Skipped++
			continue
		}
		method := r.PaymentMethod
		if method == "" {
			method = model.DefaultPaymentMethod
		}
		date := r.PaymentDate
		if date.IsZero() {
			date = time.Now().UTC()
		}
		if _, err := imp.s.payments.Create(ctx, &model.Payment{
			UserID:        uid,
			TransactionID: txn.ID,
			PaymentMethod: method,
			PaymentDate:   date,
			Amount:        r.Amount,
			Status:        status,
			AdminNotes:    optional(r.AdminNotes),
		}); err != nil {
			return fmt.Errorf("import payment for %s: %w", r.TransactionReference, err)
		}
		if status == model.PaymentCompleted && !txn.IsApproved() {
			if err := imp.s.transactions.SetEstado(ctx, txn.ID, model.TransactionApproved); err != nil {
				return err
			}
		}
		count.Imported++
	}
	return nil
}

// MergeApprovals approves local transactions the records show as approved.
// Approval only moves forward, a local approval is never undone.
func (s *Store) MergeApprovals(ctx context.Context, records []model.TransactionRecord) (int, error) {
	approved := 0
	err := s.db.WithinTransaction(ctx, func(ctx context.Context) error {
		imp := &importer{s: s, userIDs: map[string]int64{}}
		for _, r := range records {
			if r.Estado != model.TransactionApproved {
				continue
			}
			uid, err := imp.userID(ctx, r.UserCedula)
			if err != nil {
				return err
			}
			if uid == 0 {
				continue
			}
			txn, err := s.transactions.GetByReference(ctx, uid, r.Referencia)
			if errors.Is(err, repository.ErrTransactionNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			if txn.IsApproved() {
				continue
			}
			if err := s.transactions.SetEstado(ctx, txn.ID, model.TransactionApproved); err != nil {
				return err
			}
			approved++
		}
		return nil
	})
	return approved, err
}

// ExportPayments lists every payment with the owner and transaction natural keys.
func (s *Store) ExportPayments(ctx context.Context) ([]model.PaymentExport, error) {
	payments, err := s.payments.List(ctx, repository.PaymentFilter{})
	if err != nil {
		return nil, err
	}
	out := make([]model.PaymentExport, len(payments))
	for i, p := range payments {
		out[i] = model.PaymentExport{
			ID:                   p.ID,
			UserCedula:           p.UserCedula,
			UserFullName:         p.UserFullName,
			TransactionReference: p.TransactionRef,
			TransactionConcept:   p.TransactionConcept,
			PaymentMethod:        p.PaymentMethod,
			PaymentDate:          p.PaymentDate,
			Amount:               p.Amount,
			Status:               p.Status,
			AdminNotes:           p.AdminNotes,
			CreatedAt:            p.CreatedAt,
		}
	}
	return out, nil
}

// ExportPaymentsToJSON renders ExportPayments as an indented json array.
func (s *Store) ExportPaymentsToJSON(ctx context.Context) ([]byte, error) {
	payments, err := s.ExportPayments(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(payments, "", "  ")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
