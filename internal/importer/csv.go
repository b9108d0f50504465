package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/shopspring/decimal"
)

const fechaLayout = "2006-01-02 15:04:05"

var ErrNoData = errors.New("csv has no data rows")

// row looks up a record by header name, accepting any of several aliases.
type row struct {
	index  map[string]int
	fields []string
}

func (r row) get(aliases ...string) string {
	for _, a := range aliases {
		i, ok := r.index[strings.ToLower(a)]
		if !ok || i >= len(r.fields) {
			continue
		}
		if v := strings.TrimSpace(r.fields[i]); v != "" {
			return v
		}
	}
	return ""
}

func (r row) blank() bool {
	for _, f := range r.fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func or(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// ParseCSV reads a header row followed by data rows. kind may be empty when the
// file starts with a #kind=<kind> line.
func ParseCSV(r io.Reader, kind Kind) (model.ImportBatch, error) {
	br := bufio.NewReader(r)
	declared, err := readDirective(br)
	if err != nil {
		return model.ImportBatch{}, err
	}
	if kind == "" {
		kind = declared
	}
	if kind == "" {
		return model.ImportBatch{}, fmt.Errorf("%w: no kind given and no %s line", ErrUnknownKind, directivePrefix)
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return model.ImportBatch{}, err
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return model.ImportBatch{}, fmt.Errorf("read csv: %w", err)
	}
	if len(records) < 2 {
		return model.ImportBatch{}, ErrNoData
	}

	index := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		h = strings.TrimPrefix(h, "\uFEFF")
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var batch model.ImportBatch
	for n, fields := range records[1:] {
		rw := row{index: index, fields: fields}
		if rw.blank() {
			continue
		}
		line := n + 2
		switch kind {
		case KindUsers:
			batch.Users = append(batch.Users, userRecord(rw))
		case KindProperties:
			batch.Properties = append(batch.Properties, propertyRecord(rw))
		case KindTransactions:
			batch.Transactions = append(batch.Transactions, transactionRecord(rw))
		case KindPayments:
			rec, err := paymentRecord(rw)
			if err != nil {
				return model.ImportBatch{}, fmt.Errorf("line %d: %w", line, err)
			}
			batch.Payments = append(batch.Payments, rec)
		}
	}
	return batch, nil
}

func readDirective(br *bufio.Reader) (Kind, error) {
	peek, err := br.Peek(len(directivePrefix))
	if err != nil || !strings.EqualFold(string(peek), directivePrefix) {
		// short files fall through to the csv reader
		return "", nil
	}
	line, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return ParseKind(strings.TrimSpace(line[len(directivePrefix):]))
}

func userRecord(r row) model.UserRecord {
	nombres := r.get("nombres")
	name := r.get("name", "nombre")
	if name == "" && nombres != "" {
		name = strings.Fields(nombres)[0]
	}
	fullName := r.get("fullName", "nombreCompleto", "nombres")
	if fullName == "" {
		fullName = strings.TrimSpace(r.get("nombre") + " " + r.get("apellido"))
	}
	return model.UserRecord{
		Cedula:   r.get("cedula", "id", "documento"),
		Password: or(r.get("password", "contraseña"), DefaultPassword),
		Name:     name,
		FullName: fullName,
		Email:    r.get("email", "correo"),
		Phone:    r.get("phone", "telefono", "celular"),
		IsActive: !strings.EqualFold(r.get("isActive"), "false") && !strings.EqualFold(r.get("activo"), "false"),
	}
}

func propertyRecord(r row) model.PropertyRecord {
	return model.PropertyRecord{
		UserCedula:     r.get("userCedula", "cedula", "propietario"),
		PropertyNumber: r.get("propertyNumber", "numero", "predio"),
		PropertyType:   or(r.get("propertyType", "tipo"), "RESIDENCIAL"),
		Address:        r.get("address", "direccion", "ubicacion"),
	}
}

func transactionRecord(r row) model.TransactionRecord {
	raw := or(r.get("estado", "status"), string(model.TransactionPending))
	estado, ok := model.ParseTransactionStatus(raw)
	if !ok {
		// kept as given so the store counts it as skipped
		estado = model.TransactionStatus(raw)
	}
	if strings.EqualFold(r.get("isApproved"), "true") || strings.EqualFold(r.get("aprobado"), "true") {
		estado = model.TransactionApproved
	}
	return model.TransactionRecord{
		UserCedula: r.get("userCedula", "cedula", "propietario"),
		Referencia: r.get("referencia", "reference", "id"),
		Estado:     estado,
		Fecha:      or(r.get("fecha", "date"), time.Now().Format(fechaLayout)),
		Valor:      or(r.get("valor", "amount", "monto"), "0"),
		Concepto:   or(r.get("concepto", "concept"), "Impuesto Predial"),
	}
}

func paymentRecord(r row) (model.PaymentRecord, error) {
	amount, err := decimal.NewFromString(or(r.get("amount", "monto"), "0"))
	if err != nil {
		return model.PaymentRecord{}, fmt.Errorf("amount: %w", err)
	}
	date := time.Now().UTC()
	if raw := r.get("paymentDate", "fechaPago"); raw != "" {
		if date, err = parseDate(raw); err != nil {
			return model.PaymentRecord{}, fmt.Errorf("paymentDate: %w", err)
		}
	}
	return model.PaymentRecord{
		UserCedula:           r.get("userCedula", "cedula"),
		TransactionReference: r.get("transactionReference", "referencia"),
		PaymentMethod:        or(r.get("paymentMethod", "metodoPago"), model.DefaultPaymentMethod),
		PaymentDate:          date,
		Amount:               amount,
		Status:               model.PaymentStatus(strings.ToLower(or(r.get("status", "estado"), string(model.PaymentCompleted)))),
		AdminNotes:           r.get("adminNotes", "notas"),
	}, nil
}

var dateLayouts = []string{time.RFC3339, fechaLayout, "2006-01-02"}

func parseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, err
}
