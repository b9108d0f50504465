package outbox

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/nimasrn/hacienda/pkg/logger"
	"github.com/nimasrn/hacienda/pkg/prom"
)

var ErrRemoteUnavailable = errors.New("remote api unavailable")

// Remote is the subset of the api client a replay needs.
type Remote interface {
	GetAllUsers(ctx context.Context) model.Envelope[[]*model.User]
	GetPropertiesByUser(ctx context.Context, userID int64) model.Envelope[[]*model.Property]
	GetTransactionsByUser(ctx context.Context, userID int64) model.Envelope[[]*model.Transaction]
	CreateProperty(ctx context.Context, req model.PropertyCreateRequest) model.Envelope[model.CreatedID]
	CreateTransaction(ctx context.Context, req model.TransactionCreateRequest) model.Envelope[model.CreatedID]
	CreatePayment(ctx context.Context, req model.PaymentCreateRequest, key string) model.Envelope[model.CreatedID]
}

type Repository interface {
	Append(ctx context.Context, e *repository.OutboxEntity) error
	ListByStatus(ctx context.Context, status repository.OutboxStatus) ([]*repository.OutboxEntity, error)
	MarkReplayed(ctx context.Context, id int64, at time.Time) error
	MarkConflict(ctx context.Context, id int64, reason string) error
	MarkAttempt(ctx context.Context, id int64, reason string) error
	CountByStatus(ctx context.Context, status repository.OutboxStatus) (int64, error)
}

type Outbox struct {
	repo   Repository
	remote Remote
	// one flush at a time, a reconnect and a scheduled sync may overlap
	flushMu sync.Mutex
}

func New(repo Repository, remote Remote) *Outbox {
	return &Outbox{repo: repo, remote: remote}
}

// Record appends a pending entry. Called inside the local write's DB
// transaction both commit or roll back together.
func (o *Outbox) Record(ctx context.Context, kind Kind, payload any) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode %s payload: %w", kind, err)
	}
	e := &repository.OutboxEntity{
		Key:     uuid.NewString(),
		Kind:    string(kind),
		Payload: string(raw),
	}
	if err := o.repo.Append(ctx, e); err != nil {
		return "", fmt.Errorf("append outbox entry: %w", err)
	}
	return e.Key, nil
}

func (o *Outbox) Pending(ctx context.Context) ([]*Entry, error) {
	return o.list(ctx, repository.OutboxPending)
}

func (o *Outbox) Conflicts(ctx context.Context) ([]*Entry, error) {
	return o.list(ctx, repository.OutboxConflict)
}

// Backlog counts pending and conflicting entries and publishes both to the
// outbox gauge.
func (o *Outbox) Backlog(ctx context.Context) (pending, conflicts int64, err error) {
	if pending, err = o.repo.CountByStatus(ctx, repository.OutboxPending); err != nil {
		return 0, 0, err
	}
	if conflicts, err = o.repo.CountByStatus(ctx, repository.OutboxConflict); err != nil {
		return 0, 0, err
	}
	prom.SetOutboxEntries(string(StatusPending), pending)
	prom.SetOutboxEntries(string(StatusConflict), conflicts)
	return pending, conflicts, nil
}

func (o *Outbox) list(ctx context.Context, status repository.OutboxStatus) ([]*Entry, error) {
	entities, err := o.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	out := make([]*Entry, len(entities))
	for i, e := range entities {
		out[i] = &Entry{
			ID:         e.ID,
			Key:        e.Key,
			Kind:       Kind(e.Kind),
			Payload:    e.Payload,
			Status:     Status(e.Status),
			Attempts:   e.Attempts,
			LastError:  e.LastError,
			CreatedAt:  e.CreatedAt,
			ReplayedAt: e.ReplayedAt,
		}
	}
	return out, nil
}

type FlushResult struct {
	Replayed  int `json:"replayed"`
	Conflicts int `json:"conflicts"`
	Remaining int `json:"remaining"`
}

type outcome int

const (
	replayed outcome = iota
	conflict
	retry
)

func (o outcome) String() string {
	switch o {
	case replayed:
		return "replayed"
	case conflict:
		return "conflict"
	}
	return "retry"
}

// Flush replays pending entries oldest first. It stops at the first transport
// failure or 5xx and returns ErrRemoteUnavailable, the entry stays pending.
func (o *Outbox) Flush(ctx context.Context) (FlushResult, error) {
	o.flushMu.Lock()
	defer o.flushMu.Unlock()

	defer func() {
		if _, _, err := o.Backlog(ctx); err != nil {
			logger.Warn("failed to count outbox backlog", "error", err)
		}
	}()

	var res FlushResult
	entries, err := o.repo.ListByStatus(ctx, repository.OutboxPending)
	if err != nil {
		return res, err
	}

	r := &resolver{remote: o.remote}
	for i, e := range entries {
		out, reason := o.replay(ctx, r, e)
		prom.IncOutboxReplayed(e.Kind, out.String())

		switch out {
		case replayed:
			if err := o.repo.MarkReplayed(ctx, e.ID, time.Now().UTC()); err != nil {
				return res, err
			}
			res.Replayed++
		case conflict:
			logger.Warn("outbox entry conflicts with remote", "key", e.Key, "kind", e.Kind, "reason", reason)
			if err := o.repo.MarkConflict(ctx, e.ID, reason); err != nil {
				return res, err
			}
			res.Conflicts++
		case retry:
			if err := o.repo.MarkAttempt(ctx, e.ID, reason); err != nil {
				return res, err
			}
			res.Remaining = len(entries) - i
			logger.Info("outbox flush stopped", "key", e.Key, "reason", reason, "remaining", res.Remaining)
			return res, fmt.Errorf("%w: %s", ErrRemoteUnavailable, reason)
		}
	}
	if len(entries) > 0 {
		logger.Info("outbox flushed", "replayed", res.Replayed, "conflicts", res.Conflicts)
	}
	return res, nil
}

func (o *Outbox) replay(ctx context.Context, r *resolver, e *repository.OutboxEntity) (outcome, string) {
	switch Kind(e.Kind) {
	case KindPayment:
		var p PaymentPayload
		if err := json.Unmarshal([]byte(e.Payload), &p); err != nil {
			return conflict, "bad payload: " + err.Error()
		}
		return o.replayPayment(ctx, r, e, p)
	case KindProperty:
		var p PropertyPayload
		if err := json.Unmarshal([]byte(e.Payload), &p); err != nil {
			return conflict, "bad payload: " + err.Error()
		}
		return o.replayProperty(ctx, r, p)
	case KindTransaction:
		var p TransactionPayload
		if err := json.Unmarshal([]byte(e.Payload), &p); err != nil {
			return conflict, "bad payload: " + err.Error()
		}
		return o.replayTransaction(ctx, r, p)
	}
	return conflict, "unknown kind " + e.Kind
}

func (o *Outbox) replayPayment(ctx context.Context, r *resolver, e *repository.OutboxEntity, p PaymentPayload) (outcome, string) {
	userID, out, reason := r.user(ctx, p.UserCedula)
	if out != replayed {
		return out, reason
	}
	txn, out, reason := r.transaction(ctx, userID, p.TransactionReference)
	if out != replayed {
		return out, reason
	}
	if txn == nil {
		return conflict, "transaction " + p.TransactionReference + " not found remotely"
	}
	// after a failed attempt the server may hold our payment already, the
	// idempotency key settles that case
	if txn.IsApproved() && e.Attempts == 0 {
		return conflict, "transaction " + p.TransactionReference + " already approved remotely"
	}

	date := p.PaymentDate
	amount := p.Amount
	env := o.remote.CreatePayment(ctx, model.PaymentCreateRequest{
		UserID:        userID,
		TransactionID: txn.ID,
		PaymentMethod: p.PaymentMethod,
		Amount:        &amount,
		PaymentDate:   &date,
		Status:        model.PaymentCompleted,
		AdminNotes:    p.AdminNotes,
	}, e.Key)
	if env.Success {
		txn.Estado = model.TransactionApproved
	}
	return classify(env.Success, env.StatusCode, env.Message, env.Error)
}

func (o *Outbox) replayProperty(ctx context.Context, r *resolver, p PropertyPayload) (outcome, string) {
	userID, out, reason := r.user(ctx, p.UserCedula)
	if out != replayed {
		return out, reason
	}
	existing := o.remote.GetPropertiesByUser(ctx, userID)
	if !existing.Success {
		return classify(false, existing.StatusCode, existing.Message, existing.Error)
	}
	for _, prop := range existing.Data {
		if prop.PropertyNumber == p.PropertyNumber {
			return conflict, "property " + p.PropertyNumber + " already exists remotely"
		}
	}
	env := o.remote.CreateProperty(ctx, model.PropertyCreateRequest{
		UserID:         userID,
		PropertyNumber: p.PropertyNumber,
		PropertyType:   p.PropertyType,
		Address:        p.Address,
	})
	return classify(env.Success, env.StatusCode, env.Message, env.Error)
}

func (o *Outbox) replayTransaction(ctx context.Context, r *resolver, p TransactionPayload) (outcome, string) {
	userID, out, reason := r.user(ctx, p.UserCedula)
	if out != replayed {
		return out, reason
	}
	txn, out, reason := r.transaction(ctx, userID, p.Referencia)
	if out != replayed {
		return out, reason
	}
	if txn != nil {
		return conflict, "transaction " + p.Referencia + " already exists remotely"
	}
	env := o.remote.CreateTransaction(ctx, model.TransactionCreateRequest{
		UserID:     userID,
		Referencia: p.Referencia,
		Estado:     p.Estado,
		Fecha:      p.Fecha,
		Valor:      p.Valor,
		Concepto:   p.Concepto,
	})
	if env.Success {
		r.forget(userID)
	}
	return classify(env.Success, env.StatusCode, env.Message, env.Error)
}

// classify maps an envelope to an outcome. Transport failures and 5xx are
// retried later, any other failure is the server rejecting the entry.
func classify(success bool, status int, message, detail string) (outcome, string) {
	if success {
		return replayed, ""
	}
	reason := message
	if detail != "" {
		reason += ": " + detail
	}
	if status == 0 || status >= 500 {
		return retry, reason
	}
	return conflict, "HTTP " + strconv.Itoa(status) + " " + reason
}

// resolver maps natural keys to remote ids, cached for one flush.
type resolver struct {
	remote Remote
	users  map[string]int64
	txns   map[int64][]*model.Transaction
}

// user returns replayed with the remote id, conflict when the cedula is unknown.
func (r *resolver) user(ctx context.Context, cedula string) (int64, outcome, string) {
	if r.users == nil {
		env := r.remote.GetAllUsers(ctx)
		if !env.Success {
			out, reason := classify(false, env.StatusCode, env.Message, env.Error)
			return 0, out, reason
		}
		r.users = make(map[string]int64, len(env.Data))
		for _, u := range env.Data {
			r.users[u.Cedula] = u.ID
		}
	}
	id, ok := r.users[cedula]
	if !ok {
		return 0, conflict, "user " + cedula + " not found remotely"
	}
	return id, replayed, ""
}

// transaction returns a nil transaction when the referencia is unknown remotely.
func (r *resolver) transaction(ctx context.Context, userID int64, referencia string) (*model.Transaction, outcome, string) {
	if r.txns == nil {
		r.txns = map[int64][]*model.Transaction{}
	}
	list, ok := r.txns[userID]
	if !ok {
		env := r.remote.GetTransactionsByUser(ctx, userID)
		if !env.Success {
			out, reason := classify(false, env.StatusCode, env.Message, env.Error)
			return nil, out, reason
		}
		list = env.Data
		r.txns[userID] = list
	}
	for _, t := range list {
		if t.Referencia == referencia {
			return t, replayed, ""
		}
	}
	return nil, replayed, ""
}

func (r *resolver) forget(userID int64) {
	delete(r.txns, userID)
}
