package dataaccess

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nimasrn/hacienda/internal/connectivity"
	"github.com/nimasrn/hacienda/internal/localstore"
	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/outbox"
	"github.com/nimasrn/hacienda/pkg/logger"
)

type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// Remote is the api client as seen by the data-access layer.
type Remote interface {
	outbox.Remote
	Login(ctx context.Context, cedula, password string) model.Envelope[*model.User]
	CreateUser(ctx context.Context, req model.UserCreateRequest) model.Envelope[model.CreatedID]
	GetPaymentsByUser(ctx context.Context, userID int64) model.Envelope[[]*model.Payment]
	GetStats(ctx context.Context) model.Envelope[*model.Stats]
	ExportAllData(ctx context.Context) model.Envelope[model.Dataset]
}

type Connectivity interface {
	Online() bool
	Subscribe(l connectivity.Listener)
}

// Session identifies the signed-in citizen on both sides. RemoteID is zero
// until the server has been reached.
type Session struct {
	Cedula   string      `json:"cedula"`
	LocalID  int64       `json:"localId"`
	RemoteID int64       `json:"remoteId"`
	User     *model.User `json:"user"`
	Mode     Mode        `json:"mode"`
}

type Service struct {
	local  *localstore.Store
	remote Remote
	outbox *outbox.Outbox
	conn   Connectivity

	flushTimeout time.Duration
}

// New wires the layer and flushes the outbox every time conn comes back online.
func New(local *localstore.Store, remote Remote, ob *outbox.Outbox, conn Connectivity) *Service {
	s := &Service{local: local, remote: remote, outbox: ob, conn: conn, flushTimeout: 30 * time.Second}
	conn.Subscribe(func(old, next connectivity.State) {
		if old == connectivity.Offline && next == connectivity.Online {
			ctx, cancel := context.WithTimeout(context.Background(), s.flushTimeout)
			defer cancel()
			s.flush(ctx)
		}
	})
	return s
}

func (s *Service) Mode() Mode {
	if s.conn.Online() {
		return ModeOnline
	}
	return ModeOffline
}

// Login asks the server first and falls back to the local mirror when it
// cannot be reached. A server rejection is final.
func (s *Service) Login(ctx context.Context, cedula, password string) (*Session, error) {
	cedula = strings.TrimSpace(cedula)
	if s.conn.Online() {
		env := s.remote.Login(ctx, cedula, password)
		switch {
		case env.Success:
			return s.onlineSession(ctx, env.Data, password)
		case env.StatusCode == 401:
			return nil, ErrInvalidCredentials
		case !env.Transport() && env.StatusCode < 500:
			return nil, remoteError(env)
		}
		logger.Warn("remote login failed, using local store", "cedula", cedula, "error", env.Error)
	}

	u, err := s.local.AuthenticateUser(ctx, cedula, password)
	if err != nil {
		return nil, err
	}
	return &Session{Cedula: u.Cedula, LocalID: u.ID, User: u, Mode: ModeOffline}, nil
}

// onlineSession mirrors the remote user locally and caches the password so the
// next login works offline.
func (s *Service) onlineSession(ctx context.Context, remote *model.User, password string) (*Session, error) {
	sess := &Session{Cedula: remote.Cedula, RemoteID: remote.ID, User: remote, Mode: ModeOnline}

	local, err := s.local.GetUserByCedula(ctx, remote.Cedula)
	if errors.Is(err, localstore.ErrUserNotFound) {
		rec := model.UserRecord{
			Cedula:   remote.Cedula,
			Password: password,
			Name:     remote.Name,
			FullName: remote.FullName,
			IsActive: remote.IsActive,
		}
		if remote.Email != nil {
			rec.Email = *remote.Email
		}
		if remote.Phone != nil {
			rec.Phone = *remote.Phone
		}
		if _, err := s.local.ImportDataFromJSON(ctx, model.ImportBatch{Users: []model.UserRecord{rec}}); err != nil {
			return nil, err
		}
		local, err = s.local.GetUserByCedula(ctx, remote.Cedula)
		if err != nil {
			logger.Warn("remote user not mirrored locally", "cedula", remote.Cedula, "error", err)
			return sess, nil
		}
		sess.LocalID = local.ID
		return sess, nil
	}
	if err != nil {
		return nil, err
	}
	sess.LocalID = local.ID
	if err := s.local.CacheCredentials(ctx, local.ID, password); err != nil {
		return nil, err
	}
	return sess, nil
}

// remoteID resolves the server id of a session opened offline.
func (s *Service) remoteID(ctx context.Context, sess *Session) int64 {
	if sess.RemoteID != 0 {
		return sess.RemoteID
	}
	env := s.remote.GetAllUsers(ctx)
	if !env.Success {
		return 0
	}
	for _, u := range env.Data {
		if u.Cedula == sess.Cedula {
			sess.RemoteID = u.ID
		}
	}
	return sess.RemoteID
}

// useRemote reports whether a read should go to the server.
func (s *Service) useRemote(ctx context.Context, sess *Session) bool {
	return s.conn.Online() && s.remoteID(ctx, sess) != 0
}

func (s *Service) Properties(ctx context.Context, sess *Session) ([]*model.Property, error) {
	if s.useRemote(ctx, sess) {
		env := s.remote.GetPropertiesByUser(ctx, sess.RemoteID)
		if env.Success {
			return env.Data, nil
		}
		if !env.Transport() {
			return nil, remoteError(env)
		}
	}
	return s.local.GetUserProperties(ctx, sess.LocalID)
}

func (s *Service) Transactions(ctx context.Context, sess *Session) ([]*model.Transaction, error) {
	if s.useRemote(ctx, sess) {
		env := s.remote.GetTransactionsByUser(ctx, sess.RemoteID)
		if env.Success {
			return env.Data, nil
		}
		if !env.Transport() {
			return nil, remoteError(env)
		}
	}
	return s.local.GetUserTransactions(ctx, sess.LocalID)
}

func (s *Service) PendingTransactions(ctx context.Context, sess *Session) ([]*model.Transaction, error) {
	if s.useRemote(ctx, sess) {
		env := s.remote.GetTransactionsByUser(ctx, sess.RemoteID)
		if env.Success {
			pending := make([]*model.Transaction, 0, len(env.Data))
			for _, t := range env.Data {
				if !t.IsApproved() {
					pending = append(pending, t)
				}
			}
			return pending, nil
		}
		if !env.Transport() {
			return nil, remoteError(env)
		}
	}
	return s.local.GetPendingTransactions(ctx, sess.LocalID)
}

func (s *Service) Payments(ctx context.Context, sess *Session) ([]*model.Payment, error) {
	if s.useRemote(ctx, sess) {
		env := s.remote.GetPaymentsByUser(ctx, sess.RemoteID)
		if env.Success {
			return env.Data, nil
		}
		if !env.Transport() {
			return nil, remoteError(env)
		}
	}
	return s.local.GetUserPayments(ctx, sess.LocalID)
}

// RegisterPayment pays a transaction of the session user. The local payment
// and its outbox entry commit together. When online the outbox is flushed
// right away.
func (s *Service) RegisterPayment(ctx context.Context, sess *Session, referencia string, in model.PaymentInput) (*model.Payment, error) {
	if !in.Amount.IsPositive() {
		return nil, invalid([]string{"amount"}, nil)
	}
	txn, err := s.local.GetTransactionByReference(ctx, sess.LocalID, referencia)
	if errors.Is(err, localstore.ErrTransactionNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var p *model.Payment
	err = s.local.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.local.RegisterPayment(ctx, sess.LocalID, txn.ID, in)
		if err != nil {
			return err
		}
		_, err = s.outbox.Record(ctx, outbox.KindPayment, outbox.PaymentPayload{
			UserCedula:           sess.Cedula,
			TransactionReference: txn.Referencia,
			PaymentMethod:        p.PaymentMethod,
			PaymentDate:          p.PaymentDate,
			Amount:               p.Amount,
			AdminNotes:           p.AdminNotes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.flushIfOnline(ctx)
	return p, nil
}

func (s *Service) CreateProperty(ctx context.Context, sess *Session, req model.PropertyCreateRequest) (*model.Property, error) {
	req.UserID = sess.LocalID
	if missing, bad, err := model.FieldErrors(req); err != nil {
		return nil, err
	} else if model.HasErrors(missing, bad) {
		return nil, invalid(missing, bad)
	}

	var created *model.Property
	err := s.local.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.local.CreateProperty(ctx, &model.Property{
			UserID:         sess.LocalID,
			PropertyNumber: req.PropertyNumber,
			PropertyType:   req.PropertyType,
			Address:        req.Address,
		})
		if err != nil {
			return err
		}
		_, err = s.outbox.Record(ctx, outbox.KindProperty, outbox.PropertyPayload{
			UserCedula:     sess.Cedula,
			PropertyNumber: req.PropertyNumber,
			PropertyType:   req.PropertyType,
			Address:        req.Address,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.flushIfOnline(ctx)
	return created, nil
}

func (s *Service) CreateTransaction(ctx context.Context, sess *Session, req model.TransactionCreateRequest) (*model.Transaction, error) {
	req.UserID = sess.LocalID
	if missing, bad, err := model.FieldErrors(req); err != nil {
		return nil, err
	} else if model.HasErrors(missing, bad) {
		return nil, invalid(missing, bad)
	}
	estado, ok := model.ParseTransactionStatus(string(req.Estado))
	if !ok {
		return nil, invalid(nil, []string{"estado"})
	}

	var created *model.Transaction
	err := s.local.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.local.CreateTransaction(ctx, &model.Transaction{
			UserID:     sess.LocalID,
			Referencia: req.Referencia,
			Estado:     estado,
			Fecha:      req.Fecha,
			Valor:      req.Valor,
			Concepto:   req.Concepto,
		})
		if err != nil {
			return err
		}
		_, err = s.outbox.Record(ctx, outbox.KindTransaction, outbox.TransactionPayload{
			UserCedula: sess.Cedula,
			Referencia: req.Referencia,
			Estado:     estado,
			Fecha:      req.Fecha,
			Valor:      req.Valor,
			Concepto:   req.Concepto,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	s.flushIfOnline(ctx)
	return created, nil
}

// CreateUser registers a citizen on the server and mirrors it locally.
func (s *Service) CreateUser(ctx context.Context, req model.UserCreateRequest) (int64, error) {
	if !s.conn.Online() {
		return 0, ErrOffline
	}
	env := s.remote.CreateUser(ctx, req)
	if !env.Success {
		return 0, remoteError(env)
	}
	if _, err := s.local.CreateUser(ctx, req); err != nil && !errors.Is(err, localstore.ErrDuplicateCedula) {
		logger.Warn("created user not mirrored locally", "cedula", req.Cedula, "error", err)
	}
	return env.Data.ID, nil
}

func (s *Service) Stats(ctx context.Context) (*model.Stats, error) {
	if !s.conn.Online() {
		return nil, ErrOffline
	}
	env := s.remote.GetStats(ctx)
	if !env.Success {
		return nil, remoteError(env)
	}
	return env.Data, nil
}

func (s *Service) ExportAll(ctx context.Context) (model.Dataset, error) {
	if !s.conn.Online() {
		return model.Dataset{}, ErrOffline
	}
	env := s.remote.ExportAllData(ctx)
	if !env.Success {
		return model.Dataset{}, remoteError(env)
	}
	return env.Data, nil
}

func (s *Service) flushIfOnline(ctx context.Context) {
	if s.conn.Online() {
		s.flush(ctx)
	}
}

func (s *Service) flush(ctx context.Context) {
	if _, err := s.outbox.Flush(ctx); err != nil {
		logger.Warn("outbox flush incomplete", "error", err)
	}
}
