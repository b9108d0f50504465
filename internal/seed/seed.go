package seed

import (
	"context"
	"fmt"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/nimasrn/hacienda/pkg/db"
	"github.com/nimasrn/hacienda/pkg/logger"
)

type Hasher interface {
	Hash(plain string) (string, error)
}

type user struct {
	cedula, password, name, fullName, email, phone string
}

type property struct {
	owner, number, kind, address string
}

type transaction struct {
	owner, referencia string
	estado            model.TransactionStatus
	fecha, valor      string
	concepto          string
}

var users = []user{
	{"32165498", "123456", "Luis Fernando", "Luis Fernando Delgado Arboleda", "luis.delgado@email.com", "+57 300 123 4567"},
	{"12345678", "admin123", "Admin", "Administrador Sistema", "admin@hacienda.gov.co", "+57 300 000 0000"},
	{"87654321", "user123", "María", "María González Pérez", "maria.gonzalez@email.com", "+57 300 111 1111"},
}

var properties = []property{
	{"32165498", "890628", "RESIDENCIAL", "Calle 15 #23-45, Liborina"},
	{"32165498", "890629", "COMERCIAL", "Carrera 8 #12-34, Liborina"},
	{"12345678", "890630", "RESIDENCIAL", "Calle 10 #15-20, Liborina"},
	{"87654321", "890631", "RESIDENCIAL", "Carrera 5 #8-12, Liborina"},
}

var transactions = []transaction{
	{"32165498", "000131717545562O", model.TransactionRejected, "2017-09-06 13:25:24", "COP $73,375.00", "Impuesto Predial"},
	{"32165498", "000131717545563P", model.TransactionRejected, "2017-09-06 11:29:06", "COP $73,375.00", "Impuesto Predial"},
	{"32165498", "000131117479050S", model.TransactionApproved, "2011-08-03 12:26:37", "COP $16,882.00", "Impuesto Predial"},
	{"12345678", "000141217148344Z", model.TransactionApproved, "2012-12-09 14:14:40", "COP $25,000.00", "Industria y Comercio"},
	{"87654321", "000151318256789A", model.TransactionApproved, "2018-05-15 09:30:15", "COP $45,500.00", "Impuesto Predial"},
}

// Run inserts the demo citizens with their properties and tax history. It does
// nothing when the store already has users. Reports whether rows were written.
func Run(ctx context.Context, store *db.DB, hasher Hasher) (bool, error) {
	userRepo := repository.NewUserRepository(store)
	propertyRepo := repository.NewPropertyRepository(store)
	txnRepo := repository.NewTransactionRepository(store)

	n, err := userRepo.Count(ctx, false)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	err = store.WithinTransaction(ctx, func(ctx context.Context) error {
		ids := make(map[string]int64, len(users))
		for _, u := range users {
			hash, err := hasher.Hash(u.password)
			if err != nil {
				return err
			}
			email, phone := u.email, u.phone
			created, err := userRepo.Create(ctx, &model.User{
				Cedula:   u.cedula,
				Password: hash,
				Name:     u.name,
				FullName: u.fullName,
				Email:    &email,
				Phone:    &phone,
				IsActive: true,
			})
			if err != nil {
				return fmt.Errorf("seed user %s: %w", u.cedula, err)
			}
			ids[u.cedula] = created.ID
		}
		for _, p := range properties {
			if _, err := propertyRepo.Create(ctx, &model.Property{
				UserID:         ids[p.owner],
				PropertyNumber: p.number,
				PropertyType:   p.kind,
				Address:        p.address,
				IsActive:       true,
			}); err != nil {
				return fmt.Errorf("seed property %s: %w", p.number, err)
			}
		}
		for _, t := range transactions {
			if _, err := txnRepo.Create(ctx, &model.Transaction{
				UserID:     ids[t.owner],
				Referencia: t.referencia,
				Estado:     t.estado,
				Fecha:      t.fecha,
				Valor:      t.valor,
				Concepto:   t.concepto,
			}); err != nil {
				return fmt.Errorf("seed transaction %s: %w", t.referencia, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	logger.Info("seed data inserted", "users", len(users), "properties", len(properties), "transactions", len(transactions))
	return true, nil
}
