package importer

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names the entity a CSV file carries.
type Kind string

const (
	KindUsers        Kind = "users"
	KindProperties   Kind = "properties"
	KindTransactions Kind = "transactions"
	KindPayments     Kind = "payments"
)

const directivePrefix = "#kind="

var ErrUnknownKind = errors.New("unknown import kind")

var kinds = []Kind{KindUsers, KindProperties, KindTransactions, KindPayments}

func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

var templates = map[Kind]string{
	KindUsers: "cedula,password,name,fullName,email,phone,isActive\n" +
		"12345678,123456,Juan,Juan Pérez García,juan@email.com,+57 300 123 4567,true\n" +
		"87654321,123456,María,María González López,maria@email.com,+57 300 987 6543,true\n",
	KindProperties: "userCedula,propertyNumber,propertyType,address,isActive\n" +
		"12345678,890001,RESIDENCIAL,Calle 1 #2-3,true\n" +
		"87654321,890002,COMERCIAL,Carrera 4 #5-6,true\n",
	KindTransactions: "userCedula,referencia,estado,fecha,valor,concepto,isApproved\n" +
		"12345678,REF001,Pendiente,2025-01-15,COP $50000,Impuesto Predial,false\n" +
		"87654321,REF002,Aprobada,2025-01-10,COP $75000,Industria y Comercio,true\n",
	KindPayments: "userCedula,transactionReference,paymentMethod,paymentDate,amount,status,adminNotes\n" +
		"12345678,REF001,Efectivo,2025-01-16,50000,completed,Pago en ventanilla\n" +
		"87654321,REF002,Transferencia,2025-01-11,75000,completed,Pago en línea\n",
}

// Template returns a sample CSV for kind, starting with its kind directive.
func Template(kind Kind) (string, error) {
	t, ok := templates[kind]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return directivePrefix + string(kind) + "\n" + t, nil
}
