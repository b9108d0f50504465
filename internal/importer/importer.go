package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/pkg/logger"
)

// DefaultPassword is given to imported users whose record carries none.
const DefaultPassword = "123456"

// Target persists a parsed batch.
type Target interface {
	ImportDataFromJSON(ctx context.Context, batch model.ImportBatch) (model.ImportResult, error)
}

type Importer struct {
	target Target
}

func New(target Target) *Importer {
	return &Importer{target: target}
}

// dataset accepts both the import shape and the /api/export/all document.
type dataset struct {
	model.ImportBatch
	Data *model.Dataset `json:"data"`
}

// ParseJSON decodes a dataset file. Records reference owners by cedula and
// transactions by referencia. An export/all document is accepted as well.
func ParseJSON(r io.Reader) (model.ImportBatch, error) {
	var d dataset
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return model.ImportBatch{}, fmt.Errorf("decode json: %w", err)
	}
	batch := d.ImportBatch
	if d.Data != nil {
		batch = d.Data.ImportBatch()
	}
	for i := range batch.Users {
		if batch.Users[i].Password == "" {
			batch.Users[i].Password = DefaultPassword
		}
	}
	return batch, nil
}

// Import parses r and hands the batch to the target. JSON input ignores kind.
func (i *Importer) Import(ctx context.Context, r io.Reader, isJSON bool, kind Kind) (model.ImportResult, error) {
	var (
		batch model.ImportBatch
		err   error
	)
	if isJSON {
		batch, err = ParseJSON(r)
	} else {
		batch, err = ParseCSV(r, kind)
	}
	if err != nil {
		return model.ImportResult{}, err
	}
	return i.target.ImportDataFromJSON(ctx, batch)
}

// ImportFile picks the parser from the file extension.
func (i *Importer) ImportFile(ctx context.Context, path string, kind Kind) (model.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.ImportResult{}, err
	}
	defer f.Close()

	isJSON := strings.EqualFold(filepath.Ext(path), ".json")
	res, err := i.Import(ctx, f, isJSON, kind)
	if err != nil {
		return model.ImportResult{}, fmt.Errorf("import %s: %w", filepath.Base(path), err)
	}
	logger.Info("file imported", "path", path, "imported", res.Imported())
	return res, nil
}
