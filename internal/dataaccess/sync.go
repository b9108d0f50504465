package dataaccess

import (
	"context"

	"github.com/nimasrn/hacienda/internal/model"
	"github.com/nimasrn/hacienda/internal/outbox"
	"github.com/nimasrn/hacienda/pkg/logger"
	"github.com/nimasrn/hacienda/pkg/prom"
)

type SyncResult struct {
	Flush    outbox.FlushResult `json:"flush"`
	Import   model.ImportResult `json:"import"`
	Approved int                `json:"approved"`
}

// Sync pushes the outbox and then pulls the server dataset. A flush that stops
// on an unreachable server skips the pull.
func (s *Service) Sync(ctx context.Context) (SyncResult, error) {
	var res SyncResult
	if !s.conn.Online() {
		return res, ErrOffline
	}
	prom.IncSyncRuns()
	flushed, err := s.outbox.Flush(ctx)
	res.Flush = flushed
	if err != nil {
		return res, err
	}

	imported, approved, err := s.Pull(ctx)
	res.Import = imported
	res.Approved = approved
	if err != nil {
		return res, err
	}
	logger.Info("sync finished",
		"replayed", flushed.Replayed, "conflicts", flushed.Conflicts,
		"imported", imported.Imported(), "approved", approved)
	return res, nil
}

// Pull inserts what the server has and the mirror lacks, then approves local
// transactions the server shows as approved. Nothing local is overwritten.
func (s *Service) Pull(ctx context.Context) (model.ImportResult, int, error) {
	env := s.remote.ExportAllData(ctx)
	if !env.Success {
		return model.ImportResult{}, 0, remoteError(env)
	}
	batch := env.Data.ImportBatch()
	imported, err := s.local.ImportDataFromJSON(ctx, batch)
	if err != nil {
		return model.ImportResult{}, 0, err
	}
	approved, err := s.local.MergeApprovals(ctx, batch.Transactions)
	if err != nil {
		return imported, 0, err
	}
	return imported, approved, nil
}

type Status struct {
	Mode      Mode `json:"mode"`
	Pending   int  `json:"pending"`
	Conflicts int  `json:"conflicts"`
}

func (s *Service) Status(ctx context.Context) (Status, error) {
	pending, conflicts, err := s.outbox.Backlog(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{Mode: s.Mode(), Pending: int(pending), Conflicts: int(conflicts)}, nil
}

func (s *Service) Conflicts(ctx context.Context) ([]*outbox.Entry, error) {
	return s.outbox.Conflicts(ctx)
}
