package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/booktag/internal/dbx"
	"github.com/dmitrijs2005/booktag/internal/server/repositories/memory"
	"github.com/dmitrijs2005/booktag/internal/server/repositories/qrcodes"
	"github.com/dmitrijs2005/booktag/internal/server/repositories/users"
)

// MemoryRepositoryManager serves every DBTX from one shared in-memory store.
type MemoryRepositoryManager struct {
	qrcodes *memory.QRCodeRepository
	users   *memory.UserRepository
}

func NewMemoryRepositoryManager(s *memory.Store) *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		qrcodes: memory.NewQRCodeRepository(s),
		users:   memory.NewUserRepository(s),
	}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) QRCodes(dbx.DBTX) qrcodes.Repository { return m.qrcodes }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }
