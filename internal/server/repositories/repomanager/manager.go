package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/booktag/internal/dbx"
	"github.com/dmitrijs2005/booktag/internal/server/repositories/qrcodes"
	"github.com/dmitrijs2005/booktag/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same constructors inside and outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	QRCodes(db dbx.DBTX) qrcodes.Repository
	Users(db dbx.DBTX) users.Repository
}
