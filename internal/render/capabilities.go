package render

import "github.com/zoobzio/relql/internal/types"

// RowLockingLevel indicates the level of row-level locking support.
type RowLockingLevel int

const (
	RowLockingNone  RowLockingLevel = iota // No row locking
	RowLockingBasic                        // FOR UPDATE, FOR SHARE
	RowLockingFull                         // + FOR NO KEY UPDATE, FOR KEY SHARE
)

// LateralStyle indicates how a dialect correlates a keys table with a subquery.
type LateralStyle int

const (
	LateralNone  LateralStyle = iota // No correlated derived tables
	LateralJoin                      // JOIN LATERAL (...) ON TRUE
	LateralApply                     // CROSS APPLY (...)
)

// Capabilities describes the SQL features supported by a dialect.
type Capabilities struct {
	Lateral    LateralStyle    // lateral batch fetching
	RowLocking RowLockingLevel // FOR UPDATE/SHARE support
}

// SupportsLock reports whether mode can be rendered at the given level.
func (c Capabilities) SupportsLock(mode types.LockMode) bool {
	switch mode {
	case types.LockNone:
		return true
	case types.LockUpdate, types.LockShare:
		return c.RowLocking >= RowLockingBasic
	case types.LockNoKeyUpdate, types.LockKeyShare:
		return c.RowLocking >= RowLockingFull
	default:
		return false
	}
}
