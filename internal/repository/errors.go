package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

var ErrDuplicate = errors.New("duplicate record")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}
