// Package repository holds the MySQL access layer. The sentinel errors below
// let higher layers tell a constraint violation from an infrastructure
// failure without parsing driver messages.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrUsernameExists is returned when an insert hits the unique key on
// users.username. Registration maps it to a conflict.
var ErrUsernameExists = errors.New("username already exists")

// ErrUnknownField is returned for a profile column outside the fixed set.
var ErrUnknownField = errors.New("unknown profile field")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
