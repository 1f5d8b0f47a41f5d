package localstore

import (
	"time"

	"github.com/google/uuid"
)

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
