package dal

import "github.com/google/uuid"

// genID generates a unique identifier for new records
func genID() string {
	return uuid.NewString()
}
