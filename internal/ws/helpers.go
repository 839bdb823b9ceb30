package ws

import (
	"strings"

	"github.com/google/uuid"
)

func newConnID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
