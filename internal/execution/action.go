package execution

import (
	"strings"

	"github.com/google/uuid"
)

func NewActionID() string {
	return "act_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
