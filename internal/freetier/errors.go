package freetier

import (
	"fmt"
	"strings"

	"github.com/vietdv277/awsfree/pkg/types"
)

// FreeTierLimitError is returned by Create when an active instance of the
// managed type already exists in the region
type FreeTierLimitError struct {
	Region    string
	Instances []types.Instance
}

func (e *FreeTierLimitError) Error() string {
	ids := make([]string, 0, len(e.Instances))
	for _, inst := range e.Instances {
		ids = append(ids, inst.ID)
	}
	return fmt.Sprintf("free tier limit reached: %s already running in %s", strings.Join(ids, ", "), e.Region)
}

// DeleteCommands returns the commands that would free the slot
func (e *FreeTierLimitError) DeleteCommands() []string {
	cmds := make([]string, 0, len(e.Instances))
	for _, inst := range e.Instances {
		cmds = append(cmds, fmt.Sprintf("awsfree delete %s %s", inst.ID, e.Region))
	}
	return cmds
}
