package prompt

import (
	"fmt"

	"github.com/vietdv277/awsfree/pkg/types"
)

// Scripted replays canned answers, for tests
type Scripted struct {
	Confirms []bool
	Inputs   []string
	Choice   int // index returned by SelectInstance

	Questions []string
}

func (s *Scripted) Confirm(question string, defaultYes bool) (bool, error) {
	s.Questions = append(s.Questions, question)
	if len(s.Confirms) == 0 {
		return defaultYes, nil
	}
	answer := s.Confirms[0]
	s.Confirms = s.Confirms[1:]
	return answer, nil
}

func (s *Scripted) Input(question, def string) (string, error) {
	s.Questions = append(s.Questions, question)
	if len(s.Inputs) == 0 {
		return def, nil
	}
	answer := s.Inputs[0]
	s.Inputs = s.Inputs[1:]
	return answer, nil
}

func (s *Scripted) SelectInstance(title string, instances []types.Instance) (*types.Instance, error) {
	s.Questions = append(s.Questions, title)
	if s.Choice < 0 || s.Choice >= len(instances) {
		return nil, fmt.Errorf("no instance at index %d", s.Choice)
	}
	return &instances[s.Choice], nil
}
