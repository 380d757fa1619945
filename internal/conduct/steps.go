package conduct

import (
	"fmt"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/domain"
)

// Step 检查流程步骤
type Step int

const (
	StepStart Step = iota
	StepAddRooms
	StepConduct
	StepReview
)

var stepNames = [...]string{"Start", "Add Rooms", "Conduct", "Review & Complete"}

func (s Step) String() string {
	if s < StepStart || s > StepReview {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

// Guard messages shown when the inspector tries to move on too early.
const (
	MsgStartFirst     = "Start the inspection before continuing"
	MsgAddRoom        = "Add at least one room before continuing"
	MsgGenerateChecks = "Generate a checklist for at least one room before continuing"
)

// StepController tracks the active step and which steps have been passed.
// It is not safe for concurrent use; Session serializes access.
type StepController struct {
	active    Step
	completed map[Step]bool
}

func NewStepController() *StepController {
	return &StepController{active: StepStart, completed: make(map[Step]bool)}
}

func (c *StepController) Active() Step { return c.active }

func (c *StepController) IsCompleted(s Step) bool { return c.completed[s] }

// Completed lists passed steps in order.
func (c *StepController) Completed() []Step {
	var out []Step
	for s := StepStart; s <= StepReview; s++ {
		if c.completed[s] {
			out = append(out, s)
		}
	}
	return out
}

// GoNext leaves the active step if its guard passes against detail.
func (c *StepController) GoNext(detail *domain.InspectionDetail) error {
	if c.active == StepReview {
		return nil
	}
	if err := guard(c.active, detail); err != nil {
		return err
	}
	c.completed[c.active] = true
	c.active++
	return nil
}

func (c *StepController) GoBack() {
	if c.active > StepStart {
		c.active--
	}
}

// JumpTo moves to a completed step or stays on the active one.
func (c *StepController) JumpTo(s Step) error {
	if s == c.active || c.completed[s] {
		c.active = s
		return nil
	}
	return validationError("jump", fmt.Sprintf("Complete the previous steps before opening %s", s))
}

func guard(s Step, d *domain.InspectionDetail) error {
	switch s {
	case StepStart:
		if d == nil || d.Inspection == nil || d.Inspection.Status == domain.StatusScheduled {
			return validationError("next", MsgStartFirst)
		}
	case StepAddRooms:
		if d == nil || len(d.Rooms) == 0 {
			return validationError("next", MsgAddRoom)
		}
	case StepConduct:
		if d == nil {
			return validationError("next", MsgGenerateChecks)
		}
		for i := range d.Rooms {
			if d.Rooms[i].HasChecklist() {
				return nil
			}
		}
		return validationError("next", MsgGenerateChecks)
	}
	return nil
}
