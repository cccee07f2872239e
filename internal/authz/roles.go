package authz

import (
	"errors"
	"fmt"
	"strings"

	"kediacrm/internal/models"
)

var ErrAuthorization = errors.New("not authorized")

// TaskAction is something a role may do to an existing task.
type TaskAction string

const (
	ActionEdit        TaskAction = "edit"
	ActionDelete      TaskAction = "delete"
	ActionUpdateSteps TaskAction = "updateSteps"
)

type ActionSet map[TaskAction]struct{}

func NewActionSet(actions ...TaskAction) ActionSet {
	s := make(ActionSet, len(actions))
	for _, a := range actions {
		s[a] = struct{}{}
	}
	return s
}

func (s ActionSet) Has(a TaskAction) bool {
	_, ok := s[a]
	return ok
}

// Slice returns the actions in a fixed order, for JSON responses.
func (s ActionSet) Slice() []TaskAction {
	out := make([]TaskAction, 0, len(s))
	for _, a := range []TaskAction{ActionEdit, ActionDelete, ActionUpdateSteps} {
		if s.Has(a) {
			out = append(out, a)
		}
	}
	return out
}

type capabilities struct {
	adminFields bool
	actions     []TaskAction
}

var capabilityTable = map[models.Role]capabilities{
	models.RoleAdmin: {adminFields: true, actions: []TaskAction{ActionEdit, ActionDelete}},
	models.RoleStaff: {adminFields: false, actions: []TaskAction{ActionUpdateSteps}},
}

// ParseRole maps a raw role string onto a known role.
func ParseRole(raw string) (models.Role, error) {
	r := models.Role(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := capabilityTable[r]; !ok {
		return "", fmt.Errorf("role %q: %w", raw, ErrAuthorization)
	}
	return r, nil
}

func lookup(role models.Role) (capabilities, error) {
	c, ok := capabilityTable[role]
	if !ok {
		return capabilities{}, fmt.Errorf("role %q: %w", role, ErrAuthorization)
	}
	return c, nil
}

// CanSeeAdminFields reports whether the role sees the staff/admin rosters.
func CanSeeAdminFields(role models.Role) (bool, error) {
	c, err := lookup(role)
	if err != nil {
		return false, err
	}
	return c.adminFields, nil
}

// AllowedTaskActions returns a fresh set of the actions the role may take on tasks.
func AllowedTaskActions(role models.Role) (ActionSet, error) {
	c, err := lookup(role)
	if err != nil {
		return nil, err
	}
	return NewActionSet(c.actions...), nil
}

// Require fails with ErrAuthorization unless role may perform action.
func Require(role models.Role, action TaskAction) error {
	actions, err := AllowedTaskActions(role)
	if err != nil {
		return err
	}
	if !actions.Has(action) {
		return fmt.Errorf("role %q cannot %s: %w", role, action, ErrAuthorization)
	}
	return nil
}

// CheckTaskPatch decides whether role may apply patch to a task assigned to assignee.
// Admins edit anything. Staff may only record progress on their own tasks.
func CheckTaskPatch(role models.Role, userID string, assignee string, patch models.TaskPatch) error {
	actions, err := AllowedTaskActions(role)
	if err != nil {
		return err
	}
	if actions.Has(ActionEdit) {
		return nil
	}
	if !actions.Has(ActionUpdateSteps) {
		return fmt.Errorf("role %q cannot change tasks: %w", role, ErrAuthorization)
	}
	if assignee != userID {
		return fmt.Errorf("task is assigned to someone else: %w", ErrAuthorization)
	}
	if !patch.OnlySteps() {
		return fmt.Errorf("staff may only update steps taken and last updated: %w", ErrAuthorization)
	}
	return nil
}
