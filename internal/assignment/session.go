package assignment

// Stage names the phases of one bulk-assignment run.
type Stage string

const (
	StageIdle                Stage = "idle"
	StageSelecting           Stage = "selecting"
	StageConfirming          Stage = "confirming"
	StageSubmitting          Stage = "submitting"
	StageCompleted           Stage = "completed"
	StageCompletedWithErrors Stage = "completed_with_errors"
)

// Step is a named progress marker shown to the operator.
type Step struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// Session consolidates the state of one bulk run: the three selected sets,
// the current stage, and the result once submitted. It is a value object
// passed explicitly between stages.
type Session struct {
	ID             string        `json:"id"`
	Stage          Stage         `json:"stage"`
	SelectedUsers  []int64       `json:"selectedUsers"`
	SelectedRoles  []int64       `json:"selectedRoles"`
	SelectedStores []int64       `json:"selectedStores"`
	Result         *SubmitResult `json:"result,omitempty"`
}

// NewSession starts an idle run.
func NewSession(id string) Session {
	return Session{ID: id, Stage: StageIdle}
}

// Begin moves an idle run into the selecting stage.
func (s Session) Begin() (Session, error) {
	if s.Stage != StageIdle {
		return s, ErrInvalidTransition
	}
	s.Stage = StageSelecting
	return s, nil
}

// ToggleUser adds or removes one user from the selection.
func (s Session) ToggleUser(id int64) (Session, error) {
	return s.toggle(&s.SelectedUsers, id)
}

// ToggleRole adds or removes one role from the selection.
func (s Session) ToggleRole(id int64) (Session, error) {
	return s.toggle(&s.SelectedRoles, id)
}

// ToggleStore adds or removes one store from the selection.
func (s Session) ToggleStore(id int64) (Session, error) {
	return s.toggle(&s.SelectedStores, id)
}

func (s Session) toggle(set *[]int64, id int64) (Session, error) {
	if s.Stage != StageSelecting {
		return s, ErrInvalidTransition
	}
	for i, existing := range *set {
		if existing == id {
			*set = append(append([]int64{}, (*set)[:i]...), (*set)[i+1:]...)
			return s, nil
		}
	}
	*set = append(append([]int64{}, *set...), id)
	return s, nil
}

// sessionFromSelection replays a full selection through the stage machine and
// lands on the confirming stage. Toggle semantics apply: an ID repeated in a
// selection set deselects itself, so duplicates cancel in pairs.
func sessionFromSelection(runID string, users, roles, stores []int64) (Session, error) {
	sess, err := NewSession(runID).Begin()
	if err != nil {
		return sess, err
	}
	for _, id := range users {
		if sess, err = sess.ToggleUser(id); err != nil {
			return sess, err
		}
	}
	for _, id := range roles {
		if sess, err = sess.ToggleRole(id); err != nil {
			return sess, err
		}
	}
	for _, id := range stores {
		if sess, err = sess.ToggleStore(id); err != nil {
			return sess, err
		}
	}
	return sess.Confirm()
}

// CanAssign reports whether the selection is complete enough to confirm.
func (s Session) CanAssign() bool {
	return len(s.SelectedUsers) > 0 && len(s.SelectedRoles) > 0 && len(s.SelectedStores) > 0
}

// Confirm moves a complete selection into the confirming stage.
func (s Session) Confirm() (Session, error) {
	if s.Stage != StageSelecting {
		return s, ErrInvalidTransition
	}
	if !s.CanAssign() {
		return s, ErrEmptySelection
	}
	s.Stage = StageConfirming
	return s, nil
}

// StartSubmit enters the submitting stage. Only an explicit confirmation may
// trigger submission.
func (s Session) StartSubmit() (Session, error) {
	if s.Stage != StageConfirming {
		return s, ErrInvalidTransition
	}
	s.Stage = StageSubmitting
	return s, nil
}

// Complete records the outcome and lands on the terminal stage matching it.
func (s Session) Complete(result SubmitResult) (Session, error) {
	if s.Stage != StageSubmitting {
		return s, ErrInvalidTransition
	}
	s.Result = &result
	if len(result.Failed) > 0 {
		s.Stage = StageCompletedWithErrors
	} else {
		s.Stage = StageCompleted
	}
	return s, nil
}

// TupleCount is the number of operations the current selection expands to.
func (s Session) TupleCount() int {
	return len(s.SelectedUsers) * len(s.SelectedRoles) * len(s.SelectedStores)
}

// Steps renders the progress markers for the current stage.
func (s Session) Steps() []Step {
	done := func(st Stage) bool { return s.stageIndex() > stageOrder[st] }
	return []Step{
		{ID: "select_users", Title: "Select users", Completed: len(s.SelectedUsers) > 0 || done(StageSelecting)},
		{ID: "select_roles", Title: "Select roles", Completed: len(s.SelectedRoles) > 0 || done(StageSelecting)},
		{ID: "select_stores", Title: "Select stores", Completed: len(s.SelectedStores) > 0 || done(StageSelecting)},
		{ID: "confirm", Title: "Confirm", Completed: done(StageConfirming)},
		{ID: "submit", Title: "Submit", Completed: done(StageSubmitting)},
	}
}

// Progress returns completed and total step counts.
func (s Session) Progress() (completed, total int) {
	steps := s.Steps()
	for _, step := range steps {
		if step.Completed {
			completed++
		}
	}
	return completed, len(steps)
}

var stageOrder = map[Stage]int{
	StageIdle:                0,
	StageSelecting:           1,
	StageConfirming:          2,
	StageSubmitting:          3,
	StageCompleted:           4,
	StageCompletedWithErrors: 4,
}

func (s Session) stageIndex() int {
	return stageOrder[s.Stage]
}
