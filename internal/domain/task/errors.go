package task

import "errors"

var (
	ErrNoTaskAvailable  = errors.New("task: no schedulable task available")
	ErrTaskNotRunning   = errors.New("task: task is not in the running state")
	ErrLeaseNotHeld     = errors.New("task: caller does not hold the active lease")
	ErrAlreadyFinished  = errors.New("task: task has already reached a terminal outcome")
)
