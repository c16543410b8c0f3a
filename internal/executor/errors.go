package executor

import "errors"

// ErrExecutionFailed indicates a step's statements failed to execute.
var ErrExecutionFailed = errors.New("step execution failed")

// ErrLedgerWrite indicates a step's outcome could not be recorded.
var ErrLedgerWrite = errors.New("recording step outcome")
