package fetchers

import (
	"errors"
	"fmt"

	"atmodensity/internal/models"
)

// Stage names the step of a fetch that failed
type Stage string

const (
	StageDial     Stage = "dial"
	StageLogin    Stage = "login"
	StageCreate   Stage = "create"
	StageTransfer Stage = "transfer"
	StageStatus   Stage = "status"
	StageWrite    Stage = "write"
)

// ErrIncompleteTransfer is returned when the transfer status line is not a 226
var ErrIncompleteTransfer = errors.New("transfer did not complete")

// TransferError describes a failed index file retrieval
type TransferError struct {
	Stage Stage
	Spec  models.RemoteFileSpec
	Err   error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("fetch %s from %s failed at %s: %v", e.Spec.RemotePath(), e.Spec.Host, e.Stage, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}
