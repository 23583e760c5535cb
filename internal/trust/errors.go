package trust

import (
	"errors"
	"fmt"
)

// Stage names a trust pipeline state. An InvalidPluginError carries the
// stage whose transition failed.
type Stage string

const (
	StageReceived          Stage = "RECEIVED"
	StageExtracted         Stage = "EXTRACTED"
	StageStructureChecked  Stage = "STRUCTURE_CHECKED"
	StageKeyFetched        Stage = "KEY_FETCHED"
	StageSignatureVerified Stage = "SIGNATURE_VERIFIED"
	StageChecksumVerified  Stage = "CHECKSUM_VERIFIED"
	StageNameChecked       Stage = "NAME_CHECKED"
	StageRuntimeChecked    Stage = "RUNTIME_CHECKED"
	StageInstalled         Stage = "INSTALLED"
)

// Rejection reasons. Match with errors.Is against an InvalidPluginError.
var (
	ErrCorruptPackage      = errors.New("corrupt package")
	ErrMissingArtifact     = errors.New("missing artifact")
	ErrUnexpectedArtifact  = errors.New("unexpected artifact")
	ErrKeyRetrieval        = errors.New("key retrieval failed")
	ErrUntrustedPackage    = errors.New("untrusted package")
	ErrInvalidProperties   = errors.New("invalid properties")
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrInvalidName         = errors.New("invalid plugin name")
	ErrNameCollision       = errors.New("name collision")
	ErrRuntimeIncompatible = errors.New("runtime incompatible")
)

// InvalidPluginError rejects an untrusted plugin package.
type InvalidPluginError struct {
	Stage  Stage
	Reason error
	Cause  error
}

func (e *InvalidPluginError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("invalid plugin: %v", e.Reason)
	}
	return fmt.Sprintf("invalid plugin: %v: %v", e.Reason, e.Cause)
}

func (e *InvalidPluginError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Cause}
}

func reject(stage Stage, reason, cause error) error {
	return &InvalidPluginError{Stage: stage, Reason: reason, Cause: cause}
}
