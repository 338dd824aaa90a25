package domain

import "errors"

// Graph construction errors. These abort a load.
var (
	ErrDuplicateStep       = errors.New("duplicate step")
	ErrDuplicateTransition = errors.New("duplicate transition")
	ErrUnknownStep         = errors.New("unknown step")
	ErrMissingStep         = errors.New("missing structural step")
)

// Definition errors, also raised at load time.
var (
	ErrUnrecognizedUIDirective         = errors.New("unrecognized UI directive")
	ErrUnrecognizedSideEffectComponent = errors.New("unrecognized side-effect component")
	ErrUnrecognizedSideEffectFunction  = errors.New("unrecognized side-effect function")
)

// ErrExtensionEnable is returned when an extension could not be put into tutorial mode.
var ErrExtensionEnable = errors.New("extension enable failed")

// ErrExtensionDisable is returned when an extension could not leave tutorial mode.
var ErrExtensionDisable = errors.New("extension disable failed")

// ErrParseMismatch marks a watched line that does not describe an interaction.
// It is the expected outcome for most unrelated traffic.
var ErrParseMismatch = errors.New("line does not match")

// ErrRunAborted wraps the failure that stopped a tutorial run.
var ErrRunAborted = errors.New("tutorial run aborted")

// ErrPathDidNotTerminate is reported when replaying an interaction path does not reach the end step.
var ErrPathDidNotTerminate = errors.New("path did not reach end")
