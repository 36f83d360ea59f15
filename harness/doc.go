// Package harness runs replay checks.
//
// A check is a [TestCase] registered with [AddTest]. The [Runner] gives each
// case a private temporary directory, asks it for a capture, opens the
// capture with the replay package and calls Check with an [Env] exposing the
// replay controller. A check fails by returning a [Failure] (see [Failf] and
// [FailImages]) or an error wrapping [ErrFileNotFound]; any other error is
// reported as an error rather than a failure.
//
// Temporary directories of failing cases are kept so the images they wrote
// can be inspected.
package harness
