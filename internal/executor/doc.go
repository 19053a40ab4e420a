// Package executor runs a single shell command in a directory with a wall-clock
// deadline and reports the outcome as a value.
//
// Key features:
//   - Spawn-per-call: exactly one shell process per Execute
//   - Independent stdout/stderr capture
//   - Permissive UTF-8 decoding (invalid bytes become U+FFFD)
//   - Hard kill at the deadline, no grace period
//
// Timeout handling:
//   - The deadline timer and ctx.Done race cmd.Wait in a select
//   - On expiry the child is sent SIGKILL; on unix the child leads its own process
//     group and the whole group is killed
//   - WaitDelay bounds how long Wait blocks on pipes inherited by orphans
//
// Outcomes:
//   - Completed: the process exited on its own (any exit status)
//   - TimedOut: the deadline expired and the process was killed
//   - SpawnFailed: the shell could not be started
//   - Failed: any other fault while waiting for the process
//
// Execute never returns an error and never panics; failures are reported in
// Result and are never retried.
package executor
