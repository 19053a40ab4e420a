// Package dispatch maps decoded JSON-RPC requests onto the MCP methods the
// gateway serves and builds their responses.
//
// Methods form a closed set (see Method). Anything outside it is answered
// with -32601. notifications/initialized is never answered.
//
// tools/call failures are split in two layers:
//   - Tool-level: bad arguments, unknown tool, or a working directory that
//     does not exist, is not a directory, or is outside the allow-list. The
//     result carries isError and the runner is never invoked.
//   - Execution-level: timeout, spawn failure or any runtime fault. The
//     result is a normal tool result whose payload has success=false.
//
// A Dispatcher is not safe for concurrent use. Callers serialize requests.
package dispatch
