// Package server implements the HTTP trigger dispatcher.
//
// A POST to /hooks/<name> runs the named hook with the request's query and
// body parameters exported as JIM_* environment variables. The response is
// sent as soon as the hook is dispatched; its outcome is only visible in the
// run log and console output.
//
// # Responses
//
//   - 200: hook dispatched, empty body
//   - 403: method other than POST, empty body
//   - 404: unparseable name or unknown hook, body "hook not found"
//
// # Parameters
//
// Query parameters are read first and body fields override them. Bodies are
// decoded by Content-Type: application/json (top-level object),
// application/x-www-form-urlencoded and multipart/form-data. Bodies that fail
// to decode contribute no parameters.
package server
