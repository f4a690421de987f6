// Package prompt provides the interactive prompts used by the CLI when it
// runs on a terminal.
//
//   - [Confirm]: yes/no question, defaults to no
//   - [TextInput]: single line of input with optional validation
//   - [Select]: pick one entry from a filterable list
//
// Prompts render on stderr so stdout stays clean for piping.
package prompt
