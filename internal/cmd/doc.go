// Package cmd runs shell commands for hooks and reports their outcome.
//
// [Start] launches `bash -c <command>` in its own process group and returns
// the [Process] immediately so callers can keep a handle to it while output
// flows. Stdout and stderr are mirrored line by line to the logger's output
// channel, accumulated for the final [Result], and optionally copied into an
// extra sink such as a run log.
//
// # Usage
//
//	p, err := cmd.Start(ctx, "make deploy", cmd.Options{Dir: dir, Output: runLog})
//	if err != nil {
//	    return err
//	}
//	res := p.Wait()
//	if res.Err != nil {
//	    // *cmd.ExitError for a non-zero exit, with cleaned stderr as message
//	}
//
// A non-zero exit code is reported through [Result.Err] as an [*ExitError]
// whose message is the captured stderr with "Command failed: " and "error: "
// prefixes removed, so it reads cleanly in logs.
package cmd
