// Package hook manages named shell scripts stored under a hooks directory.
//
// A hook lives at <hooks>/<name>/script.sh and keeps one log file per
// invocation under <hooks>/<name>/runs. The script file is the only source of
// truth for whether a hook exists:
//
//	absent --Create--> present --Run*--> present --Destroy--> absent
//
// # Invocation
//
// [Hook.Run] executes the script with `bash`, prefixed by environment
// assignments built from the caller's parameters plus the implicit "root"
// (the registry's working path):
//
//	JIM_BRANCH=main+release JIM_ROOT=/srv/app bash /srv/app/hooks/deploy/script.sh
//
// Keys are uppercased with non-word characters replaced by "_". Whitespace runs
// in values become "+"; a literal "+" is not escaped, so the two are
// indistinguishable to the script. Values containing shell metacharacters are
// single-quoted.
//
// A script exiting non-zero is not a run error: the failure is logged to the
// console and the run log, and [Run.Wait] still returns nil. Use
// [Run.ScriptErr] to inspect the exit status.
//
// # Concurrency
//
// Runs of the same hook are not serialized unless [WithSerializedRuns] is
// set, in which case each run holds an flock on <hooks>/<name>/.lock for its
// whole lifetime. Every started run is tracked in an [ActiveRuns] set shared
// by all hooks of a registry so shutdown can kill them. Create and Destroy
// take no locks; racing them on the same name has undefined results.
package hook
