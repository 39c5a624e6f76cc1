package cmd

const DESCRIPTION = `
pomadbg connects to a PoMA command interpreter over TCP and plays a
timed script of commands against it, printing every command sent and
every response received.
`

const (
	RunDescription = `The run command loads a command definition file (.tpoma),
connects to the PoMA server and sends each command when its
timestamp is due, waiting for one response after every send.

Command definition file format:
        timestamp|command

Where timestamp is the time in seconds since the start of the
session, and command is the PoMA command to send. Lines that
begin with # are comments and are ignored.

Example:
        # This is a comment.
        0.0|*
        1.5|?g_var
        3.0|=g_var 100

Usage:
        pomadbg run -i 192.168.1.10 -p 3333 -f session.tpoma
					OR
        pomadbg -f session.tpoma -y

`
	ValidateDescription = `The validate command parses a command definition file,
reports the lines it had to skip and prints the resulting
command table. No connection is made.

Example:
        pomadbg validate session.tpoma

`
	TranscriptDescription = `The transcript command lists the sessions recorded with
"pomadbg run --record <db>", or dumps every payload of one
session when --session is given.

Example:
        pomadbg transcript --db sessions.db
        pomadbg transcript --db sessions.db --session <id>

`
)
