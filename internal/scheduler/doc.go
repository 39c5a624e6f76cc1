// Package scheduler replays a list of timed commands against a transport.
//
// A session records its start time once and, for each command in ascending
// timestamp order, sleeps until the command's offset from that start has
// elapsed, sends it, and waits for one bounded response before moving on.
// There is never more than one command in flight. Late commands are sent
// immediately and deadlines are never re-based, so drift only comes from
// the time spent sending and receiving.
//
// A lost connection ends the session. A failed send is either skipped
// automatically (assume-yes) or the operator is asked whether to continue.
package scheduler
