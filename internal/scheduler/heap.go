package scheduler

import "container/heap"

type queuedCommand struct {
	cmd TimedCommand
	seq int
}

// commandHeap implements container/heap.Interface ordered by Timestamp,
// then by original position so equal timestamps keep their input order.
type commandHeap []queuedCommand

func (h commandHeap) Len() int { return len(h) }
func (h commandHeap) Less(i, j int) bool {
	if h[i].cmd.Timestamp != h[j].cmd.Timestamp {
		return h[i].cmd.Timestamp < h[j].cmd.Timestamp
	}
	return h[i].seq < h[j].seq
}
func (h commandHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *commandHeap) Push(x any) {
	*h = append(*h, x.(queuedCommand))
}

func (h *commandHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Sort returns the commands in ascending timestamp order. Ties keep their
// relative input order. The input slice is not modified.
func Sort(commands []TimedCommand) []TimedCommand {
	h := make(commandHeap, 0, len(commands))
	for i, c := range commands {
		h = append(h, queuedCommand{cmd: c, seq: i})
	}
	heap.Init(&h)
	out := make([]TimedCommand, 0, len(commands))
	for h.Len() > 0 {
		out = append(out, heap.Pop(&h).(queuedCommand).cmd)
	}
	return out
}
