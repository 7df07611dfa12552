package engine

// flush moves every partition's staged mail to its destinations and merges it
// into mailboxes, all between rounds with no compute in flight.
//
// Buffers ping-pong: src's outbox for d becomes d's inbox from src, and the
// buffer consumed from that inbox last round goes back to src empty. Steady
// state allocates nothing.
//
// Delivery into one partition walks source partitions in ascending id and
// each source's envelopes in staged order. With a commutative merge this
// fixes the mailbox contents regardless of how rounds were scheduled.
func flush[S, M any](parts []*Partition[S, M]) {
	for _, src := range parts {
		for d := range parts {
			src.outbox[d], parts[d].inbox[src.id] = parts[d].inbox[src.id][:0], src.outbox[d]
		}
	}
	// TODO: deliver per destination in parallel; destinations are independent.
	for _, dst := range parts {
		deliver(dst)
	}
}

func deliver[S, M any](p *Partition[S, M]) {
	p.resetMail()
	for s := range p.inbox {
		for _, env := range p.inbox[s] {
			p.mergeLocal(p.run.lay.Local[env.Dst], env.Mail)
		}
	}
}
