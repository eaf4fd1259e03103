package main

// Addressing selects which registered connections receive an outbound message
type Addressing int

const (
	ToOne    Addressing = iota // exactly one connection
	ToOthers                   // everyone except Conn
	ToAll
)

// Outbound is one message produced by the Coordinator for the Hub to deliver.
// Messages are delivered in slice order after the ledger lock is released.
type Outbound struct {
	To       Addressing
	Conn     string
	Reliable bool
	Env      Envelope
	// Close asks the transport to close Conn once this message is queued.
	Close bool
}

// One addresses a reliable message to conn.
func One(conn, t string, d interface{}) Outbound {
	return Outbound{To: ToOne, Conn: conn, Reliable: true, Env: Envelope{T: t, Data: d}}
}

// Others addresses a reliable message to everyone but conn.
func Others(conn, t string, d interface{}) Outbound {
	return Outbound{To: ToOthers, Conn: conn, Reliable: true, Env: Envelope{T: t, Data: d}}
}

// All addresses a reliable message to every connection.
func All(t string, d interface{}) Outbound {
	return Outbound{To: ToAll, Reliable: true, Env: Envelope{T: t, Data: d}}
}

// Droppable marks the message as safe to drop for a congested receiver.
func (o Outbound) Droppable() Outbound {
	o.Reliable = false
	return o
}

// AndClose asks for the addressed connection to be closed after delivery.
func (o Outbound) AndClose() Outbound {
	o.Close = true
	return o
}

// Recipient reports whether conn should receive o.
func (o Outbound) Recipient(conn string) bool {
	switch o.To {
	case ToOne:
		return conn == o.Conn
	case ToOthers:
		return conn != o.Conn
	default:
		return true
	}
}

// Drop closes conn without sending anything.
func Drop(conn string) Outbound {
	return Outbound{To: ToOne, Conn: conn, Reliable: true, Close: true}
}
