package net

// Datagram is a packet received from a remote address.
type Datagram struct {
	From string
	Data []byte
}

// Transport provides an interface for datagram transports to allow a node to
// exchange packets with its neighbors. Delivery is best effort.
type Transport interface {

	// Starts the transport listening. It blocks until the transport is
	// closed.
	Listen()

	// Consumer returns a channel that can be used to consume incoming
	// datagrams.
	Consumer() <-chan Datagram

	// SendTo sends a datagram to the target address.
	SendTo(target string, data []byte) error

	// LocalAddr is used to return our local address
	LocalAddr() string

	// Close permanently closes a transport, stopping
	// any associated goroutines and freeing other resources.
	Close() error
}
