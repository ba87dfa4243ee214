package net

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	maxDatagramSize = 1 << 16
	readDeadline    = time.Second
)

// UDPTransport implements the Transport interface over a single UDP socket.
type UDPTransport struct {
	conn       *net.UDPConn
	consumerCh chan Datagram
	logger     *logrus.Entry

	addrLock sync.Mutex
	addrs    map[string]*net.UDPAddr

	shutdown     bool
	shutdownCh   chan struct{}
	shutdownLock sync.Mutex
}

// NewUDPTransport binds a UDP socket to bindAddr.
func NewUDPTransport(bindAddr string, maxPool int, logger *logrus.Entry) (*UDPTransport, error) {
	localUDP, err := net.ResolveUDPAddr("udp", bindAddr)
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp", localUDP)
	if err != nil {
		return nil, err
	}

	if maxPool <= 0 {
		maxPool = 64
	}

	return &UDPTransport{
		conn:       conn,
		consumerCh: make(chan Datagram, maxPool),
		logger:     logger,
		addrs:      make(map[string]*net.UDPAddr),
		shutdownCh: make(chan struct{}),
	}, nil
}

// Listen implements the Transport interface.
func (u *UDPTransport) Listen() {
	buffer := make([]byte, maxDatagramSize)

	for {
		select {
		case <-u.shutdownCh:
			return
		default:
		}

		u.conn.SetReadDeadline(time.Now().Add(readDeadline))

		n, addr, err := u.conn.ReadFromUDP(buffer)
		if err != nil {
			if u.isShutdown() {
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			u.logger.WithError(err).Error("Reading datagram")
			continue
		}

		data := make([]byte, n)
		copy(data, buffer[:n])

		select {
		case u.consumerCh <- Datagram{From: addr.String(), Data: data}:
		case <-u.shutdownCh:
			return
		}
	}
}

// Consumer implements the Transport interface.
func (u *UDPTransport) Consumer() <-chan Datagram {
	return u.consumerCh
}

// SendTo implements the Transport interface.
func (u *UDPTransport) SendTo(target string, data []byte) error {
	addr, err := u.resolve(target)
	if err != nil {
		return err
	}

	_, err = u.conn.WriteToUDP(data, addr)
	return err
}

func (u *UDPTransport) resolve(target string) (*net.UDPAddr, error) {
	u.addrLock.Lock()
	defer u.addrLock.Unlock()

	if addr, ok := u.addrs[target]; ok {
		return addr, nil
	}

	addr, err := net.ResolveUDPAddr("udp", target)
	if err != nil {
		return nil, err
	}

	u.addrs[target] = addr

	return addr, nil
}

// LocalAddr implements the Transport interface.
func (u *UDPTransport) LocalAddr() string {
	return u.conn.LocalAddr().String()
}

// Close implements the Transport interface. It unblocks Listen.
func (u *UDPTransport) Close() error {
	u.shutdownLock.Lock()
	defer u.shutdownLock.Unlock()

	if !u.shutdown {
		close(u.shutdownCh)
		u.shutdown = true
		return u.conn.Close()
	}

	return nil
}

func (u *UDPTransport) isShutdown() bool {
	select {
	case <-u.shutdownCh:
		return true
	default:
		return false
	}
}
