package client

import "net"

type Client struct {
	Conn     net.Conn
	CancelCh <-chan struct{} // closed when the server is shutting down
}
