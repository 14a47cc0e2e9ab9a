package main

import (
	"fmt"
	"net"
	"os"
	"strings"
)

// createHTTPListener builds the listener the API server runs on. TCP is the
// default; a unix socket is useful when a local reverse proxy fronts the
// agent.
func createHTTPListener(listenerType, addr string, readBufferSize, writeBufferSize int) (net.Listener, error) {
	var listener net.Listener
	var err error

	listenerType = strings.ToLower(listenerType)

	switch listenerType {
	case "tcp", "":
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("failed to create TCP listener on %s: %w", addr, err)
		}
	case "unix":
		// Remove a stale socket file from a previous run
		if err := os.RemoveAll(addr); err != nil {
			return nil, fmt.Errorf("failed to remove existing socket file %s: %w", addr, err)
		}

		listener, err = net.Listen("unix", addr)
		if err != nil {
			return nil, fmt.Errorf("failed to create Unix socket listener on %s: %w", addr, err)
		}

		if err := os.Chmod(addr, 0666); err != nil {
			listener.Close()
			return nil, fmt.Errorf("failed to set permissions on socket file %s: %w", addr, err)
		}
	default:
		return nil, fmt.Errorf("unsupported listener type: %s (supported: tcp, unix)", listenerType)
	}

	return &bufferedListener{
		Listener:        listener,
		applyBuffers:    listenerType != "unix",
		readBufferSize:  readBufferSize,
		writeBufferSize: writeBufferSize,
	}, nil
}

// bufferedListener applies socket buffer sizes to accepted TCP connections.
type bufferedListener struct {
	net.Listener
	applyBuffers    bool
	readBufferSize  int
	writeBufferSize int
}

func (l *bufferedListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}

	if l.applyBuffers {
		if tcpConn, ok := conn.(*net.TCPConn); ok {
			if l.readBufferSize > 0 {
				tcpConn.SetReadBuffer(l.readBufferSize)
			}
			if l.writeBufferSize > 0 {
				tcpConn.SetWriteBuffer(l.writeBufferSize)
			}
		}
	}

	return conn, nil
}
