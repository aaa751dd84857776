package server

import (
	"net"
	"time"

	"github.com/prebid/prebid-beacon/metrics"
)

const keepAlivePeriod = 3 * time.Minute

// tcpKeepAliveListener sets TCP keep-alive timeouts on accepted connections.
type tcpKeepAliveListener struct {
	*net.TCPListener
}

func (ln tcpKeepAliveListener) Accept() (net.Conn, error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		return nil, err
	}
	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(keepAlivePeriod)
	return tc, nil
}

type monitorableConnection struct {
	net.Conn
	metrics metrics.MetricsEngine
}

type monitorableListener struct {
	*net.TCPListener
	metrics metrics.MetricsEngine
}

func (l *monitorableConnection) Close() error {
	err := l.Conn.Close()
	l.metrics.RecordConnectionClose(err == nil)
	return err
}

func (ln *monitorableListener) Accept() (net.Conn, error) {
	tc, err := ln.AcceptTCP()
	if err != nil {
		ln.metrics.RecordConnectionAccept(false)
		return nil, err
	}

	tc.SetKeepAlive(true)
	tc.SetKeepAlivePeriod(keepAlivePeriod)
	ln.metrics.RecordConnectionAccept(true)
	return &monitorableConnection{
		tc,
		ln.metrics,
	}, nil
}
