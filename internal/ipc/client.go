package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Stop requests daemon shutdown.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.client.Call("Txrmwatch.Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Txrmwatch.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Snapshot retrieves every tracked entry.
func (c *Client) Snapshot() (*SnapshotResponse, error) {
	var resp SnapshotResponse
	if err := c.client.Call("Txrmwatch.Snapshot", SnapshotRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProcessNow forces immediate processing of a tracked path.
func (c *Client) ProcessNow(path string) (*ProcessNowResponse, error) {
	var resp ProcessNowResponse
	if err := c.client.Call("Txrmwatch.ProcessNow", ProcessNowRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScanNow triggers an immediate directory scan.
func (c *Client) ScanNow() (*ScanNowResponse, error) {
	var resp ScanNowResponse
	if err := c.client.Call("Txrmwatch.ScanNow", ScanNowRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Directories returns the monitored roots.
func (c *Client) Directories() (*DirectoriesResponse, error) {
	var resp DirectoriesResponse
	if err := c.client.Call("Txrmwatch.GetDirectories", DirectoriesRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetDirectories replaces the monitored roots.
func (c *Client) SetDirectories(dirs []string) (*SetDirectoriesResponse, error) {
	var resp SetDirectoriesResponse
	if err := c.client.Call("Txrmwatch.SetDirectories", SetDirectoriesRequest{Directories: dirs}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Events fetches events published after the given sequence.
func (c *Client) Events(since uint64, limit int, wait bool) (*EventsResponse, error) {
	var resp EventsResponse
	req := EventsRequest{Since: since, Limit: limit, Wait: wait}
	if err := c.client.Call("Txrmwatch.Events", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
