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

// ConvertStart submits a conversion and returns its job token.
func (c *Client) ConvertStart(req ConvertStartRequest) (*ConvertStartResponse, error) {
	var resp ConvertStartResponse
	if err := c.client.Call("Docpress.ConvertStart", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ConvertEvents tails a job's event journal.
func (c *Client) ConvertEvents(req ConvertEventsRequest) (*ConvertEventsResponse, error) {
	var resp ConvertEventsResponse
	if err := c.client.Call("Docpress.ConvertEvents", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// License runs a short-lived worker command via the daemon.
func (c *Client) License(req LicenseRequest) (*LicenseResponse, error) {
	var resp LicenseResponse
	if err := c.client.Call("Docpress.License", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.client.Call("Docpress.Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryList returns history entries optionally filtered by statuses.
func (c *Client) HistoryList(statuses []string) (*HistoryListResponse, error) {
	var resp HistoryListResponse
	req := HistoryListRequest{Statuses: statuses}
	if err := c.client.Call("Docpress.HistoryList", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryDescribe returns details for a single job.
func (c *Client) HistoryDescribe(token string) (*HistoryDescribeResponse, error) {
	var resp HistoryDescribeResponse
	req := HistoryDescribeRequest{Token: token}
	if err := c.client.Call("Docpress.HistoryDescribe", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryClear removes all history entries.
func (c *Client) HistoryClear() (*HistoryClearResponse, error) {
	var resp HistoryClearResponse
	if err := c.client.Call("Docpress.HistoryClear", HistoryClearRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HistoryClearFailed removes failed history entries.
func (c *Client) HistoryClearFailed() (*HistoryClearFailedResponse, error) {
	var resp HistoryClearFailedResponse
	if err := c.client.Call("Docpress.HistoryClearFailed", HistoryClearFailedRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
