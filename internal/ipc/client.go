package ipc

import (
	"errors"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"strings"
	"time"

	"appdeck/internal/catalog"
	"appdeck/internal/engine"
	"appdeck/internal/overrides"
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
		return c.client.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return remoteError(c.client.Call(ServiceName+"."+method, req, resp))
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns the published catalog, filtered by search when non-empty.
func (c *Client) List(search string) (*CatalogResponse, error) {
	var resp CatalogResponse
	if err := c.call("List", ListRequest{Search: search}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Scan forces a full rescan and returns the new catalog.
func (c *Client) Scan() (*CatalogResponse, error) {
	var resp CatalogResponse
	if err := c.call("Scan", ScanRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Refresh recomputes running state and returns the updated catalog.
func (c *Client) Refresh() (*CatalogResponse, error) {
	var resp CatalogResponse
	if err := c.call("Refresh", RefreshRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetPath stores a custom path for id.
func (c *Client) SetPath(id, path string) error {
	var resp MutationResponse
	return c.call("SetPath", SetPathRequest{ID: id, Path: path}, &resp)
}

// ClearPath removes the custom path for id.
func (c *Client) ClearPath(id string) error {
	var resp MutationResponse
	return c.call("ClearPath", ClearPathRequest{ID: id}, &resp)
}

// AddPortable registers a portable app.
func (c *Client) AddPortable(name, path, publisher string) (catalog.Portable, error) {
	var resp AddPortableResponse
	if err := c.call("AddPortable", AddPortableRequest{Name: name, Path: path, Publisher: publisher}, &resp); err != nil {
		return catalog.Portable{}, err
	}
	return resp.Portable, nil
}

// RemovePortable deletes a portable registration.
func (c *Client) RemovePortable(id string) error {
	var resp MutationResponse
	return c.call("RemovePortable", RemovePortableRequest{ID: id}, &resp)
}

// Portables lists portable registrations.
func (c *Client) Portables() ([]catalog.Portable, error) {
	var resp PortablesResponse
	if err := c.call("Portables", PortablesRequest{}, &resp); err != nil {
		return nil, err
	}
	return resp.Portables, nil
}

// Import applies a manifest through the daemon.
func (c *Client) Import(m overrides.Manifest) (engine.ImportResult, error) {
	var resp ImportResponse
	if err := c.call("Import", ImportRequest{Manifest: m}, &resp); err != nil {
		return engine.ImportResult{}, err
	}
	if resp.Error != "" {
		return resp.Result, remoteError(rpc.ServerError(resp.Error))
	}
	return resp.Result, nil
}

var knownErrors = []error{
	engine.ErrScanInProgress,
	engine.ErrRefreshInProgress,
	engine.ErrUnknownEntry,
	overrides.ErrInvalidPortable,
	overrides.ErrNotFound,
}

// wireError carries a server message and, when recognised, the sentinel it
// was built from.
type wireError struct {
	msg      string
	sentinel error
}

func (e *wireError) Error() string { return e.msg }
func (e *wireError) Unwrap() error { return e.sentinel }

func remoteError(err error) error {
	var serverErr rpc.ServerError
	if !errors.As(err, &serverErr) {
		return err
	}
	msg := string(serverErr)
	for _, known := range knownErrors {
		if strings.Contains(msg, known.Error()) {
			return &wireError{msg: msg, sentinel: known}
		}
	}
	return &wireError{msg: msg}
}
